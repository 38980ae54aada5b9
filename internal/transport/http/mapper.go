package http

import (
	"encoding/json"

	"github.com/facingapp/node-server/internal/core"
	"github.com/facingapp/node-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func decodeData(raw json.RawMessage, v any) *proto.Error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("malformed data: " + err.Error())
	}
	return nil
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	cmd := &core.Command{RequestID: inbound.ID}

	switch inbound.Type {
	case proto.InboundTypeRegister:
		var data proto.RegisterData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		cmd.Kind = core.CommandRegister
		cmd.Name = data.Name
		cmd.Device = data.Device
	case proto.InboundTypeListPeople:
		cmd.Kind = core.CommandListPeople
	case proto.InboundTypeListRooms:
		cmd.Kind = core.CommandListRooms
	case proto.InboundTypeCreateRoom:
		var data proto.CreateRoomData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.Limit < 0 {
			return nil, badRequest("limit must not be negative")
		}
		cmd.Kind = core.CommandCreateRoom
		cmd.Room = data.Name
		cmd.Private = data.Private
		cmd.Limit = data.Limit
	case proto.InboundTypeCheckRoomName:
		var data proto.RoomNameData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		cmd.Kind = core.CommandCheckRoomName
		cmd.Room = data.Name
	case proto.InboundTypeRemoveRoom, proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		cmd.Kind = core.CommandRemoveRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			cmd.Kind = core.CommandLeaveRoom
		}
		cmd.Room = data.RoomID
	case proto.InboundTypeJoinRoom:
		var data proto.JoinRoomData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		cmd.Kind = core.CommandJoinRoom
		cmd.Room = data.RoomID
		cmd.UserID = data.UserID
		cmd.UserMode = data.UserMode
	case proto.InboundTypeSend:
		var data proto.SendData
		if perr := decodeData(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.Text == "" {
			return nil, badRequest("text is required")
		}
		cmd.Kind = core.CommandSend
		cmd.Text = data.Text
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	}
	return cmd, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func personView(p core.Person) proto.Person {
	return proto.Person{
		Name:     p.Name,
		Owns:     optional(p.OwnedRoomID),
		InRoom:   optional(p.CurrentRoomID),
		Device:   p.Device,
		UserID:   p.UserID,
		UserMode: string(p.Role),
	}
}

func peopleView(people map[string]core.Person) map[string]proto.Person {
	out := make(map[string]proto.Person, len(people))
	for id, p := range people {
		out[id] = personView(p)
	}
	return out
}

func roomsView(rooms map[string]core.Room) map[string]proto.Room {
	out := make(map[string]proto.Room, len(rooms))
	for id, r := range rooms {
		out[id] = proto.Room{
			ID:          r.ID,
			Name:        r.Name,
			Owner:       r.OwnerID,
			People:      r.Members,
			Private:     r.Private,
			PeopleLimit: r.MemberLimit,
		}
	}
	return out
}

func event(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventNotice:
		return event(proto.EventUpdate, ev.Text)
	case core.EventRoster:
		return event(proto.EventUpdatePeople, proto.EventRoster{People: peopleView(ev.People), Count: ev.Count})
	case core.EventRoomList:
		return event(proto.EventRoomList, proto.EventRooms{Rooms: roomsView(ev.Rooms), Count: ev.Count})
	case core.EventRoomData:
		return event(proto.EventReceiveData, proto.EventData{
			Room: ev.Message.Room,
			From: personView(ev.Message.From),
			Text: ev.Message.Text,
			TS:   ev.Message.CreatedAt.Unix(),
		})
	case core.EventRoomJoined:
		if ev.Joined == nil {
			return event(proto.EventJoinedSpace, proto.EventJoined{RoomID: ev.Room})
		}
		return event(proto.EventJoinedSpace, proto.EventJoined{
			RoomID:   ev.Joined.RoomID,
			UserID:   ev.Joined.UserID,
			UserMode: ev.Joined.UserMode,
		})
	case core.EventRoomID:
		return event(proto.EventSendRoomID, proto.EventRoomID{ID: ev.Room})
	case core.EventHistory:
		history := ev.History
		if history == nil {
			history = []string{}
		}
		return event(proto.EventHistory, history)
	case core.EventNameConflict:
		return event(proto.EventExists, proto.EventNameTaken{Msg: ev.Text, ProposedName: ev.ProposedName})
	case core.EventAck:
		return proto.Outbound{Type: proto.OutboundTypeAck, ID: ev.RequestID, Data: ackData(ev.Ack)}
	case core.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func ackData(ack *core.Ack) any {
	if ack == nil {
		return proto.Result{}
	}
	switch ack.Kind {
	case core.CommandListPeople:
		return proto.PeopleResult{People: peopleView(ack.People)}
	case core.CommandListRooms:
		return proto.EventRooms{Rooms: roomsView(ack.Rooms), Count: ack.Count}
	case core.CommandCheckRoomName:
		return proto.CheckResult{Result: ack.Exists}
	default:
		return proto.Result{
			Success: ack.Success,
			Message: ack.Message,
			Code:    ack.Code,
			Name:    ack.Name,
			Device:  ack.Device,
		}
	}
}

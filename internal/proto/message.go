package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. ID, when
// present, is echoed on the matching ack.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeRegister      = "register"
	InboundTypeListPeople    = "listPeople"
	InboundTypeListRooms     = "listRooms"
	InboundTypeCreateRoom    = "createRoom"
	InboundTypeCheckRoomName = "checkRoomName"
	InboundTypeRemoveRoom    = "removeRoom"
	InboundTypeJoinRoom      = "joinRoom"
	InboundTypeLeaveRoom     = "leaveRoom"
	InboundTypeSend          = "send"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"
)

// Server to client event names.
const (
	EventUpdate       = "update"
	EventUpdatePeople = "update-people"
	EventRoomList     = "roomList"
	EventReceiveData  = "receiveData"
	EventJoinedSpace  = "joinedSpace"
	EventSendRoomID   = "sendRoomID"
	EventHistory      = "history"
	EventExists       = "exists"
)

// RegisterData claims a display name.
type RegisterData struct {
	Name   string          `json:"name"`
	Device json.RawMessage `json:"device,omitempty"`
}

// CreateRoomData opens a room. Limit applies only to private rooms.
type CreateRoomData struct {
	Name    string `json:"name"`
	Private bool   `json:"private,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// RoomNameData names a room to check.
type RoomNameData struct {
	Name string `json:"name"`
}

// RoomData addresses a room by id.
type RoomData struct {
	RoomID string `json:"roomId"`
}

// JoinRoomData requests to join a specific room.
type JoinRoomData struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserMode string `json:"userMode"`
}

// SendData is a chat line from the client.
type SendData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Person is the public view of a connected person.
type Person struct {
	Name     string          `json:"name"`
	Owns     *string         `json:"owns"`
	InRoom   *string         `json:"inroom"`
	Device   json.RawMessage `json:"device,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	UserMode string          `json:"user_mode,omitempty"`
}

// Room is the public view of an active room.
type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	People      []string `json:"people"`
	Private     bool     `json:"private"`
	PeopleLimit int      `json:"peopleLimit,omitempty"`
}

// EventRoster lists everyone connected.
type EventRoster struct {
	People map[string]Person `json:"people"`
	Count  int               `json:"count"`
}

// EventRooms lists every active room.
type EventRooms struct {
	Rooms map[string]Room `json:"rooms"`
	Count int             `json:"count"`
}

// EventData is a chat line relayed to a room.
type EventData struct {
	Room string `json:"room"`
	From Person `json:"from"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventJoined announces a new room member.
type EventJoined struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserMode string `json:"userMode"`
}

// EventRoomID tells the client which room it is in.
type EventRoomID struct {
	ID string `json:"id"`
}

// EventNameTaken proposes a free name after a conflict.
type EventNameTaken struct {
	Msg          string `json:"msg"`
	ProposedName string `json:"proposedName"`
}

// Result is the ack payload for register, createRoom and joinRoom.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Name    string          `json:"name,omitempty"`
	Device  json.RawMessage `json:"device,omitempty"`
}

// PeopleResult is the ack payload for listPeople.
type PeopleResult struct {
	People map[string]Person `json:"people"`
}

// CheckResult is the ack payload for checkRoomName.
type CheckResult struct {
	Result bool `json:"result"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister claims a display name for the connection.
	CommandRegister CommandKind = iota
	// CommandListPeople asks for the current roster.
	CommandListPeople
	// CommandListRooms asks for the current room list.
	CommandListRooms
	// CommandCreateRoom opens a room owned by the caller.
	CommandCreateRoom
	// CommandCheckRoomName asks whether a room name is in use.
	CommandCheckRoomName
	// CommandRemoveRoom tears down a room owned by the caller.
	CommandRemoveRoom
	// CommandJoinRoom adds the caller to an existing room.
	CommandJoinRoom
	// CommandLeaveRoom removes the caller from their room.
	CommandLeaveRoom
	// CommandSend delivers a chat line to the caller's room.
	CommandSend
	// CommandDisconnect is issued by the transport when the connection ends.
	CommandDisconnect

	commandConnect
)

var commandNames = map[CommandKind]string{
	CommandRegister:      "register",
	CommandListPeople:    "listPeople",
	CommandListRooms:     "listRooms",
	CommandCreateRoom:    "createRoom",
	CommandCheckRoomName: "checkRoomName",
	CommandRemoveRoom:    "removeRoom",
	CommandJoinRoom:      "joinRoom",
	CommandLeaveRoom:     "leaveRoom",
	CommandSend:          "send",
	CommandDisconnect:    "disconnect",
	commandConnect:       "connect",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client. RequestID, when set,
// asks for an EventAck carrying the result.
type Command struct {
	Kind      CommandKind
	RequestID string

	Name   string
	Device json.RawMessage

	Room     string
	UserID   string
	UserMode string
	Private  bool
	Limit    int

	Text string
}

package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNotice carries a human-readable status line.
	EventNotice EventKind = iota
	// EventRoster delivers the full list of connected people.
	EventRoster
	// EventRoomList delivers the full list of active rooms.
	EventRoomList
	// EventRoomData relays a chat message to room members.
	EventRoomData
	// EventRoomJoined announces a new member to the room.
	EventRoomJoined
	// EventRoomID tells a client which room it now belongs to.
	EventRoomID
	// EventHistory replays a room backlog to a new member.
	EventHistory
	// EventNameConflict proposes an alternative to a taken name.
	EventNameConflict
	// EventAck answers a command that carried a RequestID.
	EventAck
	// EventError notifies a client about a domain error with no ack to carry it.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room string
	Text string

	People map[string]Person
	Rooms  map[string]Room
	Count  int

	Message Message
	Joined  *JoinedInfo
	History []string

	ProposedName string

	RequestID string
	Ack       *Ack
	Error     *CoreError
}

// JoinedInfo describes who entered a room and how.
type JoinedInfo struct {
	RoomID   string
	UserID   string
	UserMode string
}

// Ack is the synchronous result of a command. Only the fields relevant to
// Kind are populated.
type Ack struct {
	Kind    CommandKind
	Success bool
	Code    string
	Message string

	Name   string
	Device json.RawMessage

	People map[string]Person
	Rooms  map[string]Room
	Count  int

	Exists bool
}

func noticeEvent(text string) *Event {
	return &Event{Kind: EventNotice, Text: text}
}

func rosterEvent(people *PersonRepository) *Event {
	return &Event{Kind: EventRoster, People: people.Snapshot(), Count: people.Count()}
}

func roomListEvent(rooms *RoomRepository) *Event {
	return &Event{Kind: EventRoomList, Rooms: rooms.Snapshot(), Count: rooms.Count()}
}

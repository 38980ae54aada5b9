package core

import "github.com/rs/zerolog"

// Trigger is the cause of a purge.
type Trigger string

const (
	TriggerDisconnect Trigger = "disconnect"
	TriggerRemoveRoom Trigger = "removeRoom"
	TriggerLeaveRoom  Trigger = "leaveRoom"
)

// Audience selects who receives a purge notice.
type Audience int

const (
	AudienceAll Audience = iota
	AudienceRoom
	AudienceSelf
)

// Notice is a status line emitted as part of a purge.
type Notice struct {
	Audience Audience
	Text     string
}

// Standing classifies the departing person relative to their room.
type Standing int

const (
	StandingIdle Standing = iota
	StandingOwner
	StandingMember
)

// PurgePlan is the full effect of a purge, computed before anything changes.
type PurgePlan struct {
	Standing Standing
	Trigger  Trigger
	RoomID   string

	// Notices are emitted before any mutation so room notices still reach
	// every subscriber.
	Notices []Notice

	TeardownRoom bool
	RemoveMember bool
	DetachPerson bool
	DeletePerson bool

	BroadcastRoster   bool
	BroadcastRoomList bool
}

// PlanPurge decides what a purge does for person, whose current room is
// room (nil when the person is not in a room or the room no longer exists).
func PlanPurge(person Person, room *Room, trigger Trigger) PurgePlan {
	plan := PurgePlan{Trigger: trigger}

	if room == nil {
		if trigger == TriggerDisconnect {
			plan.Notices = []Notice{{AudienceAll, person.Name + " has disconnected from the server."}}
			plan.DeletePerson = true
			plan.BroadcastRoster = true
		}
		if person.InRoom() {
			// currentRoomId points at a room that is gone.
			plan.DetachPerson = !plan.DeletePerson
		}
		return plan
	}

	plan.RoomID = room.ID
	if room.OwnerID == person.SessionID {
		plan.Standing = StandingOwner
		plan.TeardownRoom = true
		plan.BroadcastRoomList = true

		switch trigger {
		case TriggerDisconnect:
			plan.Notices = []Notice{{AudienceRoom, "The owner (" + person.Name +
				") has left the server. The room is removed and you have been disconnected from it as well."}}
			plan.DeletePerson = true
			plan.BroadcastRoster = true
		case TriggerRemoveRoom:
			plan.Notices = []Notice{{AudienceRoom, "The owner (" + person.Name +
				") has removed the room. The room is removed and you have been disconnected from it as well."}}
			plan.DetachPerson = true
		case TriggerLeaveRoom:
			plan.Notices = []Notice{{AudienceRoom, "The owner (" + person.Name +
				") has left the room. The room is removed and you have been disconnected from it as well."}}
			plan.DetachPerson = true
		}
		return plan
	}

	plan.Standing = StandingMember
	member := room.HasMember(person.SessionID)
	switch trigger {
	case TriggerDisconnect:
		plan.Notices = []Notice{{AudienceAll, person.Name + " has disconnected from the server."}}
		plan.RemoveMember = member
		plan.DeletePerson = true
		plan.BroadcastRoster = true
	case TriggerRemoveRoom:
		plan.Notices = []Notice{{AudienceSelf, "Only the owner can remove a room."}}
	case TriggerLeaveRoom:
		if member {
			plan.Notices = []Notice{{AudienceAll, person.Name + " has left the room."}}
			plan.RemoveMember = true
		}
		plan.DetachPerson = true
	}
	return plan
}

// Relay is what the coordinator needs from the connection layer.
type Relay interface {
	NotifyAll(event *Event)
	NotifyRoom(roomID string, event *Event)
	NotifySession(sessionID string, event *Event)
	// Unsubscribe drops sessionID from the room's broadcast group and clears
	// the connection's cached placement.
	Unsubscribe(roomID, sessionID string)
	// CloseGroup discards the broadcast group of a deleted room.
	CloseGroup(roomID string)
}

// Coordinator applies purge plans to the repositories.
type Coordinator struct {
	people *PersonRepository
	rooms  *RoomRepository
	relay  Relay
	log    *zerolog.Logger
}

// NewCoordinator wires a coordinator over the given repositories.
func NewCoordinator(people *PersonRepository, rooms *RoomRepository, relay Relay, logger *zerolog.Logger) *Coordinator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Coordinator{people: people, rooms: rooms, relay: relay, log: logger}
}

// Purge restores registry invariants after sessionID departs. It returns
// false without side effects if the session is no longer registered.
func (c *Coordinator) Purge(sessionID string, trigger Trigger) (PurgePlan, bool) {
	person, ok := c.people.Get(sessionID)
	if !ok {
		return PurgePlan{}, false
	}

	var room *Room
	if person.InRoom() {
		if r, ok := c.rooms.Get(person.CurrentRoomID); ok {
			room = &r
		}
	}

	plan := PlanPurge(person, room, trigger)
	c.apply(person, room, plan)

	c.log.Info().
		Str("session_id", sessionID).
		Str("trigger", string(trigger)).
		Str("room", plan.RoomID).
		Int("standing", int(plan.Standing)).
		Msg("purge applied")
	return plan, true
}

func (c *Coordinator) apply(person Person, room *Room, plan PurgePlan) {
	for _, n := range plan.Notices {
		ev := noticeEvent(n.Text)
		switch n.Audience {
		case AudienceAll:
			c.relay.NotifyAll(ev)
		case AudienceRoom:
			c.relay.NotifyRoom(plan.RoomID, ev)
		case AudienceSelf:
			c.relay.NotifySession(person.SessionID, ev)
		}
	}

	if plan.TeardownRoom && room != nil {
		for _, memberID := range room.Members {
			c.relay.Unsubscribe(room.ID, memberID)
			c.people.leaveRoom(memberID)
		}
		c.rooms.drop(room.ID)
		c.relay.CloseGroup(room.ID)
	}

	if plan.RemoveMember && room != nil {
		if c.rooms.removeMember(room.ID, person.SessionID) {
			c.relay.Unsubscribe(room.ID, person.SessionID)
		}
	}

	switch {
	case plan.DeletePerson:
		c.people.Remove(person.SessionID)
	case plan.DetachPerson && plan.TeardownRoom:
		c.people.releaseRoom(person.SessionID)
	case plan.DetachPerson:
		c.people.leaveRoom(person.SessionID)
	}

	if plan.BroadcastRoster {
		c.relay.NotifyAll(rosterEvent(c.people))
	}
	if plan.BroadcastRoomList {
		c.relay.NotifyAll(roomListEvent(c.rooms))
	}
}

package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// newTestHub returns a hub driven synchronously through dispatch.
func newTestHub() *Hub {
	return NewHub(HubConfig{DefaultMemberLimit: 2, Suggest: func() int { return 482 }}, nil)
}

func connect(h *Hub, id string) *Client {
	c := NewClient(id, 512)
	h.dispatch(c, &Command{Kind: commandConnect})
	return c
}

// drain returns every event queued for c without blocking.
func drain(c *Client) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventsOf(events []*Event, kind EventKind) []*Event {
	var out []*Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func lastAck(t *testing.T, events []*Event) *Ack {
	t.Helper()
	acks := eventsOf(events, EventAck)
	if len(acks) == 0 {
		t.Fatalf("no ack among %d events", len(events))
	}
	return acks[len(acks)-1].Ack
}

func notices(events []*Event) []string {
	var out []string
	for _, ev := range eventsOf(events, EventNotice) {
		out = append(out, ev.Text)
	}
	return out
}

func registerAs(t *testing.T, h *Hub, c *Client, name string) {
	t.Helper()
	h.dispatch(c, &Command{Kind: CommandRegister, RequestID: "reg", Name: name})
	if ack := lastAck(t, drain(c)); !ack.Success {
		t.Fatalf("register %s failed: %+v", name, ack)
	}
}

func createRoom(t *testing.T, h *Hub, c *Client, name string, opts CreateRoomOptions) {
	t.Helper()
	h.dispatch(c, &Command{Kind: CommandCreateRoom, RequestID: "create", Room: name, Private: opts.Private, Limit: opts.MemberLimit})
	if ack := lastAck(t, drain(c)); !ack.Success {
		t.Fatalf("create %s failed: %+v", name, ack)
	}
}

func joinRoom(t *testing.T, h *Hub, c *Client, room string) *Ack {
	t.Helper()
	h.dispatch(c, &Command{Kind: CommandJoinRoom, RequestID: "join", Room: room, UserID: "u-" + c.ID, UserMode: string(RoleGuest)})
	return lastAck(t, drain(c))
}

// checkInvariants verifies the cross-registry invariants hold.
func checkInvariants(t *testing.T, h *Hub) {
	t.Helper()

	people := h.people.Snapshot()
	rooms := h.rooms.Snapshot()

	for id, room := range rooms {
		if !room.HasMember(room.OwnerID) {
			t.Errorf("room %s: owner %s not in members %v", id, room.OwnerID, room.Members)
		}
		seen := make(map[string]bool)
		for _, m := range room.Members {
			if seen[m] {
				t.Errorf("room %s: duplicate member %s", id, m)
			}
			seen[m] = true
		}
		if backlog, ok := h.history.Backlog(id); !ok {
			t.Errorf("room %s has no history", id)
		} else if len(backlog) > HistoryCapacity {
			t.Errorf("room %s history has %d entries", id, len(backlog))
		}
	}

	for id, p := range people {
		if p.CurrentRoomID != "" {
			room, ok := rooms[p.CurrentRoomID]
			if !ok {
				t.Errorf("person %s in missing room %s", id, p.CurrentRoomID)
			} else if !room.HasMember(id) {
				t.Errorf("person %s claims room %s but is not a member", id, p.CurrentRoomID)
			}
		}
		if p.OwnedRoomID != "" {
			room, ok := rooms[p.OwnedRoomID]
			if !ok || room.OwnerID != id {
				t.Errorf("person %s owns %s but room owner disagrees", id, p.OwnedRoomID)
			}
			if p.CurrentRoomID != p.OwnedRoomID {
				t.Errorf("person %s owns %s but is in %q", id, p.OwnedRoomID, p.CurrentRoomID)
			}
		}
	}
}

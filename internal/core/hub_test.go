package core

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestHubNameConflictProposesAlternative(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	other := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	drain(other)

	h.dispatch(other, &Command{Kind: CommandRegister, RequestID: "r1", Name: "alice"})
	events := drain(other)

	conflicts := eventsOf(events, EventNameConflict)
	if len(conflicts) != 1 || conflicts[0].ProposedName != "alice482" {
		t.Fatalf("expected proposal alice482, got %+v", conflicts)
	}
	ack := lastAck(t, events)
	if ack.Success || ack.Code != ErrCodeNameTaken {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if h.people.Count() != 1 {
		t.Fatalf("expected one person, got %d", h.people.Count())
	}
}

func TestHubRegisterAnnouncesPresence(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")

	h.dispatch(bob, &Command{Kind: CommandRegister, RequestID: "r", Name: "Bob"})
	events := drain(bob)
	if got := notices(events); !slices.Equal(got, []string{"You have connected to the server.", "Bob is online."}) {
		t.Fatalf("unexpected notices: %v", got)
	}
	if rosters := eventsOf(events, EventRoster); len(rosters) != 1 || rosters[0].Count != 2 {
		t.Fatalf("unexpected roster: %+v", rosters)
	}
	if lists := eventsOf(events, EventRoomList); len(lists) != 1 {
		t.Fatalf("expected room list on register, got %d", len(lists))
	}

	seen := drain(alice)
	if got := notices(seen); !slices.Equal(got, []string{"Bob is online."}) {
		t.Fatalf("alice saw %v", got)
	}
}

func TestHubRegisterTwice(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	registerAs(t, h, alice, "Alice")

	h.dispatch(alice, &Command{Kind: CommandRegister, RequestID: "r", Name: "Alicia"})
	ack := lastAck(t, drain(alice))
	if ack.Success || ack.Code != ErrCodeAlreadyRegistered {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestHubCreateAndJoin(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	drain(alice)

	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	drain(bob)
	checkInvariants(t, h)

	ack := joinRoom(t, h, bob, "Den")
	if !ack.Success || ack.Message != "Bob has connected to Den room." {
		t.Fatalf("unexpected join ack: %+v", ack)
	}
	checkInvariants(t, h)

	h.dispatch(bob, &Command{Kind: CommandListRooms, RequestID: "l"})
	list := lastAck(t, drain(bob))
	den, ok := list.Rooms["Den"]
	if !ok || len(den.Members) != 2 || list.Count != 1 {
		t.Fatalf("unexpected room list: %+v", list)
	}

	aliceEvents := drain(alice)
	if got := notices(aliceEvents); !slices.Contains(got, "Bob has connected to Den room.") {
		t.Fatalf("alice missed join notice: %v", got)
	}
	joined := eventsOf(aliceEvents, EventRoomJoined)
	if len(joined) != 1 || joined[0].Joined.UserID != "u-b" || joined[0].Joined.UserMode != "guest" {
		t.Fatalf("unexpected joined event: %+v", joined)
	}

	if bob.Room != "Den" || bob.Role != RoleGuest {
		t.Fatalf("bob placement = %q/%q", bob.Room, bob.Role)
	}
}

func TestHubJoinReplaysBacklog(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})

	h.dispatch(bob, &Command{Kind: CommandJoinRoom, Room: "Den", UserMode: "guest"})
	history := eventsOf(drain(bob), EventHistory)
	if len(history) != 1 || history[0].History == nil || len(history[0].History) != 0 {
		t.Fatalf("expected empty backlog, got %+v", history)
	}

	for i := range 12 {
		h.dispatch(alice, &Command{Kind: CommandSend, Text: string(rune('a' + i))})
	}
	carol := connect(h, "c")
	registerAs(t, h, carol, "Carol")
	h.dispatch(bob, &Command{Kind: CommandLeaveRoom, Room: "Den"})
	joinRoom(t, h, carol, "Den")

	backlog, _ := h.history.Backlog("Den")
	if len(backlog) != HistoryCapacity || backlog[0] != "Alice: c" || backlog[9] != "Alice: l" {
		t.Fatalf("unexpected backlog: %v", backlog)
	}
	checkInvariants(t, h)
}

func TestHubSendDeliversToRoomOnly(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	eve := connect(h, "e")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	registerAs(t, h, eve, "Eve")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")
	drain(alice)
	drain(eve)

	h.dispatch(bob, &Command{Kind: CommandSend, Text: "hi"})

	for _, c := range []*Client{alice, bob} {
		data := eventsOf(drain(c), EventRoomData)
		if len(data) != 1 || data[0].Message.Text != "hi" || data[0].Message.From.Name != "Bob" {
			t.Fatalf("client %s got %+v", c.ID, data)
		}
	}
	if data := eventsOf(drain(eve), EventRoomData); len(data) != 0 {
		t.Fatalf("eve should not see room data: %+v", data)
	}

	backlog, _ := h.history.Backlog("Den")
	if !slices.Equal(backlog, []string{"Bob: hi"}) {
		t.Fatalf("unexpected backlog: %v", backlog)
	}
}

func TestHubSendOutsideRoomFails(t *testing.T) {
	h := newTestHub()
	anon := connect(h, "x")
	alice := connect(h, "a")
	registerAs(t, h, alice, "Alice")

	h.dispatch(anon, &Command{Kind: CommandSend, Text: "hi"})
	if got := notices(drain(anon)); !slices.Equal(got, []string{"Unable to Share Data"}) {
		t.Fatalf("unregistered sender got %v", got)
	}

	h.dispatch(alice, &Command{Kind: CommandSend, Text: "hi"})
	if got := notices(drain(alice)); !slices.Equal(got, []string{"Unable to Share Data"}) {
		t.Fatalf("roomless sender got %v", got)
	}
}

func TestHubOwnerDisconnectTearsDownRoom(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")
	h.dispatch(bob, &Command{Kind: CommandSend, Text: "hello"})
	drain(bob)

	people, rooms := h.people.Count(), h.rooms.Count()
	h.dispatch(alice, &Command{Kind: CommandDisconnect})

	if h.people.Count() != people-1 || h.rooms.Count() != rooms-1 {
		t.Fatalf("counts = %d/%d", h.people.Count(), h.rooms.Count())
	}
	if _, ok := h.history.Backlog("Den"); ok {
		t.Fatal("history should be gone")
	}
	b, _ := h.people.Get("b")
	if b.CurrentRoomID != "" {
		t.Fatalf("bob still in %q", b.CurrentRoomID)
	}
	if bob.Room != "" {
		t.Fatalf("bob connection still cached in %q", bob.Room)
	}

	events := drain(bob)
	want := "The owner (Alice) has left the server. The room is removed and you have been disconnected from it as well."
	if got := notices(events); !slices.Contains(got, want) {
		t.Fatalf("bob missed teardown notice: %v", got)
	}
	if rosters := eventsOf(events, EventRoster); len(rosters) != 1 || rosters[0].Count != 1 {
		t.Fatalf("unexpected roster: %+v", rosters)
	}
	// Events is closed once the disconnect is handled.
	for range alice.Events {
	}
	checkInvariants(t, h)

	h.dispatch(bob, &Command{Kind: CommandSend, Text: "anyone?"})
	if got := notices(drain(bob)); !slices.Equal(got, []string{"Unable to Share Data"}) {
		t.Fatalf("send after teardown: %v", got)
	}
}

func TestHubMemberLeave(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")
	drain(alice)

	h.dispatch(bob, &Command{Kind: CommandLeaveRoom, Room: "Den"})
	if got := notices(drain(alice)); !slices.Equal(got, []string{"Bob has left the room."}) {
		t.Fatalf("alice saw %v", got)
	}
	den, _ := h.rooms.Get("Den")
	if !slices.Equal(den.Members, []string{"a"}) {
		t.Fatalf("members = %v", den.Members)
	}
	checkInvariants(t, h)

	// Leaving again is a no-op.
	h.dispatch(bob, &Command{Kind: CommandLeaveRoom, Room: "Den"})
	if events := drain(alice); len(events) != 0 {
		t.Fatalf("repeat leave emitted %d events", len(events))
	}

	// A fresh join works after leaving.
	if ack := joinRoom(t, h, bob, "Den"); !ack.Success {
		t.Fatalf("rejoin failed: %+v", ack)
	}
	checkInvariants(t, h)
}

func TestHubRemoveRoom(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")

	h.dispatch(bob, &Command{Kind: CommandRemoveRoom, Room: "Den"})
	if got := notices(drain(bob)); !slices.Equal(got, []string{"Only the owner can remove a room."}) {
		t.Fatalf("bob got %v", got)
	}
	if !h.rooms.Exists("Den") {
		t.Fatal("room should survive a non-owner remove")
	}

	h.dispatch(alice, &Command{Kind: CommandRemoveRoom, Room: "Den"})
	if h.rooms.Exists("Den") {
		t.Fatal("room should be removed")
	}
	a, ok := h.people.Get("a")
	if !ok || a.OwnedRoomID != "" || a.InRoom() {
		t.Fatalf("owner state after remove: %+v %v", a, ok)
	}
	if h.people.Count() != 2 {
		t.Fatalf("remove must not delete people, have %d", h.people.Count())
	}
	checkInvariants(t, h)

	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	checkInvariants(t, h)
}

func TestHubPrivateRoomLimit(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	carol := connect(h, "c")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	registerAs(t, h, carol, "Carol")
	createRoom(t, h, alice, "Den", CreateRoomOptions{Private: true})

	if ack := joinRoom(t, h, bob, "Den"); !ack.Success {
		t.Fatalf("bob join failed: %+v", ack)
	}
	ack := joinRoom(t, h, carol, "Den")
	if ack.Success || ack.Code != ErrCodeRoomFull {
		t.Fatalf("expected room_full, got %+v", ack)
	}
	checkInvariants(t, h)
}

func TestHubCheckRoomName(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	registerAs(t, h, alice, "Alice")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})

	for name, want := range map[string]bool{"Den": true, "den": false, "Lab": false} {
		h.dispatch(alice, &Command{Kind: CommandCheckRoomName, RequestID: "c", Room: name})
		if ack := lastAck(t, drain(alice)); ack.Exists != want {
			t.Fatalf("check %s = %v, want %v", name, ack.Exists, want)
		}
	}
}

func TestHubRejectWithoutRequestID(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")

	h.dispatch(alice, &Command{Kind: CommandCreateRoom, Room: "Den"})
	events := drain(alice)
	if len(eventsOf(events, EventAck)) != 0 {
		t.Fatal("no ack expected without a request id")
	}
	errs := eventsOf(events, EventError)
	if len(errs) != 1 || errs[0].Error.Code != ErrCodePersonNotFound {
		t.Fatalf("unexpected error events: %+v", errs)
	}
}

func TestHubDisconnectTwice(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	drain(bob)

	h.dispatch(alice, &Command{Kind: CommandDisconnect})
	first := drain(bob)
	h.dispatch(alice, &Command{Kind: CommandDisconnect})
	if again := drain(bob); len(again) != 0 {
		t.Fatalf("second disconnect emitted %d events", len(again))
	}
	if got := notices(first); !slices.Equal(got, []string{"Alice has disconnected from the server."}) {
		t.Fatalf("bob saw %v", got)
	}
}

func TestHubRunRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(HubConfig{}, nil)
	go hub.Run(ctx)

	alice := NewClient("a", 0)
	bob := NewClient("b", 0)
	if !hub.RegisterClient(alice) || !hub.RegisterClient(bob) {
		t.Fatal("register failed")
	}

	alice.Commands <- &Command{Kind: CommandRegister, Name: "Alice"}
	mustEvent(t, alice.Events, EventRoomList)
	bob.Commands <- &Command{Kind: CommandRegister, Name: "Bob"}
	mustEvent(t, bob.Events, EventRoomList)

	alice.Commands <- &Command{Kind: CommandCreateRoom, Room: "Den"}
	idEv := mustEvent(t, alice.Events, EventRoomID)
	if idEv.Room != "Den" {
		t.Fatalf("unexpected room id event: %+v", idEv)
	}

	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "Den", UserID: "7", UserMode: "guest"}
	joined := mustEvent(t, alice.Events, EventRoomJoined)
	if joined.Joined.RoomID != "Den" || joined.Joined.UserID != "7" {
		t.Fatalf("unexpected joined event: %+v", joined)
	}
	mustEvent(t, bob.Events, EventHistory)

	alice.Commands <- &Command{Kind: CommandSend, Text: "hi"}
	data := mustEvent(t, bob.Events, EventRoomData)
	if data.Message.Text != "hi" || data.Message.From.Name != "Alice" {
		t.Fatalf("unexpected data event: %+v", data)
	}

	hub.UnregisterClient(alice)
	roster := mustEvent(t, bob.Events, EventRoster)
	if roster.Count != 1 {
		t.Fatalf("expected roster of 1, got %d", roster.Count)
	}

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.RegisterClient(NewClient("late", 0)) {
		t.Fatal("register after stop should fail")
	}
}

func TestHubListPeople(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	registerAs(t, h, alice, "Alice")

	h.dispatch(alice, &Command{Kind: CommandListPeople, RequestID: "p"})
	ack := lastAck(t, drain(alice))
	if ack.Kind != CommandListPeople || ack.Count != 1 || ack.People["a"].Name != "Alice" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	h.dispatch(alice, &Command{Kind: CommandListPeople})
	if rosters := eventsOf(drain(alice), EventRoster); len(rosters) != 1 || rosters[0].Count != 1 {
		t.Fatalf("expected roster event, got %+v", rosters)
	}
}

func TestHubMemberDisconnect(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")
	drain(alice)

	h.dispatch(bob, &Command{Kind: CommandDisconnect})

	den, ok := h.rooms.Get("Den")
	if !ok || !slices.Equal(den.Members, []string{"a"}) {
		t.Fatalf("room after member disconnect: %+v %v", den, ok)
	}
	if h.groups["Den"].has(bob) {
		t.Fatal("bob still subscribed to Den")
	}
	if h.people.Exists("b") || h.people.Count() != 1 {
		t.Fatalf("bob should be deleted, have %d people", h.people.Count())
	}
	a, _ := h.people.Get("a")
	if a.OwnedRoomID != "Den" || a.CurrentRoomID != "Den" {
		t.Fatalf("owner placement changed: %+v", a)
	}

	events := drain(alice)
	if got := notices(events); !slices.Equal(got, []string{"Bob has disconnected from the server."}) {
		t.Fatalf("alice saw %v", got)
	}
	if rosters := eventsOf(events, EventRoster); len(rosters) != 1 || rosters[0].Count != 1 {
		t.Fatalf("unexpected roster: %+v", rosters)
	}
	checkInvariants(t, h)

	h.dispatch(alice, &Command{Kind: CommandSend, Text: "still here"})
	backlog, _ := h.history.Backlog("Den")
	if !slices.Equal(backlog, []string{"Alice: still here"}) {
		t.Fatalf("unexpected backlog: %v", backlog)
	}
}

func TestHubOwnerLeaveTearsDownRoom(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")
	h.dispatch(bob, &Command{Kind: CommandSend, Text: "hello"})
	drain(alice)
	drain(bob)

	h.dispatch(alice, &Command{Kind: CommandLeaveRoom, Room: "Den"})

	if h.rooms.Count() != 0 {
		t.Fatalf("expected no rooms, got %d", h.rooms.Count())
	}
	if _, ok := h.history.Backlog("Den"); ok {
		t.Fatal("history should be gone")
	}
	if _, ok := h.groups["Den"]; ok {
		t.Fatal("broadcast group should be closed")
	}
	a, ok := h.people.Get("a")
	if !ok || a.OwnedRoomID != "" || a.CurrentRoomID != "" {
		t.Fatalf("owner after leave: %+v %v", a, ok)
	}
	b, _ := h.people.Get("b")
	if b.CurrentRoomID != "" {
		t.Fatalf("bob still in %q", b.CurrentRoomID)
	}
	if alice.Room != "" || bob.Room != "" {
		t.Fatalf("cached rooms = %q/%q", alice.Room, bob.Room)
	}

	events := drain(bob)
	want := "The owner (Alice) has left the room. The room is removed and you have been disconnected from it as well."
	if got := notices(events); !slices.Contains(got, want) {
		t.Fatalf("bob missed teardown notice: %v", got)
	}
	if lists := eventsOf(events, EventRoomList); len(lists) != 1 || lists[0].Count != 0 {
		t.Fatalf("unexpected room list: %+v", lists)
	}
	if h.people.Count() != 2 {
		t.Fatalf("leave must not delete people, have %d", h.people.Count())
	}
	checkInvariants(t, h)

	createRoom(t, h, alice, "Lab", CreateRoomOptions{})
	checkInvariants(t, h)
}

func TestHubLeaveNamingAnotherRoom(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	carol := connect(h, "c")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	registerAs(t, h, carol, "Carol")
	createRoom(t, h, alice, "Den", CreateRoomOptions{})
	createRoom(t, h, carol, "Lab", CreateRoomOptions{})
	joinRoom(t, h, bob, "Den")

	// Any active room id triggers the purge; it acts on Bob's own room.
	h.dispatch(bob, &Command{Kind: CommandLeaveRoom, Room: "Lab"})

	den, _ := h.rooms.Get("Den")
	if !slices.Equal(den.Members, []string{"a"}) {
		t.Fatalf("Den members = %v", den.Members)
	}
	lab, _ := h.rooms.Get("Lab")
	if !slices.Equal(lab.Members, []string{"c"}) {
		t.Fatalf("Lab members = %v", lab.Members)
	}
	if b, _ := h.people.Get("b"); b.InRoom() || bob.Room != "" {
		t.Fatalf("bob still placed: %+v cached %q", b, bob.Room)
	}
	checkInvariants(t, h)

	// Unknown room ids are ignored.
	drain(alice)
	h.dispatch(alice, &Command{Kind: CommandLeaveRoom, Room: "Nope"})
	if !h.rooms.Exists("Den") || len(drain(alice)) != 0 {
		t.Fatal("leave for an unknown room should do nothing")
	}
}

func TestHubRoomNamesIgnoreSurroundingSpace(t *testing.T) {
	h := newTestHub()
	alice := connect(h, "a")
	bob := connect(h, "b")
	registerAs(t, h, alice, "Alice")
	registerAs(t, h, bob, "Bob")
	createRoom(t, h, alice, " Den ", CreateRoomOptions{})

	h.dispatch(bob, &Command{Kind: CommandCheckRoomName, RequestID: "c", Room: " Den"})
	if ack := lastAck(t, drain(bob)); !ack.Exists {
		t.Fatal("checkRoomName should match the trimmed name")
	}
	if ack := joinRoom(t, h, bob, "Den "); !ack.Success {
		t.Fatalf("join with padded id failed: %+v", ack)
	}
	if bob.Room != "Den" {
		t.Fatalf("bob subscribed to %q", bob.Room)
	}
	checkInvariants(t, h)
}

func TestHubShutdownClosesPendingClients(t *testing.T) {
	hub := NewHub(HubConfig{}, nil)

	// Queued before Run ever looks at the inbox.
	pending := NewClient("pending", 0)
	if !hub.RegisterClient(pending) {
		t.Fatal("register failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go hub.Run(ctx)

	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case _, open := <-pending.Events:
		if open {
			t.Fatal("unexpected event for pending client")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending client's events were never closed")
	}

	if hub.RegisterClient(NewClient("late", 0)) {
		t.Fatal("register after stop should fail")
	}
}

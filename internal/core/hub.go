package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HubConfig tunes the hub's registries.
type HubConfig struct {
	// DefaultMemberLimit caps private rooms created without an explicit limit.
	DefaultMemberLimit int
	// HistorySize is the per-room backlog length.
	HistorySize int
	// Suggest draws the numeric suffix for proposed names. Nil means random.
	Suggest func() int
}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub is the connection-facing gateway. Every command is handled to
// completion on the goroutine running Run, so the registries need no locks.
type Hub struct {
	people  *PersonRepository
	rooms   *RoomRepository
	history *HistoryStore
	purge   *Coordinator

	clients map[string]*Client
	groups  map[string]*group

	inbox chan envelope
	done  chan struct{}
	log   *zerolog.Logger

	// mu guards stopped so no connect envelope lands after the final drain.
	mu       sync.Mutex
	stopped  bool
	stopping chan struct{}
}

// NewHub creates a hub with empty registries.
func NewHub(cfg HubConfig, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	people := NewPersonRepository(cfg.Suggest)
	history := NewHistoryStore(cfg.HistorySize)
	rooms := NewRoomRepository(people, history, cfg.DefaultMemberLimit)

	h := &Hub{
		people:   people,
		rooms:    rooms,
		history:  history,
		clients:  make(map[string]*Client),
		groups:   make(map[string]*group),
		inbox:    make(chan envelope, 64),
		done:     make(chan struct{}),
		log:      logger,
		stopping: make(chan struct{}),
	}
	h.purge = NewCoordinator(people, rooms, h, logger)
	return h
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case env := <-h.inbox:
			h.dispatch(env.client, env.cmd)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// shutdown refuses new clients and closes the event stream of every client
// the hub knows about, including ones whose connect is still queued.
func (h *Hub) shutdown() {
	close(h.stopping)
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	pending := 0
drain:
	for {
		select {
		case env := <-h.inbox:
			if env.cmd.Kind == commandConnect {
				close(env.client.Events)
				pending++
			}
		default:
			break drain
		}
	}

	h.log.Info().Int("clients", len(h.clients)).Int("pending", pending).Msg("hub stopping")
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
}

// RegisterClient attaches a connection to the hub and starts forwarding
// its commands. It returns false if the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	select {
	case h.inbox <- envelope{client: c, cmd: &Command{Kind: commandConnect}}:
	case <-h.stopping:
		return false
	}
	go h.pump(c)
	return true
}

// UnregisterClient queues a disconnect behind any pending commands of c.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case c.Commands <- &Command{Kind: CommandDisconnect}:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-h.done:
				return
			}
			if cmd.Kind == CommandDisconnect {
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	if cmd.Kind != commandConnect {
		if _, live := h.clients[c.ID]; !live {
			h.log.Debug().Str("session_id", c.ID).Stringer("command", cmd.Kind).Msg("command from detached client dropped")
			return
		}
	}

	switch cmd.Kind {
	case commandConnect:
		h.handleConnect(c)
	case CommandRegister:
		h.handleRegister(c, cmd)
	case CommandListPeople:
		h.handleListPeople(c, cmd)
	case CommandListRooms:
		h.handleListRooms(c, cmd)
	case CommandCreateRoom:
		h.handleCreateRoom(c, cmd)
	case CommandCheckRoomName:
		h.handleCheckRoomName(c, cmd)
	case CommandRemoveRoom:
		h.handleRemoveRoom(c, cmd)
	case CommandJoinRoom:
		h.handleJoinRoom(c, cmd)
	case CommandLeaveRoom:
		h.handleLeaveRoom(c, cmd)
	case CommandSend:
		h.handleSend(c, cmd)
	case CommandDisconnect:
		h.handleDisconnect(c)
	default:
		h.reject(c, cmd, coreError(KindValidation, ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) handleConnect(c *Client) {
	h.clients[c.ID] = c
	h.log.Debug().Str("session_id", c.ID).Int("clients", len(h.clients)).Msg("client connected")
}

func (h *Hub) handleDisconnect(c *Client) {
	if h.people.Exists(c.ID) {
		h.purge.Purge(c.ID, TriggerDisconnect)
	}
	for id, g := range h.groups {
		if g.remove(c) && g.empty() {
			delete(h.groups, id)
		}
	}
	delete(h.clients, c.ID)
	close(c.Events)
	h.log.Debug().Str("session_id", c.ID).Int("clients", len(h.clients)).Msg("client disconnected")
}

func (h *Hub) handleRegister(c *Client, cmd *Command) {
	person, err := h.people.Register(c.ID, cmd.Name, cmd.Device)
	if err != nil {
		var taken *NameTakenError
		if errors.As(err, &taken) {
			c.deliver(&Event{Kind: EventNameConflict, Text: taken.Error(), ProposedName: taken.Proposed})
			h.ack(c, cmd, &Ack{Message: "You are already on the server.", Code: ErrCodeNameTaken, Name: cmd.Name, Device: cmd.Device})
			return
		}
		h.reject(c, cmd, err)
		return
	}

	h.log.Info().Str("session_id", c.ID).Str("name", person.Name).Msg("person registered")

	c.deliver(noticeEvent("You have connected to the server."))
	h.NotifyAll(noticeEvent(person.Name + " is online."))
	h.NotifyAll(rosterEvent(h.people))
	c.deliver(roomListEvent(h.rooms))

	h.ack(c, cmd, &Ack{
		Success: true,
		Message: "You have Joined the Server",
		Name:    person.Name,
		Device:  person.Device,
	})
}

func (h *Hub) handleListPeople(c *Client, cmd *Command) {
	if cmd.RequestID == "" {
		c.deliver(rosterEvent(h.people))
		return
	}
	h.ack(c, cmd, &Ack{Success: true, People: h.people.Snapshot(), Count: h.people.Count()})
}

func (h *Hub) handleListRooms(c *Client, cmd *Command) {
	if cmd.RequestID == "" {
		c.deliver(roomListEvent(h.rooms))
		return
	}
	h.ack(c, cmd, &Ack{Success: true, Rooms: h.rooms.Snapshot(), Count: h.rooms.Count()})
}

func (h *Hub) handleCreateRoom(c *Client, cmd *Command) {
	room, err := h.rooms.Create(cmd.Room, c.ID, CreateRoomOptions{Private: cmd.Private, MemberLimit: cmd.Limit})
	if err != nil {
		h.reject(c, cmd, err)
		return
	}

	h.subscribe(room.ID, c, RoleHost)
	h.log.Info().Str("session_id", c.ID).Str("room", room.ID).Bool("private", room.Private).Msg("room created")

	h.NotifyAll(roomListEvent(h.rooms))
	c.deliver(noticeEvent("Welcome to " + room.Name + "."))
	c.deliver(&Event{Kind: EventRoomID, Room: room.ID})
	h.ack(c, cmd, &Ack{Success: true, Message: "Welcome to " + room.Name})
}

func (h *Hub) handleCheckRoomName(c *Client, cmd *Command) {
	h.ack(c, cmd, &Ack{Success: true, Exists: h.rooms.Exists(cmd.Room)})
}

func (h *Hub) handleRemoveRoom(c *Client, cmd *Command) {
	if err := h.rooms.CheckRemoval(cmd.Room, c.ID); err != nil {
		h.log.Debug().Err(err).Str("session_id", c.ID).Str("room", cmd.Room).Msg("remove room rejected")
		c.deliver(noticeEvent(err.Error()))
		return
	}
	h.purge.Purge(c.ID, TriggerRemoveRoom)
}

func (h *Hub) handleJoinRoom(c *Client, cmd *Command) {
	room, err := h.rooms.Join(cmd.Room, c.ID, cmd.UserID, cmd.UserMode)
	if err != nil {
		h.reject(c, cmd, err)
		return
	}
	person, _ := h.people.Get(c.ID)
	h.subscribe(room.ID, c, person.Role)

	h.log.Info().Str("session_id", c.ID).Str("room", room.ID).Int("members", len(room.Members)).Msg("room joined")

	connected := person.Name + " has connected to " + room.Name + " room."
	h.NotifyRoom(room.ID, noticeEvent(connected))
	h.NotifyRoom(room.ID, &Event{
		Kind:   EventRoomJoined,
		Room:   room.ID,
		Joined: &JoinedInfo{RoomID: room.ID, UserID: cmd.UserID, UserMode: cmd.UserMode},
	})
	c.deliver(noticeEvent("Welcome to " + room.Name + "."))
	c.deliver(&Event{Kind: EventRoomID, Room: room.ID})
	if backlog, ok := h.history.Backlog(room.ID); ok {
		c.deliver(&Event{Kind: EventHistory, Room: room.ID, History: backlog})
	}
	h.ack(c, cmd, &Ack{Success: true, Message: connected})
}

// handleLeaveRoom purges the caller whenever cmd.Room names an active room.
// The purge acts on the room the person is actually in, which may differ.
func (h *Hub) handleLeaveRoom(c *Client, cmd *Command) {
	if _, ok := h.rooms.Get(cmd.Room); !ok {
		h.log.Debug().Str("session_id", c.ID).Str("room", cmd.Room).Msg("leave for unknown room")
		return
	}
	h.purge.Purge(c.ID, TriggerLeaveRoom)
}

func (h *Hub) handleSend(c *Client, cmd *Command) {
	person, registered := h.people.Get(c.ID)
	g, ok := h.groups[c.Room]
	if !registered || !ok || !g.has(c) {
		c.deliver(noticeEvent("Unable to Share Data"))
		return
	}

	msg := Message{Room: c.Room, From: person, Text: cmd.Text, CreatedAt: time.Now()}
	g.broadcast(&Event{Kind: EventRoomData, Room: c.Room, Message: msg})
	h.history.Append(c.Room, msg.Line())
}

func (h *Hub) subscribe(roomID string, c *Client, role Role) {
	g, ok := h.groups[roomID]
	if !ok {
		g = newGroup(roomID)
		h.groups[roomID] = g
	}
	g.add(c)
	c.Room = roomID
	c.Role = role
}

// reject answers a failed command with a notice and, if requested, a failed ack.
func (h *Hub) reject(c *Client, cmd *Command, err error) {
	ce, ok := AsCoreError(err)
	if !ok {
		ce = coreError(KindValidation, ErrCodeBadRequest, err.Error())
	}
	h.log.Debug().Str("session_id", c.ID).Stringer("command", cmd.Kind).Str("code", ce.Code).Msg("command rejected")

	c.deliver(noticeEvent(ce.Message))
	if cmd.RequestID == "" {
		c.deliver(&Event{Kind: EventError, Error: ce})
		return
	}
	h.ack(c, cmd, &Ack{Code: ce.Code, Message: ce.Message})
}

func (h *Hub) ack(c *Client, cmd *Command, ack *Ack) {
	if cmd.RequestID == "" {
		return
	}
	ack.Kind = cmd.Kind
	c.deliver(&Event{Kind: EventAck, RequestID: cmd.RequestID, Ack: ack})
}

// NotifyAll sends event to every connection.
func (h *Hub) NotifyAll(event *Event) {
	for _, c := range h.clients {
		c.deliver(event)
	}
}

// NotifyRoom sends event to every connection subscribed to roomID.
func (h *Hub) NotifyRoom(roomID string, event *Event) {
	if g, ok := h.groups[roomID]; ok {
		g.broadcast(event)
	}
}

// NotifySession sends event to a single connection.
func (h *Hub) NotifySession(sessionID string, event *Event) {
	if c, ok := h.clients[sessionID]; ok {
		c.deliver(event)
	}
}

// Unsubscribe removes sessionID from the room's group if it is subscribed.
func (h *Hub) Unsubscribe(roomID, sessionID string) {
	c, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if g, ok := h.groups[roomID]; ok && g.has(c) {
		g.remove(c)
	}
	if c.Room == roomID {
		c.Room = ""
		c.Role = ""
	}
}

// CloseGroup drops the broadcast group of roomID.
func (h *Hub) CloseGroup(roomID string) {
	g, ok := h.groups[roomID]
	if !ok {
		return
	}
	for c := range g.clients {
		if c.Room == roomID {
			c.Room = ""
			c.Role = ""
		}
	}
	delete(h.groups, roomID)
}

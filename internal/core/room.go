package core

import (
	"slices"
	"strings"
)

// Room is a named, owned collection of members. Its ID is its name.
type Room struct {
	ID          string
	Name        string
	OwnerID     string
	Members     []string
	Private     bool
	MemberLimit int
}

// HasMember reports whether sessionID is in the member list.
func (r *Room) HasMember(sessionID string) bool {
	return slices.Contains(r.Members, sessionID)
}

// Full reports whether a private room has reached its member limit.
func (r *Room) Full() bool {
	return r.Private && len(r.Members) >= r.MemberLimit
}

func (r *Room) clone() Room {
	cp := *r
	cp.Members = slices.Clone(r.Members)
	return cp
}

// CreateRoomOptions controls privacy of a new room.
type CreateRoomOptions struct {
	Private     bool
	MemberLimit int
}

// RoomRepository owns active rooms, their membership and their backlogs.
// Like PersonRepository it is only touched from the hub loop.
type RoomRepository struct {
	rooms        map[string]*Room
	people       *PersonRepository
	history      *HistoryStore
	defaultLimit int
}

// NewRoomRepository builds an empty room registry over the given people and history stores.
func NewRoomRepository(people *PersonRepository, history *HistoryStore, defaultLimit int) *RoomRepository {
	if defaultLimit <= 0 {
		defaultLimit = 2
	}
	return &RoomRepository{
		rooms:        make(map[string]*Room),
		people:       people,
		history:      history,
		defaultLimit: defaultLimit,
	}
}

// Create opens a room named name with ownerID as host and sole member.
func (r *RoomRepository) Create(name, ownerID string, opts CreateRoomOptions) (Room, error) {
	owner, ok := r.people.Get(ownerID)
	if !ok {
		return Room{}, coreError(KindNotFound, ErrCodePersonNotFound, "Unable to Create Room")
	}
	name = roomKey(name)
	if name == "" {
		return Room{}, coreError(KindValidation, ErrCodeBadRequest, "A room name is required.")
	}
	if owner.InRoom() {
		return Room{}, coreError(KindConflict, ErrCodeAlreadyInRoom,
			"You are in a room. Please leave it first to create your own.")
	}
	if owner.OwnedRoomID != "" {
		return Room{}, coreError(KindConflict, ErrCodeAlreadyOwnsRoom, "You have already created a room.")
	}
	if r.Exists(name) {
		return Room{}, coreError(KindConflict, ErrCodeRoomExists, "A room named "+name+" already exists.")
	}

	limit := opts.MemberLimit
	if opts.Private && limit <= 0 {
		limit = r.defaultLimit
	}
	room := &Room{
		ID:          name,
		Name:        name,
		OwnerID:     ownerID,
		Members:     []string{ownerID},
		Private:     opts.Private,
		MemberLimit: limit,
	}
	r.rooms[room.ID] = room
	r.people.claimRoom(ownerID, room.ID)
	r.history.Init(room.ID)
	return room.clone(), nil
}

// Exists reports whether a room with this name is active. Surrounding
// whitespace is ignored; case is not.
func (r *RoomRepository) Exists(name string) bool {
	name = roomKey(name)
	for _, room := range r.rooms {
		if room.Name == name {
			return true
		}
	}
	return false
}

// Get returns a copy of the room with the given id.
func (r *RoomRepository) Get(roomID string) (Room, bool) {
	room, ok := r.rooms[roomKey(roomID)]
	if !ok {
		return Room{}, false
	}
	return room.clone(), true
}

// Count returns the number of active rooms.
func (r *RoomRepository) Count() int {
	return len(r.rooms)
}

// Snapshot returns detached copies of all active rooms keyed by id.
func (r *RoomRepository) Snapshot() map[string]Room {
	out := make(map[string]Room, len(r.rooms))
	for id, room := range r.rooms {
		out[id] = room.clone()
	}
	return out
}

// Join adds sessionID to roomID. Checks run in a fixed order and the first
// failure is returned.
func (r *RoomRepository) Join(roomID, sessionID, userID, userMode string) (Room, error) {
	person, ok := r.people.Get(sessionID)
	if !ok {
		return Room{}, coreError(KindNotFound, ErrCodePersonNotFound, "Please enter a valid name first.")
	}
	roomID = roomKey(roomID)
	room, ok := r.rooms[roomID]
	if !ok {
		return Room{}, coreError(KindNotFound, ErrCodeRoomNotFound, "Invitation Code is no longer valid.")
	}
	if room.OwnerID == "" {
		return Room{}, coreError(KindNotFound, ErrCodeRoomNotFound, "Invalid Attempt to Connect")
	}
	if room.Full() {
		return Room{}, coreError(KindConflict, ErrCodeRoomFull, "To Many People Connected")
	}
	if room.OwnerID == sessionID {
		return Room{}, coreError(KindConflict, ErrCodeAlreadyOwner,
			"You are the owner of this room and you have already been joined.")
	}
	if room.HasMember(sessionID) {
		return Room{}, coreError(KindConflict, ErrCodeAlreadyMember, "You have already joined this room.")
	}
	if person.InRoom() && person.CurrentRoomID != roomID {
		current := person.CurrentRoomID
		if other, ok := r.rooms[current]; ok {
			current = other.Name
		}
		return Room{}, coreError(KindConflict, ErrCodeInAnotherRoom,
			"You are already in a room ("+current+"), please leave it first to join another room.")
	}

	role := Role(userMode)
	if role == "" {
		role = RoleGuest
	}
	room.Members = append(room.Members, sessionID)
	r.people.enterRoom(sessionID, roomID, userID, role)
	return room.clone(), nil
}

// CheckRemoval reports whether requesterID may remove roomID.
func (r *RoomRepository) CheckRemoval(roomID, requesterID string) error {
	roomID = roomKey(roomID)
	room, ok := r.rooms[roomID]
	if !ok {
		return coreError(KindNotFound, ErrCodeRoomNotFound, "Room "+roomID+" does not exist.")
	}
	if room.OwnerID != requesterID {
		return coreError(KindAuthorization, ErrCodeNotOwner, "Only the owner can remove a room.")
	}
	return nil
}

// roomKey normalizes a client-supplied room name or id. Names are stored
// trimmed, so every lookup goes through here.
func roomKey(name string) string {
	return strings.TrimSpace(name)
}

// removeMember drops sessionID from the member list if present.
func (r *RoomRepository) removeMember(roomID, sessionID string) bool {
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	i := slices.Index(room.Members, sessionID)
	if i < 0 {
		return false
	}
	room.Members = slices.Delete(room.Members, i, i+1)
	return true
}

// drop removes the room and its backlog.
func (r *RoomRepository) drop(roomID string) {
	delete(r.rooms, roomID)
	r.history.Drop(roomID)
}

package core

import (
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Role is the position a person holds inside their current room.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// suggestionRange bounds the numeric suffix appended to a taken name.
const suggestionRange = 1001

// suggestionAttempts caps random draws before falling back to a sequential scan.
const suggestionAttempts = 4 * suggestionRange

// Person is a registered, connected participant.
type Person struct {
	SessionID     string
	Name          string
	Device        json.RawMessage
	OwnedRoomID   string
	CurrentRoomID string
	Role          Role
	UserID        string
}

// InRoom reports whether the person is currently a member of a room.
func (p Person) InRoom() bool { return p.CurrentRoomID != "" }

// Owns reports whether the person owns roomID.
func (p Person) Owns(roomID string) bool { return roomID != "" && p.OwnedRoomID == roomID }

// NameTakenError is returned by Register when the name is already in use.
// Proposed is a free alternative the caller may retry with.
type NameTakenError struct {
	Name     string
	Proposed string
}

func (e *NameTakenError) Error() string {
	return "The username already exists, please pick another one."
}

func (e *NameTakenError) Unwrap() error {
	return coreError(KindConflict, ErrCodeNameTaken, e.Error())
}

// PersonRepository owns the registry of connected people.
// It is not safe for concurrent use; the hub loop is its only caller.
type PersonRepository struct {
	people  map[string]*Person
	suggest func() int
}

// NewPersonRepository creates an empty registry. suggest draws the numeric
// suffix for proposed names; nil uses a uniform draw in [0, 1000].
func NewPersonRepository(suggest func() int) *PersonRepository {
	if suggest == nil {
		suggest = func() int { return rand.IntN(suggestionRange) }
	}
	return &PersonRepository{
		people:  make(map[string]*Person),
		suggest: suggest,
	}
}

// Register inserts a new person for sessionID.
func (r *PersonRepository) Register(sessionID, name string, device json.RawMessage) (Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}, coreError(KindValidation, ErrCodeBadRequest, "A name is required.")
	}
	if _, ok := r.people[sessionID]; ok {
		return Person{}, coreError(KindConflict, ErrCodeAlreadyRegistered, "You are already on the server.")
	}
	if r.nameTaken(name) {
		return Person{}, &NameTakenError{Name: name, Proposed: r.proposeName(name)}
	}

	p := &Person{SessionID: sessionID, Name: name, Device: device}
	r.people[sessionID] = p
	return *p, nil
}

// Get returns a copy of the person registered under sessionID.
func (r *PersonRepository) Get(sessionID string) (Person, bool) {
	p, ok := r.people[sessionID]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// Exists reports whether sessionID is registered.
func (r *PersonRepository) Exists(sessionID string) bool {
	_, ok := r.people[sessionID]
	return ok
}

// Count returns the number of registered people.
func (r *PersonRepository) Count() int {
	return len(r.people)
}

// Snapshot returns a detached copy of the registry keyed by session id.
func (r *PersonRepository) Snapshot() map[string]Person {
	out := make(map[string]Person, len(r.people))
	for id, p := range r.people {
		out[id] = *p
	}
	return out
}

// Remove deletes the person record. Returns true if it existed.
func (r *PersonRepository) Remove(sessionID string) bool {
	if _, ok := r.people[sessionID]; !ok {
		return false
	}
	delete(r.people, sessionID)
	return true
}

func (r *PersonRepository) claimRoom(sessionID, roomID string) {
	if p, ok := r.people[sessionID]; ok {
		p.OwnedRoomID = roomID
		p.CurrentRoomID = roomID
		p.Role = RoleHost
	}
}

func (r *PersonRepository) enterRoom(sessionID, roomID, userID string, role Role) {
	if p, ok := r.people[sessionID]; ok {
		p.CurrentRoomID = roomID
		p.UserID = userID
		p.Role = role
	}
}

// leaveRoom clears the current room only; ownership is untouched.
func (r *PersonRepository) leaveRoom(sessionID string) {
	if p, ok := r.people[sessionID]; ok {
		p.CurrentRoomID = ""
		p.Role = ""
	}
}

func (r *PersonRepository) releaseRoom(sessionID string) {
	if p, ok := r.people[sessionID]; ok {
		p.OwnedRoomID = ""
		p.CurrentRoomID = ""
		p.Role = ""
	}
}

func (r *PersonRepository) nameTaken(name string) bool {
	for _, p := range r.people {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *PersonRepository) proposeName(name string) string {
	for range suggestionAttempts {
		candidate := name + strconv.Itoa(r.suggest())
		if !r.nameTaken(candidate) {
			return candidate
		}
	}
	for n := suggestionRange; ; n++ {
		candidate := name + strconv.Itoa(n)
		if !r.nameTaken(candidate) {
			return candidate
		}
	}
}

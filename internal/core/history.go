package core

import "slices"

// HistoryCapacity is the number of chat lines kept per room.
const HistoryCapacity = 10

// HistoryStore keeps a bounded backlog of formatted chat lines per room.
type HistoryStore struct {
	logs     map[string][]string
	capacity int
}

// NewHistoryStore creates a store that keeps at most capacity lines per room.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &HistoryStore{
		logs:     make(map[string][]string),
		capacity: capacity,
	}
}

// Init creates an empty backlog for roomID, replacing any previous one.
func (s *HistoryStore) Init(roomID string) {
	s.logs[roomID] = make([]string, 0, s.capacity)
}

// Append adds a line, evicting the oldest once the backlog is full.
// Returns false if roomID has no backlog.
func (s *HistoryStore) Append(roomID, line string) bool {
	log, ok := s.logs[roomID]
	if !ok {
		return false
	}
	if over := len(log) - s.capacity + 1; over > 0 {
		log = slices.Delete(log, 0, over)
	}
	s.logs[roomID] = append(log, line)
	return true
}

// Backlog returns a copy of the lines for roomID, oldest first.
func (s *HistoryStore) Backlog(roomID string) ([]string, bool) {
	log, ok := s.logs[roomID]
	if !ok {
		return nil, false
	}
	return slices.Clone(log), true
}

// Drop deletes the backlog for roomID.
func (s *HistoryStore) Drop(roomID string) {
	delete(s.logs, roomID)
}

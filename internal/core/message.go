package core

import "time"

// Message is a chat line relayed to a room.
type Message struct {
	Room      string
	From      Person
	Text      string
	CreatedAt time.Time
}

// Line formats the message the way the backlog stores it.
func (m Message) Line() string {
	return m.From.Name + ": " + m.Text
}

package core

// DefaultClientBuffer is the event queue depth used when none is configured.
const DefaultClientBuffer = 64

// Client is one live connection as seen by the core layer. Room and Role
// cache the person's placement and are only touched by the hub loop.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	Room string
	Role Role
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
	}
}

// deliver queues an event without blocking. Slow consumers lose events.
func (c *Client) deliver(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}

package core

// group is the live broadcast channel backing a room. Membership here is
// the subscription that chat delivery is checked against.
type group struct {
	name    string
	clients map[*Client]struct{}
}

func newGroup(name string) *group {
	return &group{
		name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client into the group. Returns true if newly added.
func (g *group) add(c *Client) bool {
	if _, exists := g.clients[c]; exists {
		return false
	}
	g.clients[c] = struct{}{}
	return true
}

// remove deletes a client from the group. Returns true if removed.
func (g *group) remove(c *Client) bool {
	if _, exists := g.clients[c]; !exists {
		return false
	}
	delete(g.clients, c)
	return true
}

func (g *group) has(c *Client) bool {
	_, ok := g.clients[c]
	return ok
}

// broadcast sends an event to all clients in the group.
func (g *group) broadcast(event *Event) {
	for client := range g.clients {
		client.deliver(event)
	}
}

func (g *group) empty() bool {
	return len(g.clients) == 0
}

package core

import "sync"

// Registry tracks live clients grouped by room. Purely in-memory; rooms
// and clients are correlated with stored state only by room id. Unlike
// the stores it is mutated from many connection goroutines, so access is
// guarded by a mutex.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Add registers the client under its room.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.Room]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[c.Room] = room
	}
	room[c] = struct{}{}
	setRoomsGauge(len(r.rooms))
}

// Remove deregisters the client; empty rooms are dropped.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.Room]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(r.rooms, c.Room)
	}
	setRoomsGauge(len(r.rooms))
}

// Clients returns a snapshot of the room's members.
func (r *Registry) Clients(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

// Names returns the display names of the room's members.
func (r *Registry) Names(roomID string) []string {
	clients := r.Clients(roomID)
	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.Name)
	}
	return names
}

// Count returns the room's population.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Broadcast queues an event to every client in the room. Slow consumers
// drop the event rather than blocking the caller.
func (r *Registry) Broadcast(roomID string, event any) {
	delivered := 0
	for _, c := range r.Clients(roomID) {
		if c.Send(event) {
			delivered++
		}
	}
	addDelivered(delivered)
}

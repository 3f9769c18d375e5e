package core

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// User is a registered identity attached to a connection. Informational only.
type User struct {
	ID   string
	Name string
}

// RoomInfo is the discovery view of a room.
type RoomInfo struct {
	ID   string
	Name string
}

// Room is a named stream with one publisher and a set of listeners.
type Room struct {
	ID               string
	Name             string
	CallID           string
	CLI              string
	DNI              string
	MediaFormat      json.RawMessage
	CustomParameters json.RawMessage
	Publisher        *Client
	CreatedAt        time.Time

	listeners map[*Client]struct{}
}

// HasListener reports whether c is subscribed to the room.
func (r *Room) HasListener(c *Client) bool {
	_, ok := r.listeners[c]
	return ok
}

// ListenerCount returns the number of subscribed connections.
func (r *Room) ListenerCount() int {
	return len(r.listeners)
}

// Info returns the discovery view of the room.
func (r *Room) Info() RoomInfo {
	return RoomInfo{ID: r.ID, Name: r.Name}
}

// Registry is the in-memory map of rooms and registered users.
// It is not safe for concurrent use; the Hub goroutine owns it.
type Registry struct {
	rooms map[string]*Room
	users map[*Client]User
	now   func() time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		users: make(map[*Client]User),
		now:   time.Now,
	}
}

// CreateRoom creates the room or replaces an existing one with the same id.
// The publisher is subscribed to its own room.
func (r *Registry) CreateRoom(id string, meta RoomMeta, publisher *Client) *Room {
	name := meta.Name
	if name == "" {
		name = id
	}
	room := &Room{
		ID:               id,
		Name:             name,
		CallID:           meta.CallID,
		CLI:              meta.CLI,
		DNI:              meta.DNI,
		MediaFormat:      meta.MediaFormat,
		CustomParameters: meta.CustomParameters,
		Publisher:        publisher,
		CreatedAt:        r.now(),
		listeners:        make(map[*Client]struct{}),
	}
	if publisher != nil {
		room.listeners[publisher] = struct{}{}
	}
	r.rooms[id] = room
	return room
}

// Room returns the room with the given id.
func (r *Registry) Room(id string) (*Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// DeleteRoom removes a room. It returns true if the room existed.
func (r *Registry) DeleteRoom(id string) bool {
	if _, ok := r.rooms[id]; !ok {
		return false
	}
	delete(r.rooms, id)
	return true
}

// AddListener subscribes c to the room. No-op if the room is absent.
func (r *Registry) AddListener(id string, c *Client) {
	if room, ok := r.rooms[id]; ok {
		room.listeners[c] = struct{}{}
	}
}

// RemoveListener unsubscribes c from the room. No-op if the room is absent.
func (r *Registry) RemoveListener(id string, c *Client) {
	if room, ok := r.rooms[id]; ok {
		delete(room.listeners, c)
	}
}

// ListRooms returns a snapshot of all rooms ordered by id.
func (r *Registry) ListRooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(r.rooms))
	for _, id := range slices.Sorted(maps.Keys(r.rooms)) {
		out = append(out, r.rooms[id].Info())
	}
	return out
}

// RoomsContainingListener returns the ids of every room c is subscribed to, ordered by id.
func (r *Registry) RoomsContainingListener(c *Client) []string {
	var ids []string
	for id, room := range r.rooms {
		if room.HasListener(c) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// RoomsPublishedBy returns the ids of every room whose publisher is c, ordered by id.
func (r *Registry) RoomsPublishedBy(c *Client) []string {
	var ids []string
	for id, room := range r.rooms {
		if room.Publisher == c {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ForEachRoom calls fn for every room. The key set is captured first, so fn may delete rooms.
func (r *Registry) ForEachRoom(fn func(*Room)) {
	for _, id := range slices.Collect(maps.Keys(r.rooms)) {
		if room, ok := r.rooms[id]; ok {
			fn(room)
		}
	}
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// RegisterUser stores or replaces the user bound to c.
func (r *Registry) RegisterUser(c *Client, u User) {
	r.users[c] = u
}

// User returns the user bound to c.
func (r *Registry) User(c *Client) (User, bool) {
	u, ok := r.users[c]
	return u, ok
}

// RemoveUser drops the user bound to c.
func (r *Registry) RemoveUser(c *Client) {
	delete(r.users, c)
}

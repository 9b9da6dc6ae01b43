package realtime

import (
	"sync"
	"time"
)

// Room holds one piece of per-session state and the broadcaster its SSE
// clients listen on.
type Room[T any] struct {
	ID       string
	State    T
	hub      *Broadcaster
	lastSeen time.Time
}

// RoomStore manages rooms keyed by ID.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T]
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
	}
}

// Create adds a room with the given id and state, replacing any previous room
// with the same id.
func (s *RoomStore[T]) Create(id string, state T, now time.Time) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.rooms[id]; ok {
		old.hub.Close()
	}
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(), lastSeen: now}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Touch marks the room as used at now so Sweep keeps it.
func (s *RoomStore[T]) Touch(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.lastSeen = now
	}
}

// Delete removes a room and disconnects its subscribers.
func (s *RoomStore[T]) Delete(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.rooms, id)
	r.hub.Close()
	return r.State, true
}

// Sweep removes rooms idle since before cutoff that have no live subscribers
// and returns their states so the caller can release them.
func (s *RoomStore[T]) Sweep(cutoff time.Time) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []T
	for id, r := range s.rooms {
		if r.lastSeen.After(cutoff) || r.hub.Len() > 0 {
			continue
		}
		delete(s.rooms, id)
		r.hub.Close()
		evicted = append(evicted, r.State)
	}
	return evicted
}

// Drain removes every room, disconnecting all subscribers, and returns the
// removed states.
func (s *RoomStore[T]) Drain() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.rooms))
	for id, r := range s.rooms {
		delete(s.rooms, id)
		r.hub.Close()
		out = append(out, r.State)
	}
	return out
}

// Len reports the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are
// ignored.
func (s *RoomStore[T]) Publish(id string, event string) {
	if hub, ok := s.Broadcaster(id); ok {
		hub.Publish(event)
	}
}

// Broadcaster returns the broadcaster for the room.
func (s *RoomStore[T]) Broadcaster(id string) (*Broadcaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	return r.hub, true
}

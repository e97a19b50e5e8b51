// Package runtime owns the live chat state: rooms, their registry and the
// enrichment pipeline. It orchestrates storage, transport handles and the
// notification queue without containing wire-level logic.
package runtime

import (
	"chat-relay/domain"
	"log/slog"
	"sync"
)

// Registry keeps at most one live Room per room key. It is the only
// structure shared across all rooms and every mutation happens under one
// mutex, so get-or-create is linearizable per key: concurrent callers for
// the same key can never construct two competing rooms.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	deps  RoomDeps
	log   *slog.Logger
}

func NewRegistry(deps RoomDeps, log *slog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		deps:  deps,
		log:   log,
	}
}

// GetOrCreate returns the live room for a key, constructing and registering
// it first when absent. The check and the insert form one atomic section.
func (g *Registry) GetOrCreate(key string, kind domain.RoomKind, validation *domain.DirectValidation) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[key]; ok {
		return room
	}
	room := NewRoom(key, kind, validation, g.deps)
	g.rooms[key] = room
	return room
}

// Release garbage-collects a room after a member left. The emptiness check
// runs under the registry mutex, so a join racing in through GetOrCreate
// either happens before (the room is not empty, nothing is removed) or after
// (it finds no entry and constructs a fresh room).
func (g *Registry) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[key]
	if !ok {
		return
	}
	if !room.IsEmpty() {
		return
	}
	delete(g.rooms, key)
	room.Destroy()
	g.log.Debug("Room released", "room", key)
}

// Len reports the number of live rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/session"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrConnectionNotFound = errors.New("connection not found")
)

// Broadcaster delivers events to connections and rooms.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload any) error
	SendTo(connID, event string, payload any) error
}

// Hub tracks which connections are in which room and writes to them
// through the session registry.
type Hub struct {
	sessions *session.Manager
	rooms    map[string][]string // room id -> connection ids in join order
	mutex    sync.RWMutex
}

func NewHub(sessions *session.Manager) *Hub {
	return &Hub{
		sessions: sessions,
		rooms:    make(map[string][]string),
	}
}

// Join adds connID to the room; joining twice is a no-op.
func (h *Hub) Join(roomID, connID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if slices.Contains(h.rooms[roomID], connID) {
		return
	}
	h.rooms[roomID] = append(h.rooms[roomID], connID)
}

// Detach removes connID from the room. The connection itself stays open.
func (h *Hub) Detach(roomID, connID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	members := slices.DeleteFunc(h.rooms[roomID], func(id string) bool { return id == connID })
	if len(members) == 0 {
		delete(h.rooms, roomID)
		return
	}
	h.rooms[roomID] = members
}

// Members returns a copy of the room's connection ids.
func (h *Hub) Members(roomID string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return slices.Clone(h.rooms[roomID])
}

func (h *Hub) SendTo(connID, event string, payload any) error {
	sess, ok := h.sessions.Get(connID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}
	return sess.Send(event, payload)
}

// BroadcastToRoom encodes once and writes to every member. A failed write
// does not stop delivery to the others.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any) error {
	members := h.Members(roomID)
	if len(members) == 0 {
		return ErrRoomNotFound
	}
	data, err := network.Encode(event, payload)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range members {
		sess, ok := h.sessions.Get(id)
		if !ok {
			continue
		}
		if err := sess.Conn.Send(data); err != nil {
			logger.Log.Debugw("broadcast write failed", "room", roomID, "conn", id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFor returns the engine-facing view of one room.
func (h *Hub) SinkFor(roomID string) game.Sink {
	return &RoomSink{hub: h, roomID: roomID}
}

// RoomSink adapts the hub to a single room.
type RoomSink struct {
	hub    *Hub
	roomID string
}

func (s *RoomSink) Send(connID, event string, payload any) error {
	return s.hub.SendTo(connID, event, payload)
}

// Broadcast treats an empty room as delivered.
func (s *RoomSink) Broadcast(event string, payload any) error {
	err := s.hub.BroadcastToRoom(s.roomID, event, payload)
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	return err
}

func (s *RoomSink) Members() []string {
	return s.hub.Members(s.roomID)
}

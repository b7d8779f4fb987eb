// session/session.go
package session

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/intersplice/network"
)

// Role is what a connection attached to its room as.
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RolePlayer
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RolePlayer:
		return "player"
	}
	return "none"
}

// Session is one transport connection. Its ID is the connection id the
// game engine addresses events to.
type Session struct {
	ID         string
	Conn       network.Connection
	RoomID     string
	Role       Role
	CreatedAt  time.Time
	LastActive time.Time
	limiter    *rate.Limiter
	mutex      sync.RWMutex
}

// NewSession wraps conn. A non-positive limit disables rate limiting.
func NewSession(id string, conn network.Connection, limit rate.Limit, burst int) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
	if limit > 0 {
		s.limiter = rate.NewLimiter(limit, max(1, burst))
	}
	return s
}

// Send encodes one event envelope and writes it to the connection.
func (s *Session) Send(event string, payload any) error {
	data, err := network.Encode(event, payload)
	if err != nil {
		return err
	}
	return s.Conn.Send(data)
}

// Allow reports whether another inbound command fits the rate budget.
func (s *Session) Allow() bool {
	s.Touch()
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

// Bind records the room and role the connection attached as. The first
// binding wins; a connection never moves between rooms.
func (s *Session) Bind(roomID string, role Role) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.RoomID != "" && s.RoomID != roomID {
		return false
	}
	s.RoomID = roomID
	if role != RoleNone {
		s.Role = role
	}
	return true
}

func (s *Session) Room() (string, Role) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID, s.Role
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns every session ordered by id.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetByRoom returns the room's sessions ordered by id.
func (m *Manager) GetByRoom(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if id, _ := session.Room(); id == roomID {
			result = append(result, session)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// room/room.go
package room

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/state"
	"github.com/wfunc/intersplice/timer"
)

const (
	DefaultRoomID   = "default"
	MaxRoomIDLength = 64
	DefaultTick     = 200 * time.Millisecond
	inboxSize       = 256
)

var (
	ErrRoomClosed   = errors.New("room closed")
	ErrTooManyRooms = errors.New("too many rooms")
)

// Options configure every room a Manager creates.
type Options struct {
	Tick       time.Duration
	BoardSize  int
	Settings   *game.Settings
	Clock      timer.Clock
	Metrics    Metrics
	OnGameOver func(game.Result)
	// Seed fixes the room's random source; zero means a random seed.
	Seed uint64
}

// query runs fn inside the room goroutine and signals done.
type query struct {
	fn   func(*game.Game)
	done chan struct{}
}

// Room owns one game and is its only caller. Commands, queries and ticks are
// serialised through a single goroutine, so the game needs no locks.
type Room struct {
	ID          string
	CreatedAt   time.Time
	game        *game.Game
	broadcaster Broadcaster
	metrics     Metrics
	tick        time.Duration
	inbox       chan any
	closeChan   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	log         *zap.SugaredLogger
}

// NewRoom creates a room and starts its loop.
func NewRoom(id string, broadcaster Broadcaster, opts Options) *Room {
	r := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		broadcaster: broadcaster,
		metrics:     opts.Metrics,
		tick:        opts.Tick,
		inbox:       make(chan any, inboxSize),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
		log:         logger.Room(id),
	}
	if r.metrics == nil {
		r.metrics = nopMetrics{}
	}
	if r.tick <= 0 {
		r.tick = DefaultTick
	}

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed>>1|1))
	}
	r.game = game.New(id, broadcaster.SinkFor(id), game.Options{
		Clock:     opts.Clock,
		Rand:      rng,
		Settings:  opts.Settings,
		BoardSize: opts.BoardSize,
		Hooks: game.Hooks{
			OnPhase: func(p state.Phase, round int) {
				r.metrics.PhaseEntered(string(p))
				r.log.Debugw("phase entered", "phase", p, "round", round)
			},
			OnElimination: r.metrics.Eliminated,
			OnGameOver: func(res game.Result) {
				r.metrics.GameOver(res.Reason)
				r.log.Infow("game over", "reason", res.Reason, "round", res.Round, "players", len(res.Standings))
				if opts.OnGameOver != nil {
					opts.OnGameOver(res)
				}
			},
		},
	})

	r.metrics.RoomOpened()
	go r.loop()
	return r
}

// loop is the room's only goroutine that touches the game.
func (r *Room) loop() {
	ticker := time.NewTicker(r.tick)
	defer func() {
		ticker.Stop()
		r.metrics.RoomClosed()
		close(r.done)
	}()

	for {
		select {
		case <-r.closeChan:
			return
		case msg := <-r.inbox:
			r.handle(msg)
		case <-ticker.C:
			start := time.Now()
			r.game.Tick()
			r.metrics.TickObserved(time.Since(start))
		}
	}
}

func (r *Room) handle(msg any) {
	switch m := msg.(type) {
	case Command:
		r.dispatch(m)
	case query:
		m.fn(r.game)
		close(m.done)
	}
}

// Submit queues a command. It blocks only while the inbox is full.
func (r *Room) Submit(cmd Command) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Do runs fn on the room goroutine and waits for it. fn must not call back
// into the room.
func (r *Room) Do(fn func(*game.Game)) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case r.inbox <- q:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case <-q.done:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Summary is the room as listed by the admin surfaces.
type Summary struct {
	ID        string      `json:"id"`
	Phase     state.Phase `json:"phase"`
	Round     int         `json:"round"`
	Players   int         `json:"players"`
	Connected int         `json:"connected"`
	Alive     int         `json:"alive"`
	HasHost   bool        `json:"hasHost"`
	Paused    bool        `json:"paused"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (r *Room) Summary() (Summary, error) {
	s := Summary{ID: r.ID, CreatedAt: r.CreatedAt}
	err := r.Do(func(g *game.Game) {
		s.Phase = g.Phase()
		s.Round = g.Round()
		s.HasHost = g.HostConn() != ""
		s.Paused = g.Paused()
		for _, p := range g.Players() {
			s.Players++
			if p.Connected {
				s.Connected++
			}
			if p.Alive() {
				s.Alive++
			}
		}
	})
	return s, err
}

// Snapshot returns the shared (unfiltered) view of the room.
func (r *Room) Snapshot() (game.Snapshot, error) {
	var snap game.Snapshot
	err := r.Do(func(g *game.Game) { snap = g.Snapshot() })
	return snap, err
}

// Close stops the loop; it is safe to call more than once.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
	<-r.done
}

// NormalizeID trims a client-supplied room id, caps its length and falls
// back to the default room.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultRoomID
	}
	if r := []rune(id); len(r) > MaxRoomIDLength {
		id = string(r[:MaxRoomIDLength])
	}
	return id
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	broadcaster Broadcaster
	opts        Options
	maxRooms    int
}

// NewRoomManager creates a manager. maxRooms <= 0 means unlimited.
func NewRoomManager(broadcaster Broadcaster, opts Options, maxRooms int) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		broadcaster: broadcaster,
		opts:        opts,
		maxRooms:    maxRooms,
	}
}

// GetOrCreate returns the room for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) (*Room, error) {
	id = NormalizeID(id)
	if room, ok := m.GetRoom(id); ok {
		return room, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if room, ok := m.rooms[id]; ok {
		return room, nil
	}
	if m.maxRooms > 0 && len(m.rooms) >= m.maxRooms {
		return nil, ErrTooManyRooms
	}
	room := NewRoom(id, m.broadcaster, m.opts)
	m.rooms[id] = room
	logger.Log.Infow("room created", "room", id)
	return room, nil
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[NormalizeID(id)]
	return room, exists
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	room, exists := m.rooms[NormalizeID(id)]
	delete(m.rooms, NormalizeID(id))
	m.mutex.Unlock()

	if exists {
		room.Close()
	}
}

// Rooms lists every room ordered by id.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Close stops every room.
func (m *Manager) Close() {
	for _, room := range m.Rooms() {
		m.RemoveRoom(room.ID)
	}
}

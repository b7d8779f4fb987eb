package room

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
	"github.com/wfunc/intersplice/timer"
)

// MockSink records events for one room.
type MockSink struct {
	mutex   sync.Mutex
	members []string
	events  []string
}

func (m *MockSink) Send(connID, event string, payload any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, connID+" "+event)
	return nil
}

func (m *MockSink) Broadcast(event string, payload any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, "* "+event)
	return nil
}

func (m *MockSink) Members() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.members...)
}

func (m *MockSink) has(entry string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, e := range m.events {
		if e == entry {
			return true
		}
	}
	return false
}

// MockBroadcaster hands every room the same sink and records detaches.
type MockBroadcaster struct {
	sink     *MockSink
	detached []string
	mutex    sync.Mutex
}

func (m *MockBroadcaster) SinkFor(roomID string) game.Sink { return m.sink }

func (m *MockBroadcaster) Detach(roomID, connID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.detached = append(m.detached, connID)
}

// MockMetrics counts what rooms report.
type MockMetrics struct {
	mutex    sync.Mutex
	opened   int
	closed   int
	commands map[string]int
	phases   map[string]int
	overs    []string
}

func newMockMetrics() *MockMetrics {
	return &MockMetrics{commands: map[string]int{}, phases: map[string]int{}}
}

func (m *MockMetrics) TickObserved(time.Duration) {}
func (m *MockMetrics) Eliminated(string)          {}

func (m *MockMetrics) RoomOpened() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.opened++
}

func (m *MockMetrics) RoomClosed() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed++
}

func (m *MockMetrics) CommandHandled(kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.commands[kind]++
}

func (m *MockMetrics) PhaseEntered(phase string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.phases[phase]++
}

func (m *MockMetrics) GameOver(reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.overs = append(m.overs, reason)
}

type harness struct {
	room    *Room
	sink    *MockSink
	bc      *MockBroadcaster
	metrics *MockMetrics
	clock   *timer.ManualClock
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		sink:    &MockSink{members: []string{"host", "p1", "p2"}},
		metrics: newMockMetrics(),
		clock:   timer.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	h.bc = &MockBroadcaster{sink: h.sink}
	opts.Tick = time.Hour
	opts.Clock = h.clock
	opts.Metrics = h.metrics
	opts.Seed = 42
	h.room = NewRoom("test_room", h.bc, opts)
	t.Cleanup(h.room.Close)
	return h
}

func (h *harness) submit(t *testing.T, kind, conn, data string) {
	t.Helper()
	cmd := Command{Kind: kind, ConnID: conn}
	if data != "" {
		cmd.Data = json.RawMessage(data)
	}
	if err := h.room.Submit(cmd); err != nil {
		t.Fatalf("Submit %s failed: %v", kind, err)
	}
}

func (h *harness) inspect(t *testing.T, fn func(*game.Game)) {
	t.Helper()
	if err := h.room.Do(fn); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
}

func TestRoom_CommandsFlowThroughTheActor(t *testing.T) {
	h := newHarness(t, Options{})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdJoin, "p1", `{"name":"Ana","color":"#ff0000"}`)
	h.submit(t, network.CmdJoin, "p2", `{"name":"Ben","clientId":"tok-ben"}`)
	h.submit(t, network.CmdStartGame, "host", `{"size":"12"}`)
	h.submit(t, network.CmdPickNumber, "p1", `{"number":"4"}`)

	h.inspect(t, func(g *game.Game) {
		if g.Phase() != state.Number || g.Size() != 12 {
			t.Errorf("Expected number phase on a 12 board, got %s on %d", g.Phase(), g.Size())
		}
		ana := g.PlayerByConn("p1")
		if ana == nil || ana.Color != "#ff0000" || ana.Selected != 4 {
			t.Errorf("Expected Ana with her color and pick 4, got %+v", ana)
		}
		if ben := g.PlayerByConn("p2"); ben == nil || ben.Token != "tok-ben" {
			t.Errorf("Expected Ben to keep the client token, got %+v", ben)
		}
	})

	if !h.sink.has("p1 " + network.EvtJoinedAck) {
		t.Error("Expected a joined-ack for p1")
	}
	h.metrics.mutex.Lock()
	defer h.metrics.mutex.Unlock()
	if h.metrics.commands[network.CmdJoin] != 2 || h.metrics.phases[string(state.Number)] != 1 {
		t.Errorf("Expected 2 joins and 1 number phase, got %v and %v", h.metrics.commands, h.metrics.phases)
	}
}

func TestRoom_MalformedPayloadDegrades(t *testing.T) {
	h := newHarness(t, Options{})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdJoin, "p1", `["not","an","object"]`)
	h.submit(t, network.CmdMoveTo, "p1", `{"x":"left"}`)
	h.submit(t, "no-such-command", "p1", "")

	h.inspect(t, func(g *game.Game) {
		p := g.PlayerByConn("p1")
		if p == nil || !strings.HasPrefix(p.Name, "P") {
			t.Errorf("Expected a join with a generated name, got %+v", p)
		}
	})
}

func TestRoom_SettingsPatchIsLenient(t *testing.T) {
	h := newHarness(t, Options{})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdUpdateSettings, "host", `{"firesPerRefresh":"500","numberSec":7,"lastStandingEnds":"true","renownChipVP":{}}`)

	h.inspect(t, func(g *game.Game) {
		s := g.Settings()
		if s.HazardsPerRefresh != 100 || s.NumberSeconds != 7 || !s.LastStandingEnds {
			t.Errorf("Expected clamped and coerced settings, got %+v", s)
		}
		if s.RenownVP != game.DefaultSettings().RenownVP {
			t.Errorf("Expected a malformed field left alone, got %d", s.RenownVP)
		}
	})
}

func TestRoom_KickDetachesConnection(t *testing.T) {
	h := newHarness(t, Options{})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdJoin, "p1", `{"name":"Ana"}`)

	var id string
	h.inspect(t, func(g *game.Game) { id = g.PlayerByConn("p1").ID })
	h.submit(t, network.CmdKick, "host", `{"playerId":"`+id+`"}`)
	h.inspect(t, func(g *game.Game) {
		if len(g.Players()) != 0 {
			t.Errorf("Expected the roster empty, got %d", len(g.Players()))
		}
	})

	h.bc.mutex.Lock()
	defer h.bc.mutex.Unlock()
	if len(h.bc.detached) != 1 || h.bc.detached[0] != "p1" {
		t.Errorf("Expected p1 detached, got %v", h.bc.detached)
	}
}

func TestRoom_GameOverHook(t *testing.T) {
	results := make(chan game.Result, 1)
	h := newHarness(t, Options{OnGameOver: func(res game.Result) { results <- res }})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdJoin, "p1", `{"name":"Ana"}`)
	h.submit(t, network.CmdStartGame, "host", "")
	h.submit(t, network.CmdEndGame, "host", "")

	select {
	case res := <-results:
		if res.Reason != game.ReasonEndedByHost || res.RoomID != "test_room" {
			t.Errorf("Expected host end for test_room, got %q for %q", res.Reason, res.RoomID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the game-over hook to fire")
	}
	if !h.sink.has("* " + network.EvtGameOver) {
		t.Error("Expected a game-over broadcast")
	}
}

func TestRoom_TickDrivesPhases(t *testing.T) {
	h := newHarness(t, Options{})
	h.submit(t, network.CmdHostAttach, "host", "")
	h.submit(t, network.CmdJoin, "p1", `{"name":"Ana"}`)
	h.submit(t, network.CmdStartGame, "host", "")

	h.clock.Advance(time.Minute)
	h.inspect(t, func(g *game.Game) { g.Tick() })
	summary, err := h.room.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Phase != state.Movement || summary.Players != 1 || !summary.HasHost {
		t.Errorf("Expected movement with one player and a host, got %+v", summary)
	}
}

func TestRoom_ClosedRoomRejects(t *testing.T) {
	h := newHarness(t, Options{})
	h.room.Close()
	if err := h.room.Submit(Command{Kind: network.CmdJoin}); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed, got %v", err)
	}
	if _, err := h.room.Snapshot(); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed from Snapshot, got %v", err)
	}
	h.metrics.mutex.Lock()
	defer h.metrics.mutex.Unlock()
	if h.metrics.opened != 1 || h.metrics.closed != 1 {
		t.Errorf("Expected one open and one close, got %d and %d", h.metrics.opened, h.metrics.closed)
	}
}

func TestRoomManager_GetOrCreate(t *testing.T) {
	bc := &MockBroadcaster{sink: &MockSink{}}
	manager := NewRoomManager(bc, Options{Tick: time.Hour}, 2)
	defer manager.Close()

	a, err := manager.GetOrCreate("  ")
	if err != nil || a.ID != DefaultRoomID {
		t.Fatalf("Expected the default room, got %v (%v)", a, err)
	}
	again, _ := manager.GetOrCreate(DefaultRoomID)
	if again != a {
		t.Error("GetOrCreate should return the same room instance")
	}

	long := strings.Repeat("x", 100)
	b, err := manager.GetOrCreate(long)
	if err != nil || len(b.ID) != MaxRoomIDLength {
		t.Fatalf("Expected a capped room id, got %q (%v)", b.ID, err)
	}
	if _, err := manager.GetOrCreate("third"); !errors.Is(err, ErrTooManyRooms) {
		t.Errorf("Expected ErrTooManyRooms, got %v", err)
	}

	manager.RemoveRoom(DefaultRoomID)
	if _, ok := manager.GetRoom(DefaultRoomID); ok {
		t.Error("Expected the removed room gone")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room left, got %d", manager.Count())
	}
}

func TestRoomManager_ConcurrentGetOrCreate(t *testing.T) {
	bc := &MockBroadcaster{sink: &MockSink{}}
	manager := NewRoomManager(bc, Options{Tick: time.Hour}, 0)
	defer manager.Close()

	var wg sync.WaitGroup
	rooms := make([]*Room, 16)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i], _ = manager.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()
	for _, r := range rooms {
		if r != rooms[0] {
			t.Fatal("Expected every caller to get the same room")
		}
	}
}

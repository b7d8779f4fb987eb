package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
	"github.com/wfunc/intersplice/timer"
)

type sent struct {
	conn    string
	event   string
	payload any
}

// MockSink records everything the engine pushes.
type MockSink struct {
	members []string
	sent    []sent
}

func (m *MockSink) Send(connID, event string, payload any) error {
	m.sent = append(m.sent, sent{conn: connID, event: event, payload: payload})
	return nil
}

func (m *MockSink) Broadcast(event string, payload any) error {
	m.sent = append(m.sent, sent{event: event, payload: payload})
	return nil
}

func (m *MockSink) Members() []string { return m.members }

func (m *MockSink) join(conn string) { m.members = append(m.members, conn) }

func (m *MockSink) last(conn, event string) (any, bool) {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].conn == conn && m.sent[i].event == event {
			return m.sent[i].payload, true
		}
	}
	return nil, false
}

func (m *MockSink) count(event string) int {
	n := 0
	for _, s := range m.sent {
		if s.event == event {
			n++
		}
	}
	return n
}

type fixture struct {
	g      *Game
	sink   *MockSink
	clock  *timer.ManualClock
	phases map[state.Phase]int
	ids    int
}

const host = "host-conn"

func newFixture(t *testing.T, size int, seed uint64) *fixture {
	t.Helper()
	f := &fixture{
		sink:   &MockSink{},
		clock:  timer.NewManualClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
		phases: make(map[state.Phase]int),
	}
	f.g = New("test", f.sink, Options{
		Clock:     f.clock,
		Rand:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		BoardSize: size,
		NewID: func() string {
			f.ids++
			return fmt.Sprintf("id-%d", f.ids)
		},
		Hooks: Hooks{
			OnPhase: func(p state.Phase, round int) { f.phases[p]++ },
		},
	})
	f.sink.join(host)
	f.g.AttachHost(host)
	return f
}

func (f *fixture) join(name string) *Player {
	conn := "conn-" + name
	f.sink.join(conn)
	return f.g.Join(conn, JoinRequest{Name: name})
}

// step expires the current deadline and ticks once.
func (f *fixture) step() {
	f.clock.Advance(f.g.Remaining() + time.Millisecond)
	f.g.Tick()
}

func (f *fixture) stepUntil(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if cond() {
			return
		}
		f.step()
	}
	t.Fatalf("condition not reached; phase %s round %d", f.g.Phase(), f.g.Round())
}

func checkSeal(t *testing.T, g *Game) {
	t.Helper()
	holders := 0
	for _, p := range g.Players() {
		if p.Seal {
			holders++
		}
	}
	onBoard := 0
	for c, it := range g.loot {
		if it != ItemSeal {
			continue
		}
		onBoard++
		if c != g.cc.Center {
			t.Fatalf("Seal found off center at %v", c)
		}
	}
	if holders+onBoard != 1 {
		t.Fatalf("Expected exactly one Seal owner, got %d holders and %d tiles", holders, onBoard)
	}
}

func checkLifeStates(t *testing.T, g *Game) {
	t.Helper()
	for _, p := range g.Players() {
		if p.Alive() == p.Ascended() {
			t.Fatalf("%s is both or neither Alive and Ascended", p.Name)
		}
		if p.Ascended() && p.Pos != nil {
			t.Fatalf("Ascended %s still has a position", p.Name)
		}
	}
}

func TestGame_EndToEndFirstRefresh(t *testing.T) {
	f := newFixture(t, 10, 1)
	for _, n := range []string{"ana", "ben", "cy"} {
		f.join(n)
	}
	f.g.StartGame(host, 0)
	if f.g.Phase() != state.Number || f.g.Round() != 1 {
		t.Fatalf("Expected number phase of round 1, got %s round %d", f.g.Phase(), f.g.Round())
	}

	f.stepUntil(t, func() bool { return f.g.Phase() == state.Refresh })

	if f.g.Round() != 6 {
		t.Errorf("Expected first refresh in round 6, got %d", f.g.Round())
	}
	for _, p := range []state.Phase{state.Number, state.Movement, state.Resolution} {
		if f.phases[p] != 6 {
			t.Errorf("Expected %s entered 6 times, got %d", p, f.phases[p])
		}
	}
	if f.phases[state.Refresh] != 1 {
		t.Errorf("Expected one refresh, got %d", f.phases[state.Refresh])
	}
	if len(f.g.Hazards()) == 0 {
		t.Error("Expected hazards seeded at the first refresh")
	}

	f.step()
	if f.g.Phase() != state.Number || f.g.Round() != 7 {
		t.Errorf("Expected number phase of round 7, got %s round %d", f.g.Phase(), f.g.Round())
	}
}

func TestGame_InvariantsAcrossLongGame(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		f := newFixture(t, 8, seed)
		f.g.UpdateSettings(host, SettingsPatch{RefreshEvery: ptr(2), HazardsPerRefresh: ptr(8)})
		for i := 0; i < 7; i++ {
			f.join(fmt.Sprintf("p%d", i))
		}
		f.g.StartGame(host, 0)
		for i := 0; i < 300 && f.g.Phase() != state.GameOver; i++ {
			f.step()
			checkSeal(t, f.g)
			checkLifeStates(t, f.g)
			for c := range f.g.hazards {
				if f.g.cc.Contains(c) {
					t.Fatalf("hazard inside the safe zone at %v", c)
				}
			}
		}
	}
}

func TestGame_HostCommandsRequireHost(t *testing.T) {
	f := newFixture(t, 10, 2)
	f.join("ana")
	f.g.StartGame("conn-ana", 0)
	if f.g.Phase() != state.Pregame {
		t.Fatalf("Expected a non-host start to be ignored, got phase %s", f.g.Phase())
	}
	f.g.StartGame(host, 12)
	if f.g.Phase() != state.Number || f.g.Size() != 12 {
		t.Errorf("Expected start on a 12 board, got %s on %d", f.g.Phase(), f.g.Size())
	}
}

func TestGame_ForceEndPhaseUsesTick(t *testing.T) {
	f := newFixture(t, 10, 3)
	f.join("ana")
	f.g.StartGame(host, 0)

	f.g.ForceEndPhase(host)
	if f.g.Phase() != state.Number {
		t.Fatalf("Expected the transition to wait for the tick, got %s", f.g.Phase())
	}
	f.g.Tick()
	if f.g.Phase() != state.Movement {
		t.Errorf("Expected movement after the tick, got %s", f.g.Phase())
	}
}

func TestGame_PauseFreezesDeadline(t *testing.T) {
	f := newFixture(t, 10, 4)
	f.join("ana")
	f.g.StartGame(host, 0)
	f.clock.Advance(2 * time.Second)
	f.g.TogglePause(host)
	left := f.g.Remaining()

	f.clock.Advance(time.Minute)
	f.g.Tick()
	if f.g.Phase() != state.Number {
		t.Fatalf("Expected paused game to stay in number, got %s", f.g.Phase())
	}
	if f.g.Remaining() != left {
		t.Errorf("Expected frozen remaining %v, got %v", left, f.g.Remaining())
	}

	f.g.TogglePause(host)
	f.clock.Advance(left)
	f.g.Tick()
	if f.g.Phase() != state.Movement {
		t.Errorf("Expected movement after resuming, got %s", f.g.Phase())
	}
}

func TestGame_ForceEndRound(t *testing.T) {
	f := newFixture(t, 10, 5)
	f.join("ana")
	f.join("ben")
	f.g.StartGame(host, 0)
	f.g.ForceEndRound(host)
	if f.g.Phase() != state.Number || f.g.Round() != 2 {
		t.Errorf("Expected number phase of round 2, got %s round %d", f.g.Phase(), f.g.Round())
	}
}

func TestGame_EndAndReset(t *testing.T) {
	f := newFixture(t, 10, 6)
	a := f.join("ana")
	f.join("ben")
	f.g.StartGame(host, 0)
	a.VP = 12
	f.g.EndGame(host)

	if f.g.Phase() != state.GameOver || f.g.EndReason() != ReasonEndedByHost {
		t.Fatalf("Expected game over by host, got %s (%q)", f.g.Phase(), f.g.EndReason())
	}
	raw, ok := f.sink.last("", network.EvtGameOver)
	if !ok {
		t.Fatal("Expected a game-over broadcast")
	}
	over := raw.(gameOver)
	if over.Winner == nil || over.Winner.Name != "ana" {
		t.Errorf("Expected ana to win, got %+v", over.Winner)
	}

	f.g.Reset(host)
	if f.g.Phase() != state.Pregame || f.g.Round() != 0 {
		t.Errorf("Expected pregame round 0 after reset, got %s round %d", f.g.Phase(), f.g.Round())
	}
	if len(f.g.Players()) != 2 || a.VP != 0 || a.Pos == nil {
		t.Errorf("Expected roster kept with fresh ledgers, got %d players, VP %d", len(f.g.Players()), a.VP)
	}
	checkSeal(t, f.g)
}

func TestGame_LastStandingEnds(t *testing.T) {
	f := newFixture(t, 10, 7)
	f.g.UpdateSettings(host, SettingsPatch{LastStandingEnds: ptrBool(true)})
	f.join("ana")
	b := f.join("ben")
	f.g.StartGame(host, 0)
	b.ascend(f.g.Round())

	f.stepUntil(t, func() bool { return f.g.Phase() != state.Number })
	f.stepUntil(t, func() bool { return f.g.Phase() != state.Movement })
	if f.g.Phase() != state.GameOver || f.g.EndReason() != ReasonLastStanding {
		t.Errorf("Expected last-standing game over, got %s (%q)", f.g.Phase(), f.g.EndReason())
	}
}

func TestGame_ResizeKeepsBoardConsistent(t *testing.T) {
	f := newFixture(t, 20, 8)
	a := f.join("ana")
	f.g.hazards[geometry.Coord{X: 19, Y: 19}] = struct{}{}
	f.g.hazards[geometry.Coord{X: 4, Y: 4}] = struct{}{}

	f.g.SetBoardSize(host, 8)
	if f.g.Size() != 8 {
		t.Fatalf("Expected size 8, got %d", f.g.Size())
	}
	for c := range f.g.hazards {
		if !geometry.InBounds(c, 8) || f.g.cc.Contains(c) {
			t.Errorf("Unexpected hazard %v after resize", c)
		}
	}
	if !geometry.InBounds(*a.Pos, 8) {
		t.Errorf("Expected position in bounds, got %v", *a.Pos)
	}
	checkSeal(t, f.g)
}

func ptr(n int) *int       { return &n }
func ptrBool(b bool) *bool { return &b }

// Package game is the authoritative session engine of one room: roster,
// board, phase cycle, round resolution and the views sent to every
// connection. A Game is not safe for concurrent use; its owner (the room
// actor) must serialise every call.
package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/state"
	"github.com/wfunc/intersplice/timer"
)

// Sink is where the engine pushes events. Failures are logged and otherwise
// ignored; a lost notification never aborts the mutation that produced it.
// Members lists the connections currently in the room, each of which gets
// its own filtered state.
type Sink interface {
	Send(connID, event string, payload any) error
	Broadcast(event string, payload any) error
	Members() []string
}

// Hooks let the owner observe the engine without reaching into it.
type Hooks struct {
	OnPhase       func(phase state.Phase, round int)
	OnElimination func(cause string)
	OnGameOver    func(Result)
}

type Options struct {
	Clock     timer.Clock
	Rand      *rand.Rand
	Settings  *Settings
	BoardSize int
	Hooks     Hooks
	NewID     func() string
}

type Game struct {
	RoomID string

	hostConn string
	players  map[string]*Player // stable id -> player
	byConn   map[string]string  // connection id -> stable id
	order    []string           // join order, the tie-break authority

	size    int
	cc      geometry.Cornucore
	hazards map[geometry.Coord]struct{}
	loot    map[geometry.Coord]Item

	machine    *state.Machine
	round      int
	countdown  timer.Countdown
	settings   Settings
	events     EventLog
	encounters []Encounter
	endReason  string

	clock timer.Clock
	sink  Sink
	rng   *rand.Rand
	hooks Hooks
	newID func() string
	log   *zap.SugaredLogger
}

func New(roomID string, sink Sink, opts Options) *Game {
	g := &Game{
		RoomID:   roomID,
		players:  make(map[string]*Player),
		byConn:   make(map[string]string),
		hazards:  make(map[geometry.Coord]struct{}),
		loot:     make(map[geometry.Coord]Item),
		settings: DefaultSettings(),
		clock:    opts.Clock,
		sink:     sink,
		rng:      opts.Rand,
		hooks:    opts.Hooks,
		newID:    opts.NewID,
		log:      logger.Room(roomID),
	}
	if g.clock == nil {
		g.clock = timer.SystemClock{}
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}
	if opts.Settings != nil {
		g.settings = opts.Settings.Normalize()
	}
	g.size = ClampBoardSize(opts.BoardSize)
	g.cc = geometry.NewCornucore(g.size)
	g.ensureSeal()
	g.buildMachine()
	return g
}

func (g *Game) Phase() state.Phase { return g.machine.Current() }
func (g *Game) Round() int { return g.round }
func (g *Game) Size() int { return g.size }
func (g *Game) Cornucore() geometry.Cornucore { return g.cc }
func (g *Game) Settings() Settings { return g.settings }
func (g *Game) EndReason() string { return g.endReason }
func (g *Game) Paused() bool { return g.countdown.Paused() }
func (g *Game) HostConn() string { return g.hostConn }

// Remaining is the time left in the current phase.
func (g *Game) Remaining() time.Duration {
	return g.countdown.Remaining(g.clock.Now())
}

// Player looks a participant up by stable id.
func (g *Game) Player(id string) *Player {
	return g.players[id]
}

// PlayerByConn looks a participant up by its current connection.
func (g *Game) PlayerByConn(connID string) *Player {
	id, ok := g.byConn[connID]
	if !ok {
		return nil
	}
	return g.players[id]
}

// Players returns the roster in join order.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		if p, ok := g.players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) IsHazard(c geometry.Coord) bool {
	_, ok := g.hazards[c]
	return ok
}

// Hazards returns the lethal tiles in row-major order.
func (g *Game) Hazards() []geometry.Coord {
	out := make([]geometry.Coord, 0, len(g.hazards))
	for c := range g.hazards {
		out = append(out, c)
	}
	geometry.Sort(out)
	return out
}

func (g *Game) LootAt(c geometry.Coord) (Item, bool) {
	it, ok := g.loot[c]
	return it, ok
}

// lootTiles returns loot coordinates in row-major order.
func (g *Game) lootTiles() []geometry.Coord {
	out := make([]geometry.Coord, 0, len(g.loot))
	for c := range g.loot {
		out = append(out, c)
	}
	geometry.Sort(out)
	return out
}

// occupied is the set of tiles under Alive, positioned participants.
func (g *Game) occupied() map[geometry.Coord]bool {
	occ := make(map[geometry.Coord]bool, len(g.players))
	for _, p := range g.players {
		if p.Positioned() {
			occ[*p.Pos] = true
		}
	}
	return occ
}

func (g *Game) sealHolder() *Player {
	for _, p := range g.Players() {
		if p.Seal {
			return p
		}
	}
	return nil
}

// ensureSeal restores the single-seal invariant: the center tile holds the
// Seal exactly when no participant does, and no other tile ever does.
func (g *Game) ensureSeal() {
	for c, it := range g.loot {
		if it == ItemSeal && c != g.cc.Center {
			delete(g.loot, c)
		}
	}
	if g.sealHolder() != nil {
		if g.loot[g.cc.Center] == ItemSeal {
			delete(g.loot, g.cc.Center)
		}
		return
	}
	g.loot[g.cc.Center] = ItemSeal
}

func (g *Game) returnSeal() {
	g.loot[g.cc.Center] = ItemSeal
	g.logf("Spacetime Seal returned to center.")
}

func (g *Game) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	g.events.Add(g.clock.Now(), msg)
	g.log.Debug(msg)
}

// Log returns the exposed tail of the event log.
func (g *Game) Log() []string {
	return g.events.Tail(logExposed)
}

func (g *Game) send(connID, event string, payload any) {
	if connID == "" || g.sink == nil {
		return
	}
	if err := g.sink.Send(connID, event, payload); err != nil {
		g.log.Warnw("send failed", "conn", connID, "event", event, "error", err)
	}
}

func (g *Game) broadcast(event string, payload any) {
	if g.sink == nil {
		return
	}
	if err := g.sink.Broadcast(event, payload); err != nil {
		g.log.Warnw("broadcast failed", "event", event, "error", err)
	}
}

// sendToPlayer targets a participant's current connection, if connected.
func (g *Game) sendToPlayer(p *Player, event string, payload any) {
	if p == nil || !p.Connected {
		return
	}
	g.send(p.ConnID, event, payload)
}

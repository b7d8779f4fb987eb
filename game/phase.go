package game

import (
	"time"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
)

const (
	ReasonEndedByHost  = "ended_by_host"
	ReasonLastStanding = "last_standing"
)

// Result is the outcome of a finished game.
type Result struct {
	RoomID    string     `json:"room"`
	Reason    string     `json:"reason"`
	Round     int        `json:"round"`
	Winner    *Standing  `json:"winner"`
	Standings []Standing `json:"leaderboard"`
	EndedAt   time.Time  `json:"endedAt"`
}

func (g *Game) buildMachine() {
	m := state.NewMachine(state.Pregame)

	m.AddTransition(state.Pregame, state.Number, nil)
	m.AddTransition(state.Number, state.Movement, nil)
	m.AddTransition(state.Movement, state.Resolution, nil)
	m.AddTransition(state.Resolution, state.Refresh, g.refreshDue)
	m.AddTransition(state.Resolution, state.Number, func() bool { return !g.refreshDue() })
	m.AddTransition(state.Refresh, state.Number, nil)
	for _, from := range []state.Phase{state.Pregame, state.Number, state.Movement, state.Resolution, state.Refresh} {
		m.AddTransition(from, state.GameOver, nil)
	}

	m.OnEnter(state.Number, g.enterNumber)
	m.OnEnter(state.Movement, g.enterMovement)
	m.OnEnter(state.Resolution, g.enterResolution)
	m.OnExit(state.Resolution, func() {
		g.broadcast(network.EvtResolutionEnd, struct{}{})
	})
	m.OnEnter(state.Refresh, g.enterRefresh)
	m.OnEnter(state.GameOver, g.enterGameOver)

	g.machine = m
}

func (g *Game) refreshDue() bool {
	every := max(1, g.settings.RefreshEvery)
	return g.round > 0 && g.round%every == 0
}

func (g *Game) changePhase(to state.Phase) bool {
	if err := g.machine.ChangeState(to); err != nil {
		g.log.Warnw("phase change rejected", "from", g.Phase(), "to", to, "error", err)
		return false
	}
	return true
}

func (g *Game) notifyPhase() {
	if g.hooks.OnPhase != nil {
		g.hooks.OnPhase(g.Phase(), g.round)
	}
}

// setDeadline arms the phase countdown, keeping a host pause in force.
func (g *Game) setDeadline(d time.Duration) {
	now := g.clock.Now()
	paused := g.countdown.Paused()
	g.countdown.Set(now, d)
	if paused {
		g.countdown.Pause(now)
	}
}

// Tick advances the phase when its deadline has passed, then broadcasts so
// countdowns stay live even when nothing changed.
func (g *Game) Tick() {
	if g.Phase().Running() && g.countdown.Expired(g.clock.Now()) {
		g.advance()
	}
	g.broadcastState()
}

// advance performs the next regular transition. It is the single path for
// both deadline expiry and host overrides.
func (g *Game) advance() {
	switch g.Phase() {
	case state.Number:
		g.changePhase(state.Movement)
	case state.Movement:
		g.changePhase(state.Resolution)
	case state.Resolution:
		if g.refreshDue() {
			g.changePhase(state.Refresh)
		} else {
			g.changePhase(state.Number)
		}
	case state.Refresh:
		g.changePhase(state.Number)
	}
}

func (g *Game) enterNumber() {
	g.round++
	for _, p := range g.players {
		p.VPDelta = 0
		p.Selected = 0
		p.Target = nil
		p.WarpLocked = false
		p.JustRespawned = false
		if p.Alive() {
			p.Steps = p.movementBudget()
		}
	}
	g.encounters = nil
	g.respawnDue()
	g.setDeadline(g.settings.Durations().Number)
	g.notifyPhase()
}

func (g *Game) enterMovement() {
	for _, p := range g.Players() {
		p.autoFill()
		p.Steps = p.movementBudget()
	}
	g.setDeadline(g.settings.Durations().Movement)
	g.notifyPhase()
}

type resolutionStart struct {
	EndsAt int64 `json:"endsAt"`
}

type lastNumber struct {
	PlayerID   string `json:"playerId"`
	LastNumber int    `json:"lastNumber"`
}

// enterResolution runs the whole round in its fixed order: reveal, movement,
// pickup, combat, hazard deaths, sponsor assignment, end-of-round VP.
func (g *Game) enterResolution() {
	g.encounters = nil
	g.setDeadline(g.settings.Durations().Resolution)
	g.broadcast(network.EvtResolutionStart, resolutionStart{EndsAt: g.countdown.Execute.UnixMilli()})
	g.notifyPhase()

	for _, p := range g.Players() {
		if p.reveal() {
			g.broadcast(network.EvtLastNumber, lastNumber{PlayerID: p.ID, LastNumber: p.LastRevealed})
		}
	}

	g.commitMovement()
	byTile := g.occupantsByTile()
	g.resolveLoot(byTile)
	g.resolveCombat(byTile)
	g.hazardDeaths()
	g.autoAssignSponsors()

	for _, p := range g.players {
		if p.JustRespawned && p.Buff == BuffWarp {
			p.Buff = BuffNone
		}
	}
	g.awardEndOfRound()
	g.ensureSeal()

	if g.settings.LastStandingEnds && len(g.order) > 1 && g.aliveCount() <= 1 {
		g.endGame(ReasonLastStanding)
	}
}

func (g *Game) hazardDeaths() {
	for _, p := range g.Players() {
		if p.Positioned() && g.IsHazard(*p.Pos) {
			g.eliminate(p, causeHazard, p.Name+" eliminated by fire.")
		}
	}
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.Alive() {
			n++
		}
	}
	return n
}

func (g *Game) enterRefresh() {
	g.setDeadline(g.settings.Durations().Refresh)
	g.notifyPhase()
	for _, p := range g.players {
		if p.Alive() {
			p.clearHistory()
		}
	}
	if g.refreshHazards() {
		g.endGame(ReasonHazardExhausted)
		return
	}
	g.dropLoot()
}

type gameOver struct {
	Leaderboard []Standing `json:"leaderboard"`
	Winner      *Standing  `json:"winner"`
	Reason      string     `json:"reason"`
}

func (g *Game) enterGameOver() {
	now := g.clock.Now()
	g.countdown.Freeze(now)
	g.notifyPhase()

	res := Result{
		RoomID:    g.RoomID,
		Reason:    g.endReason,
		Round:     g.round,
		Standings: g.Ranking(),
		EndedAt:   now,
	}
	if len(res.Standings) > 0 {
		w := res.Standings[0]
		res.Winner = &w
		g.logf("Winner by VP: %s (%d VP)", w.Name, w.VP)
	} else {
		g.logf("Winner by VP: none")
	}
	g.broadcast(network.EvtGameOver, gameOver{Leaderboard: res.Standings, Winner: res.Winner, Reason: res.Reason})
	if g.hooks.OnGameOver != nil {
		g.hooks.OnGameOver(res)
	}
}

func (g *Game) endGame(reason string) {
	if g.Phase() == state.GameOver {
		return
	}
	g.endReason = reason
	g.changePhase(state.GameOver)
}

func (g *Game) startGame(size int) bool {
	if g.Phase() != state.Pregame {
		return false
	}
	if size > 0 {
		g.resize(size)
	}
	for _, p := range g.Players() {
		if p.Alive() && p.Pos == nil {
			g.place(p)
		}
	}
	g.ensureSeal()
	g.logf("Game started (%dx%d).", g.size, g.size)
	return g.changePhase(state.Number)
}

// resetGame returns the room to pregame, keeping roster and settings.
func (g *Game) resetGame() {
	g.machine.Reset(state.Pregame)
	g.round = 0
	g.countdown.Reset()
	g.encounters = nil
	g.endReason = ""
	clear(g.hazards)
	clear(g.loot)
	for _, p := range g.players {
		p.resetForGame()
	}
	g.placeAll()
	g.ensureSeal()
	g.logf("Reset complete.")
	g.notifyPhase()
}

// resize changes the board size, keeping the board consistent: positions
// are pulled in bounds, hazards off the board or inside the new safe zone
// are dropped and the Seal goes back to the new center.
func (g *Game) resize(n int) {
	g.size = ClampBoardSize(n)
	g.cc = geometry.NewCornucore(g.size)
	for c := range g.hazards {
		if !geometry.InBounds(c, g.size) || g.cc.Contains(c) {
			delete(g.hazards, c)
		}
	}
	for c := range g.loot {
		if !geometry.InBounds(c, g.size) || g.cc.InSanctum(c) {
			delete(g.loot, c)
		}
	}
	for _, p := range g.players {
		if p.Pos != nil {
			c := geometry.Clamp(*p.Pos, g.size)
			p.Pos = &c
		}
		if p.Target != nil {
			c := geometry.Clamp(*p.Target, g.size)
			p.Target = &c
		}
	}
	if g.Phase() == state.Pregame {
		g.placeAll()
	}
	g.ensureSeal()
	g.logf("Board resized to %dx%d.", g.size, g.size)
}

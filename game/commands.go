package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
)

// Paint modes accepted from the host.
const (
	PaintFire  = "FIRE"
	PaintBuff  = "BUFF"
	PaintClear = "CLEAR"
)

const maxColorLen = 32

// JoinRequest is a participant's join or reconnect payload.
type JoinRequest struct {
	Name  string
	Color string
	Token string
	PIN   string
}

type joinedAck struct {
	ID    string `json:"id"`
	Room  string `json:"room"`
	Name  string `json:"name"`
	PIN   string `json:"pin"`
	Token string `json:"token"`
}

type yourPIN struct {
	PIN   string `json:"pin"`
	Token string `json:"token"`
}

type moveAck struct {
	OK     bool   `json:"ok"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Warp   bool   `json:"warp,omitempty"`
	Legal  bool   `json:"legal"`
	Reason string `json:"reason,omitempty"`
}

type legalMoves struct {
	PlayerID string           `json:"playerId"`
	Tiles    []geometry.Coord `json:"tiles"`
}

type hostAttached struct {
	Room     string   `json:"room"`
	Settings Settings `json:"settings"`
	Size     int      `json:"size"`
}

func (g *Game) isHost(connID string) bool {
	return connID != "" && connID == g.hostConn
}

// AttachHost makes connID the room's host connection.
func (g *Game) AttachHost(connID string) {
	g.hostConn = connID
	g.logf("Host attached.")
	g.send(connID, network.EvtHostAttached, hostAttached{Room: g.RoomID, Settings: g.settings, Size: g.size})
	g.broadcastState()
}

// Join admits a new participant, or rebinds an existing one when the token
// or recovery PIN matches.
func (g *Game) Join(connID string, req JoinRequest) *Player {
	p := g.lookup(req.Token, req.PIN)
	if p == nil {
		p = g.PlayerByConn(connID)
	}
	if p == nil {
		p = g.admit(connID, req)
	} else {
		g.rebind(p, connID)
	}
	g.ack(p)
	g.broadcastState()
	return p
}

// Reconnect only rebinds; an unknown token and PIN is ignored.
func (g *Game) Reconnect(connID string, req JoinRequest) *Player {
	p := g.lookup(req.Token, req.PIN)
	if p == nil {
		g.log.Debugw("reconnect without a match", "conn", connID)
		return nil
	}
	g.rebind(p, connID)
	g.ack(p)
	g.broadcastState()
	return p
}

func (g *Game) lookup(token, pin string) *Player {
	token, pin = strings.TrimSpace(token), strings.TrimSpace(pin)
	for _, p := range g.Players() {
		if token != "" && p.Token == token {
			return p
		}
	}
	for _, p := range g.Players() {
		if pin != "" && p.PIN == pin {
			return p
		}
	}
	return nil
}

func (g *Game) admit(connID string, req JoinRequest) *Player {
	id := g.newID()
	p := newPlayer(id, connID, g.uniqueName(req.Name, id), strings.TrimSpace(req.Color))
	p.Token = strings.TrimSpace(req.Token)
	if p.Token == "" {
		p.Token = g.newID()
	}
	p.PIN = g.uniquePIN()
	g.players[id] = p
	g.order = append(g.order, id)
	g.byConn[connID] = id
	if g.Phase() != state.GameOver {
		g.place(p)
	}
	g.logf("Player joined: %s", p.Name)
	return p
}

// rebind moves connID onto p. A participant previously driven by connID
// loses it and is flagged disconnected.
func (g *Game) rebind(p *Player, connID string) {
	if prev := g.PlayerByConn(connID); prev != nil && prev != p {
		prev.ConnID = ""
		prev.Connected = false
		g.logf("Player disconnected: %s", prev.Name)
	}
	if p.ConnID != "" && p.ConnID != connID {
		delete(g.byConn, p.ConnID)
	}
	p.ConnID = connID
	p.Connected = true
	g.byConn[connID] = p.ID
	g.logf("Player reconnected: %s", p.Name)
}

func (g *Game) ack(p *Player) {
	g.send(p.ConnID, network.EvtYourPIN, yourPIN{PIN: p.PIN, Token: p.Token})
	g.send(p.ConnID, network.EvtJoinedAck, joinedAck{ID: p.ID, Room: g.RoomID, Name: p.Name, PIN: p.PIN, Token: p.Token})
	g.pushSponsorState(p)
}

// uniqueName trims to the length limit and suffixes case-insensitive clashes.
func (g *Game) uniqueName(name, id string) string {
	base := truncate(strings.TrimSpace(name), maxNameLen)
	if base == "" {
		base = "P" + truncate(id, 4)
	}
	taken := make(map[string]bool, len(g.players))
	for _, p := range g.players {
		taken[strings.ToLower(p.Name)] = true
	}
	try := base
	for i := 2; taken[strings.ToLower(try)]; i++ {
		suffix := " " + strconv.Itoa(i)
		try = truncate(base, maxNameLen-len(suffix)) + suffix
	}
	return try
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func (g *Game) uniquePIN() string {
	taken := make(map[string]bool, len(g.players))
	for _, p := range g.players {
		taken[p.PIN] = true
	}
	for {
		pin := strconv.Itoa(1000 + g.rng.IntN(9000))
		if !taken[pin] {
			return pin
		}
	}
}

// Disconnect flags the connection's participant as gone; nothing is removed.
func (g *Game) Disconnect(connID string) {
	if connID == g.hostConn {
		g.hostConn = ""
		g.logf("Host disconnected.")
	}
	p := g.PlayerByConn(connID)
	if p != nil {
		p.Connected = false
		delete(g.byConn, connID)
		g.logf("Player disconnected: %s", p.Name)
	}
	g.broadcastState()
}

// PickNumber records an Alive participant's number for the round.
func (g *Game) PickNumber(connID string, n int) {
	p := g.PlayerByConn(connID)
	if p == nil || !p.Alive() || g.Phase() != state.Number {
		return
	}
	if !p.choose(clamp(n, MinNumber, MaxNumber)) {
		return
	}
	g.broadcastState()
}

// MoveTo declares a destination. Legality is checked at commit, except for a
// warping participant who must pick a ring tile now.
func (g *Game) MoveTo(connID string, x, y int) {
	p := g.PlayerByConn(connID)
	if p == nil || !p.Alive() || g.Phase() != state.Movement {
		return
	}
	c := geometry.Clamp(geometry.Coord{X: x, Y: y}, g.size)

	if p.warping() {
		if p.WarpLocked || !g.cc.OnRing(c) {
			g.sendToPlayer(p, network.EvtMoveAck, moveAck{X: c.X, Y: c.Y, Warp: true, Reason: WarpRingReason})
			return
		}
		p.Target = &c
		p.WarpLocked = true
		g.sendToPlayer(p, network.EvtMoveAck, moveAck{OK: true, X: c.X, Y: c.Y, Warp: true, Legal: true})
		g.broadcastState()
		return
	}

	p.Target = &c
	g.sendToPlayer(p, network.EvtMoveAck, moveAck{OK: true, X: c.X, Y: c.Y, Legal: contains(g.LegalMoves(p), c)})
	g.broadcastState()
}

// SponsorPick sets or clears (empty id) an Ascended participant's target.
func (g *Game) SponsorPick(connID, targetID string) {
	s := g.PlayerByConn(connID)
	if s == nil || !s.Ascended() {
		return
	}
	if targetID != "" && !g.validSponsorTarget(s, targetID) {
		return
	}
	s.SponsorTarget = targetID
	if targetID == "" {
		g.logf("%s stopped sponsoring.", s.Name)
	} else {
		g.logf("%s is now sponsoring %s.", s.Name, g.players[targetID].Name)
	}
	g.pushSponsorState(s)
	g.broadcastState()
}

// RequestLegalMoves answers the caller only.
func (g *Game) RequestLegalMoves(connID string) {
	p := g.PlayerByConn(connID)
	if p == nil {
		return
	}
	g.send(connID, network.EvtLegalMoves, legalMoves{PlayerID: p.ID, Tiles: g.LegalMoves(p)})
}

// StateRequest sends a one-off full and filtered snapshot to any connection.
func (g *Game) StateRequest(connID string) {
	g.send(connID, network.EvtStateFull, g.Snapshot())
	g.send(connID, network.EvtState, g.SnapshotFor(connID))
}

// UpdateSettings merges a host patch.
func (g *Game) UpdateSettings(connID string, patch SettingsPatch) {
	if !g.isHost(connID) {
		return
	}
	g.settings.Apply(patch)
	g.logf("Host updated settings.")
	g.broadcast(network.EvtHostSettings, g.settings)
	g.broadcastState()
}

func (g *Game) SetBoardSize(connID string, size int) {
	if !g.isHost(connID) {
		return
	}
	g.resize(size)
	g.broadcastState()
}

// StartGame leaves pregame, optionally resizing first.
func (g *Game) StartGame(connID string, size int) {
	if !g.isHost(connID) {
		return
	}
	if g.startGame(size) {
		g.broadcastState()
	}
}

// ForceEndPhase expires the deadline; the next tick performs the transition.
func (g *Game) ForceEndPhase(connID string) {
	if !g.isHost(connID) || !g.Phase().Running() {
		return
	}
	g.countdown.Expire(g.clock.Now())
	g.logf("Host ended the %s phase.", g.Phase())
	g.broadcastState()
}

// ForceEndRound advances until the next round's number phase or game over.
func (g *Game) ForceEndRound(connID string) {
	if !g.isHost(connID) || !g.Phase().Running() {
		return
	}
	round := g.round
	g.logf("Host ended round %d.", round)
	// number, movement, resolution, refresh: at most four steps to the next round.
	for i := 0; i < 4 && g.Phase().Running(); i++ {
		g.advance()
		if g.Phase() == state.Number && g.round > round {
			break
		}
	}
	g.broadcastState()
}

func (g *Game) EndGame(connID string) {
	if !g.isHost(connID) {
		return
	}
	g.endGame(ReasonEndedByHost)
	g.broadcastState()
}

func (g *Game) TogglePause(connID string) {
	if !g.isHost(connID) || !g.Phase().Running() {
		return
	}
	now := g.clock.Now()
	if g.countdown.Paused() {
		g.countdown.Resume(now)
		g.logf("Game resumed by host.")
	} else {
		g.countdown.Pause(now)
		g.logf("Game paused by host.")
	}
	g.broadcastState()
}

// Paint edits one tile: FIRE toggles a hazard outside the safe zone, BUFF
// toggles an item, CLEAR empties the tile. The center always keeps the Seal
// unless someone holds it.
func (g *Game) Paint(connID string, x, y int, mode, item string) {
	if !g.isHost(connID) {
		return
	}
	c := geometry.Clamp(geometry.Coord{X: x, Y: y}, g.size)
	label := geometry.Label(c)

	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case PaintFire:
		if g.cc.Contains(c) {
			return
		}
		if g.IsHazard(c) {
			delete(g.hazards, c)
		} else {
			g.hazards[c] = struct{}{}
		}
		g.logf("Host toggled fire at %s", label)
	case PaintBuff:
		switch {
		case g.cc.IsCenter(c):
			g.ensureSeal()
			g.logf("Host protected center at %s", label)
		case g.cc.InSanctum(c):
			return
		default:
			if _, ok := g.loot[c]; ok {
				delete(g.loot, c)
				g.logf("Host toggled buff at %s (off)", label)
			} else {
				it := PaintableItem(item)
				g.loot[c] = it
				g.logf("Host toggled buff at %s (%s)", label, it)
			}
		}
	case PaintClear:
		if g.cc.IsCenter(c) {
			g.ensureSeal()
			g.logf("Host protected center at %s", label)
			break
		}
		delete(g.hazards, c)
		delete(g.loot, c)
		g.logf("Host cleared %s", label)
	default:
		return
	}
	g.broadcastState()
}

func (g *Game) SetColor(connID, playerID, color string) {
	if !g.isHost(connID) {
		return
	}
	p := g.players[playerID]
	color = truncate(strings.TrimSpace(color), maxColorLen)
	if p == nil || color == "" {
		return
	}
	p.Color = color
	g.logf("Host set color for %s.", p.Name)
	g.broadcastState()
}

// Kick removes a participant and returns the connection it was bound to.
func (g *Game) Kick(connID, playerID string) (string, bool) {
	if !g.isHost(connID) {
		return "", false
	}
	p := g.players[playerID]
	if p == nil {
		return "", false
	}
	g.remove(p)
	g.logf("Host kicked: %s", p.Name)
	g.broadcastState()
	g.broadcast(network.EvtStateFull, g.Snapshot())
	return p.ConnID, true
}

// ClearDisconnected purges every disconnected participant.
func (g *Game) ClearDisconnected(connID string) int {
	if !g.isHost(connID) {
		return 0
	}
	removed := 0
	for _, p := range g.Players() {
		if !p.Connected {
			g.remove(p)
			removed++
		}
	}
	if removed > 0 {
		g.logf("Cleared %d disconnected player(s).", removed)
	}
	g.broadcastState()
	return removed
}

func (g *Game) remove(p *Player) {
	if p.Seal {
		p.Seal = false
		g.returnSeal()
	}
	delete(g.players, p.ID)
	if g.byConn[p.ConnID] == p.ID {
		delete(g.byConn, p.ConnID)
	}
	order := g.order[:0]
	for _, id := range g.order {
		if id != p.ID {
			order = append(order, id)
		}
	}
	g.order = order
	for _, s := range g.players {
		if s.SponsorTarget == p.ID {
			s.SponsorTarget = ""
		}
	}
}

// Reset discards the current game but keeps roster and settings.
func (g *Game) Reset(connID string) {
	if !g.isHost(connID) {
		return
	}
	g.resetGame()
	g.broadcastState()
	g.broadcast(network.EvtStateFull, g.Snapshot())
}

func (g *Game) String() string {
	return fmt.Sprintf("room %s: %s round %d, %d players", g.RoomID, g.Phase(), g.round, len(g.order))
}

package game

import (
	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/state"
)

// PlayerView is the public face of a participant.
type PlayerView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Alive         bool            `json:"isAlive"`
	Ascended      bool            `json:"isSponsor"`
	Pos           *geometry.Coord `json:"pos"`
	VP            int             `json:"vp"`
	VPDelta       int             `json:"vpDelta"`
	Kills         int             `json:"kills"`
	Buff          string          `json:"buff,omitempty"`
	ShieldSave    bool            `json:"hasShield"`
	Seal          bool            `json:"cornucopia"`
	Buffs         []string        `json:"buffs"`
	SponsorTarget string          `json:"sponsorTargetId,omitempty"`
	UsedNumbers   []int           `json:"usedNumbers"`
	Picked        bool            `json:"picked"`
	Number        *int            `json:"lastRevealedNumber"`
	Steps         int             `json:"speedSteps"`
	ReturnRound   int             `json:"returnRound,omitempty"`
	Connected     bool            `json:"connected"`
}

// SelfView is the private overlay for the participant owning a connection.
type SelfView struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Color         string        `json:"color"`
	Token         string        `json:"token"`
	PIN           string        `json:"pin"`
	CurrentNumber *int          `json:"currentNumber"`
	LastNumber    *int          `json:"lastNumber"`
	Buffs         []string      `json:"buffs"`
	Alive         bool          `json:"isAlive"`
	Ascended      bool          `json:"isSponsor"`
	Warping       bool          `json:"warping"`
	Sponsor       *SponsorState `json:"sponsor,omitempty"`
}

type LootTile struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Type Item `json:"type"`
}

type BoardView struct {
	Size      int                `json:"size"`
	Cornucore geometry.Cornucore `json:"cc"`
	Hazards   []geometry.Coord   `json:"fire"`
	Loot      []LootTile         `json:"buffs"`
}

// DurationsMS are the phase lengths in milliseconds.
type DurationsMS struct {
	Number     int64 `json:"number"`
	Movement   int64 `json:"movement"`
	Resolution int64 `json:"resolution"`
	Refresh    int64 `json:"refresh"`
}

// Snapshot is the full room state. Per-connection fields are empty until
// SnapshotFor fills them.
type Snapshot struct {
	Room        string       `json:"room"`
	HasHost     bool         `json:"hasHost"`
	Phase       state.Phase  `json:"phase"`
	Round       int          `json:"round"`
	MSLeft      int64        `json:"msLeft"`
	Paused      bool         `json:"paused"`
	RefreshIn   int          `json:"refreshIn"`
	Durations   DurationsMS  `json:"durations"`
	Settings    Settings     `json:"settings"`
	Board       BoardView    `json:"board"`
	HazardStats HazardStats  `json:"fireStats"`
	Players     []PlayerView `json:"players"`
	Encounters  []Encounter  `json:"encounters"`
	Log         []string     `json:"log"`
	EndReason   string       `json:"endReason,omitempty"`

	You              *SelfView `json:"you"`
	AvailableNumbers []int     `json:"availableNumbers"`
}

// revealed reports whether numbers are public in the current phase.
func revealed(p state.Phase) bool {
	switch p {
	case state.Resolution, state.Refresh, state.GameOver:
		return true
	}
	return false
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// Snapshot builds the shared view. Numbers stay hidden until resolution.
func (g *Game) Snapshot() Snapshot {
	phase := g.Phase()
	d := g.settings.Durations()
	every := max(1, g.settings.RefreshEvery)
	refreshIn := every
	if g.round > 0 {
		refreshIn = every - (g.round-1)%every
	}

	s := Snapshot{
		Room:      g.RoomID,
		HasHost:   g.hostConn != "",
		Phase:     phase,
		Round:     g.round,
		MSLeft:    g.Remaining().Milliseconds(),
		Paused:    g.countdown.Paused(),
		RefreshIn: refreshIn,
		Durations: DurationsMS{
			Number:     d.Number.Milliseconds(),
			Movement:   d.Movement.Milliseconds(),
			Resolution: d.Resolution.Milliseconds(),
			Refresh:    d.Refresh.Milliseconds(),
		},
		Settings: g.settings,
		Board: BoardView{
			Size:      g.size,
			Cornucore: g.cc,
			Hazards:   g.Hazards(),
			Loot:      make([]LootTile, 0, len(g.loot)),
		},
		HazardStats:      g.Stats(),
		Players:          make([]PlayerView, 0, len(g.order)),
		Encounters:       []Encounter{},
		Log:              g.Log(),
		EndReason:        g.endReason,
		AvailableNumbers: numberSet(0).Available(),
	}
	for _, c := range g.lootTiles() {
		s.Board.Loot = append(s.Board.Loot, LootTile{X: c.X, Y: c.Y, Type: g.loot[c]})
	}
	if phase == state.Resolution {
		s.Encounters = append(s.Encounters, g.encounters...)
	}
	for _, p := range g.Players() {
		v := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Color:         p.Color,
			Alive:         p.Alive(),
			Ascended:      p.Ascended(),
			VP:            p.VP,
			VPDelta:       p.VPDelta,
			Kills:         p.Kills,
			Buff:          p.Buff.String(),
			ShieldSave:    p.ShieldSave,
			Seal:          p.Seal,
			Buffs:         p.buffTags(),
			SponsorTarget: p.SponsorTarget,
			UsedNumbers:   p.UsedNumbers(),
			Picked:        p.Selected != 0,
			Steps:         p.Steps,
			Connected:     p.Connected,
		}
		if p.Ascended() {
			v.ReturnRound = p.ReturnRound
		}
		if p.Pos != nil {
			pos := *p.Pos
			v.Pos = &pos
		}
		if revealed(phase) {
			v.Number = intPtr(p.VisibleNumber())
		}
		s.Players = append(s.Players, v)
	}
	return s
}

// SnapshotFor overlays the private view of the participant bound to connID.
func (g *Game) SnapshotFor(connID string) Snapshot {
	return g.overlay(g.Snapshot(), connID)
}

func (g *Game) overlay(s Snapshot, connID string) Snapshot {
	p := g.PlayerByConn(connID)
	if p == nil {
		return s
	}
	you := &SelfView{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		Token:    p.Token,
		PIN:      p.PIN,
		Buffs:    p.buffTags(),
		Alive:    p.Alive(),
		Ascended: p.Ascended(),
		Warping:  p.warping(),
	}
	switch s.Phase {
	case state.Number, state.Movement:
		you.CurrentNumber = intPtr(p.Selected)
	default:
		you.LastNumber = intPtr(p.VisibleNumber())
	}
	if p.Ascended() {
		st := g.sponsorState(p)
		you.Sponsor = &st
	}
	s.You = you
	s.AvailableNumbers = p.AvailableNumbers()
	return s
}

// broadcastState sends every member its own filtered snapshot, plus the
// sponsor panel to Ascended participants.
func (g *Game) broadcastState() {
	if g.sink == nil {
		return
	}
	base := g.Snapshot()
	for _, connID := range g.sink.Members() {
		g.send(connID, network.EvtState, g.overlay(base, connID))
		if p := g.PlayerByConn(connID); p != nil {
			g.pushSponsorState(p)
		}
	}
}

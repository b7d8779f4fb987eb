package game

import (
	"github.com/wfunc/intersplice/geometry"
)

const (
	MinNumber = 1
	MaxNumber = 6

	maxNameLen   = 24
	defaultColor = "#00aaff"
	defaultSteps = 2
	speedSteps   = 3
	respawnDelay = 2 // rounds between elimination and the first respawn attempt
)

// Buff is the single-use consumable slot.
type Buff int

const (
	BuffNone Buff = iota
	BuffSword
	BuffShield
	BuffSpeed
	BuffWarp
)

func (b Buff) String() string {
	switch b {
	case BuffSword:
		return string(ItemSword)
	case BuffShield:
		return string(ItemShield)
	case BuffSpeed:
		return string(ItemSpeed)
	case BuffWarp:
		return string(ItemWarp)
	}
	return ""
}

// LifeState is Alive or Ascended; a participant is always exactly one.
type LifeState int

const (
	Alive LifeState = iota
	Ascended
)

func (s LifeState) String() string {
	if s == Ascended {
		return "ascended"
	}
	return "alive"
}

// numberSet is the set of values 1..6 already played this cycle.
type numberSet uint8

func (s numberSet) Has(n int) bool {
	if n < MinNumber || n > MaxNumber {
		return false
	}
	return s&(1<<uint(n)) != 0
}

func (s *numberSet) Add(n int) {
	if n >= MinNumber && n <= MaxNumber {
		*s |= 1 << uint(n)
	}
}

func (s numberSet) Full() bool {
	for n := MinNumber; n <= MaxNumber; n++ {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

func (s numberSet) Values() []int {
	out := make([]int, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s numberSet) Available() []int {
	out := make([]int, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		if !s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Player is one participant. ID is stable for the participant's lifetime in
// the room; ConnID changes on every reconnect.
type Player struct {
	ID     string
	ConnID string
	Token  string
	PIN    string
	Name   string
	Color  string

	State LifeState
	Pos   *geometry.Coord

	Selected     int
	LastRevealed int
	used         numberSet
	Target       *geometry.Coord

	Buff       Buff
	ShieldSave bool
	Seal       bool
	Steps      int

	VP      int
	VPDelta int
	Kills   int

	ReturnRound   int
	SponsorTarget string

	JustRespawned bool
	WarpLocked    bool
	Connected     bool
}

func newPlayer(id, connID, name, color string) *Player {
	if color == "" {
		color = defaultColor
	}
	return &Player{
		ID:        id,
		ConnID:    connID,
		Name:      name,
		Color:     color,
		State:     Alive,
		Steps:     defaultSteps,
		Connected: true,
	}
}

func (p *Player) Alive() bool    { return p.State == Alive }
func (p *Player) Ascended() bool { return p.State == Ascended }

// Positioned reports an Alive participant standing on the board.
func (p *Player) Positioned() bool {
	return p.State == Alive && p.Pos != nil
}

func (p *Player) UsedNumbers() []int { return p.used.Values() }

// AvailableNumbers lists values still playable this cycle. An exhausted
// history counts as a fresh cycle.
func (p *Player) AvailableNumbers() []int {
	if p.used.Full() {
		return numberSet(0).Available()
	}
	return p.used.Available()
}

func (p *Player) clearHistory() { p.used = 0 }

// choose records n as this round's pick, starting a new cycle when exhausted.
func (p *Player) choose(n int) bool {
	if n < MinNumber || n > MaxNumber {
		return false
	}
	if p.used.Full() {
		p.clearHistory()
	}
	if p.used.Has(n) {
		return false
	}
	p.Selected = n
	return true
}

// autoFill picks the lowest (Alive) or highest (Ascended) available value.
func (p *Player) autoFill() {
	if p.Selected != 0 {
		return
	}
	avail := p.AvailableNumbers()
	if p.Ascended() {
		p.choose(avail[len(avail)-1])
	} else {
		p.choose(avail[0])
	}
}

// reveal moves the current pick into history.
func (p *Player) reveal() bool {
	if p.Selected == 0 {
		return false
	}
	p.LastRevealed = p.Selected
	p.used.Add(p.Selected)
	return true
}

// VisibleNumber is the value shown once numbers are revealed.
func (p *Player) VisibleNumber() int {
	if p.Selected != 0 {
		return p.Selected
	}
	return p.LastRevealed
}

// CombatNumber is the number clamped into 1..6.
func (p *Player) CombatNumber() int {
	n := p.Selected
	if n < MinNumber {
		return MinNumber
	}
	if n > MaxNumber {
		return MaxNumber
	}
	return n
}

func (p *Player) warping() bool {
	return p.JustRespawned && p.Buff == BuffWarp
}

func (p *Player) movementBudget() int {
	switch {
	case p.Ascended():
		return 0
	case p.warping():
		return 0
	case p.Buff == BuffSpeed:
		return speedSteps
	}
	return defaultSteps
}

// setBuff replaces the consumable slot and applies its side flags.
func (p *Player) setBuff(b Buff) {
	p.Buff = b
	switch b {
	case BuffShield:
		p.ShieldSave = true
	case BuffSpeed:
		p.Steps = speedSteps
	case BuffWarp:
		p.ShieldSave = false
		p.Steps = defaultSteps
	}
}

func (p *Player) takeSeal() {
	p.ShieldSave = false
	p.Buff = BuffNone
	p.Seal = true
}

// consumeShield spends the shield save, and the Shield consumable if it was the source.
func (p *Player) consumeShield() {
	p.ShieldSave = false
	if p.Buff == BuffShield {
		p.Buff = BuffNone
	}
}

// ascend flips the participant to Ascended. It reports whether the seal was dropped.
func (p *Player) ascend(round int) (droppedSeal bool) {
	p.State = Ascended
	p.Pos = nil
	p.Target = nil
	p.ReturnRound = round + respawnDelay
	p.JustRespawned = false
	p.WarpLocked = false
	p.Buff = BuffNone
	p.ShieldSave = false
	p.Steps = 0
	droppedSeal = p.Seal
	p.Seal = false
	return droppedSeal
}

// revive places an Ascended participant back on the board with the one-shot warp.
func (p *Player) revive(at geometry.Coord) {
	p.State = Alive
	pos := at
	p.Pos = &pos
	p.SponsorTarget = ""
	p.Buff = BuffWarp
	p.JustRespawned = true
	p.WarpLocked = false
	p.Steps = 0
}

// resetForGame restores a fresh Alive participant, keeping identity and color.
func (p *Player) resetForGame() {
	p.State = Alive
	p.Pos = nil
	p.Selected = 0
	p.Target = nil
	p.used = 0
	p.Buff = BuffNone
	p.ShieldSave = false
	p.Seal = false
	p.Steps = defaultSteps
	p.VP, p.VPDelta, p.Kills = 0, 0, 0
	p.ReturnRound = 0
	p.SponsorTarget = ""
	p.JustRespawned = false
	p.WarpLocked = false
}

// buffTags lists every active buff for display.
func (p *Player) buffTags() []string {
	tags := make([]string, 0, 3)
	if p.Buff != BuffNone {
		tags = append(tags, p.Buff.String())
	}
	if p.ShieldSave && p.Buff != BuffShield {
		tags = append(tags, string(ItemShield))
	}
	if p.Seal {
		tags = append(tags, string(ItemSeal))
	}
	return tags
}

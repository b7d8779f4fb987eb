package game

import (
	"fmt"
	"strings"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
)

const (
	swordBonus = 1
	sealBonus  = 2
)

// Combatant is the part of a participant that decides an encounter.
type Combatant struct {
	ID     string
	Number int
	Sword  bool
	Seal   bool
	Shield bool
}

// Value is the clamped number plus item bonuses.
func (c Combatant) Value() int {
	v := clamp(c.Number, MinNumber, MaxNumber)
	if c.Sword {
		v += swordBonus
	}
	if c.Seal {
		v += sealBonus
	}
	return v
}

// Outcome is the pure result of one encounter.
type Outcome struct {
	Top        int
	Winners    []string
	Eliminated []string
	Saved      []string
	Pierced    bool
	// Credited is the victim count each winner is paid for: the eliminated
	// losers, or the shield-saved ones when nobody was eliminated.
	Credited int
}

func (o Outcome) Alliance() bool { return len(o.Winners) > 1 }

// ResolveEncounter decides one tile's fight. Every holder of the top value
// wins; a shielded loser survives unless some winner holds a Sword.
func ResolveEncounter(cs []Combatant) Outcome {
	var o Outcome
	for _, c := range cs {
		o.Top = max(o.Top, c.Value())
	}
	for _, c := range cs {
		if c.Value() == o.Top {
			o.Winners = append(o.Winners, c.ID)
			o.Pierced = o.Pierced || c.Sword
		}
	}
	for _, c := range cs {
		if c.Value() == o.Top {
			continue
		}
		if c.Shield && !o.Pierced {
			o.Saved = append(o.Saved, c.ID)
		} else {
			o.Eliminated = append(o.Eliminated, c.ID)
		}
	}
	o.Credited = len(o.Eliminated)
	if o.Credited == 0 {
		o.Credited = len(o.Saved)
	}
	return o
}

// Entrant is the public breakdown of one combatant's value.
type Entrant struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Color  string   `json:"color"`
	Number int      `json:"number"`
	Sword  int      `json:"sword"`
	Seal   int      `json:"seal"`
	Total  int      `json:"total"`
	Buffs  []string `json:"buffs"`
}

// Encounter is the record of one resolved fight, kept for the resolution view.
type Encounter struct {
	Tile       geometry.Coord `json:"tile"`
	Mode       string         `json:"mode"`
	Entrants   []Entrant      `json:"entrants"`
	Alliances  [][]string     `json:"alliances"`
	WinnerID   string         `json:"winnerId,omitempty"`
	Eliminated []string       `json:"eliminated"`
	Saved      []string       `json:"saved"`
	VPAward    int            `json:"vpAward"`
}

// resolveCombat runs every contested tile in row-major order.
func (g *Game) resolveCombat(byTile map[geometry.Coord][]*Player) {
	tiles := make([]geometry.Coord, 0, len(byTile))
	for c, ps := range byTile {
		if len(ps) > 1 {
			tiles = append(tiles, c)
		}
	}
	geometry.Sort(tiles)
	for _, c := range tiles {
		g.fight(c, byTile[c])
	}
	g.broadcast(network.EvtEncounterResolve, struct{}{})
}

func (g *Game) fight(tile geometry.Coord, ps []*Player) {
	cs := make([]Combatant, len(ps))
	enc := Encounter{Tile: tile, Mode: "combat", Eliminated: []string{}, Saved: []string{}}
	parts := make([]string, len(ps))
	for i, p := range ps {
		cs[i] = Combatant{
			ID:     p.ID,
			Number: p.CombatNumber(),
			Sword:  p.Buff == BuffSword,
			Seal:   p.Seal,
			Shield: p.ShieldSave,
		}
		e := Entrant{
			ID:     p.ID,
			Name:   p.Name,
			Color:  p.Color,
			Number: cs[i].Number,
			Total:  cs[i].Value(),
			Buffs:  p.buffTags(),
		}
		if cs[i].Sword {
			e.Sword = swordBonus
		}
		if cs[i].Seal {
			e.Seal = sealBonus
		}
		enc.Entrants = append(enc.Entrants, e)
		parts[i] = breakdown(e)
	}

	out := ResolveEncounter(cs)
	names := make([]string, len(out.Winners))
	for i, id := range out.Winners {
		names[i] = g.players[id].Name
	}
	enc.Alliances = [][]string{names}
	if !out.Alliance() {
		enc.WinnerID = out.Winners[0]
	}
	enc.VPAward = g.settings.EliminationVP * out.Credited
	g.broadcast(network.EvtEncounterOpen, enc)

	if out.Alliance() {
		g.logf("Encounter at %s, alliance (tie): %s", geometry.Label(tile), strings.Join(parts, "; "))
	} else {
		g.logf("Encounter at %s, combat: %s; winner: %s", geometry.Label(tile), strings.Join(parts, "; "), names[0])
	}

	for _, id := range out.Saved {
		p := g.players[id]
		p.consumeShield()
		enc.Saved = append(enc.Saved, id)
		g.logf("%s survived combat with SHIELD.", p.Name)
	}
	for _, id := range out.Eliminated {
		p := g.players[id]
		enc.Eliminated = append(enc.Eliminated, id)
		if out.Alliance() {
			g.eliminate(p, causeCombat, fmt.Sprintf("%s eliminated in combat (alliance).", p.Name))
		} else {
			g.eliminate(p, causeCombat, fmt.Sprintf("%s eliminated by %s.", p.Name, names[0]))
		}
	}
	for _, id := range out.Winners {
		w := g.players[id]
		w.Kills += len(out.Eliminated)
		if out.Credited > 0 {
			g.award(w, enc.VPAward, fmt.Sprintf("Eliminations: %d x %d", out.Credited, g.settings.EliminationVP))
		}
	}

	// Sword, Speed and Warp last a single encounter whatever the result.
	for _, p := range ps {
		switch p.Buff {
		case BuffSword, BuffSpeed, BuffWarp:
			p.Buff = BuffNone
		}
	}
	g.encounters = append(g.encounters, enc)
}

func breakdown(e Entrant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%d): %d", e.Name, e.Number, e.Number)
	if e.Sword > 0 {
		b.WriteString(" + SWORD")
	}
	if e.Seal > 0 {
		b.WriteString(" + SPACETIME_SEAL")
	}
	fmt.Fprintf(&b, " = %d", e.Total)
	return b.String()
}

package game

import (
	"math"

	"github.com/wfunc/intersplice/geometry"
	"github.com/wfunc/intersplice/network"
)

const (
	causeCombat   = "combat"
	causeHazard   = "hazard"
	causeStranded = "stranded"
)

// openEdges lists edge tiles outside the safe zone that are neither hazards
// nor under an Alive participant.
func (g *Game) openEdges() []geometry.Coord {
	occ := g.occupied()
	out := make([]geometry.Coord, 0, 4*g.size)
	for _, c := range geometry.EdgeTiles(g.size) {
		if g.cc.Contains(c) || g.IsHazard(c) || occ[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// farthestSpawn picks the open edge tile maximising the minimum Manhattan
// distance to every placed participant. Ties go to the first tile in edge order.
func (g *Game) farthestSpawn() (geometry.Coord, bool) {
	open := g.openEdges()
	if len(open) == 0 {
		return geometry.Coord{}, false
	}
	var placed []geometry.Coord
	for _, p := range g.Players() {
		if p.Positioned() {
			placed = append(placed, *p.Pos)
		}
	}
	best, bestScore := open[0], -1
	for _, c := range open {
		score := math.MaxInt
		for _, a := range placed {
			score = min(score, geometry.Manhattan(a, c))
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}

// place puts an unplaced Alive participant on the board, if a tile is free.
func (g *Game) place(p *Player) bool {
	if !p.Alive() {
		return false
	}
	c, ok := g.farthestSpawn()
	if !ok {
		g.logf("No free edge tile for %s.", p.Name)
		return false
	}
	p.Pos = &c
	return true
}

// placeAll lays the whole roster out greedily in join order.
func (g *Game) placeAll() {
	for _, p := range g.Players() {
		p.Pos = nil
	}
	for _, p := range g.Players() {
		g.place(p)
	}
}

// respawnDue brings back every Ascended participant whose return round is
// now. A participant who finds no free edge tile retries next round.
func (g *Game) respawnDue() {
	tiles := geometry.Shuffle(g.rng, g.openEdges())
	for _, p := range g.Players() {
		if !p.Ascended() || p.ReturnRound != g.round {
			continue
		}
		if len(tiles) == 0 {
			p.ReturnRound = g.round + 1
			g.logf("%s could not respawn (no safe edge tiles). Remains Ascended.", p.Name)
			continue
		}
		spot := tiles[len(tiles)-1]
		tiles = tiles[:len(tiles)-1]
		p.revive(spot)
		g.logf("%s respawned at %s with WARP.", p.Name, geometry.Label(spot))
		g.broadcast(network.EvtBuffUpdate, buffUpdate{PlayerID: p.ID, Buff: p.Buff.String()})
	}
}

// eliminate turns p Ascended and returns a held Seal to the center.
func (g *Game) eliminate(p *Player, cause, msg string) {
	if !p.Alive() {
		return
	}
	if p.ascend(g.round) {
		g.returnSeal()
	}
	g.logf("%s", msg)
	if g.hooks.OnElimination != nil {
		g.hooks.OnElimination(cause)
	}
}

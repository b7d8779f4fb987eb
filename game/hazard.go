package game

import (
	"github.com/wfunc/intersplice/geometry"
)

// ReasonHazardExhausted ends a game whose hazards can no longer spread.
const ReasonHazardExhausted = "hazard_exhausted"

// frontier lists the non-hazard, in-bounds, outside-safe-zone 4-neighbours
// of the hazard set, row-major. With avoidOccupied, tiles under Alive
// participants are left out.
func (g *Game) frontier(avoidOccupied bool) []geometry.Coord {
	var occ map[geometry.Coord]bool
	if avoidOccupied {
		occ = g.occupied()
	}
	seen := make(map[geometry.Coord]bool)
	out := make([]geometry.Coord, 0)
	for _, h := range g.Hazards() {
		for _, n := range geometry.Neighbors4(h, g.size) {
			if seen[n] || g.IsHazard(n) || g.cc.Contains(n) || occ[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	geometry.Sort(out)
	return out
}

// seedHazards places up to n pairwise non-adjacent hazards outside the safe
// zone on unoccupied tiles.
func (g *Game) seedHazards(n int) []geometry.Coord {
	occ := g.occupied()
	candidates := make([]geometry.Coord, 0, g.size*g.size)
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			c := geometry.Coord{X: x, Y: y}
			if g.cc.Contains(c) || occ[c] || g.IsHazard(c) {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	seeds := make([]geometry.Coord, 0, n)
	for _, c := range geometry.Shuffle(g.rng, candidates) {
		if len(seeds) >= n {
			break
		}
		if adjacentToAny(c, seeds) {
			continue
		}
		seeds = append(seeds, c)
	}
	for _, c := range seeds {
		g.hazards[c] = struct{}{}
	}
	return seeds
}

func adjacentToAny(c geometry.Coord, cs []geometry.Coord) bool {
	for _, o := range cs {
		if geometry.Manhattan(c, o) == 1 {
			return true
		}
	}
	return false
}

// expandHazards adds up to n random tiles from the occupancy-aware frontier.
// It reports exhaustion only when nothing was added and the frontier is empty
// even ignoring occupancy.
func (g *Game) expandHazards(n int) (added []geometry.Coord, exhausted bool) {
	front := geometry.Shuffle(g.rng, g.frontier(true))
	if len(front) > n {
		front = front[:n]
	}
	for _, c := range front {
		g.hazards[c] = struct{}{}
	}
	if len(front) == 0 {
		return nil, len(g.frontier(false)) == 0
	}
	return front, false
}

// refreshHazards seeds an empty board or grows an existing hazard set. A
// zero rate disables the engine, so it can never exhaust.
func (g *Game) refreshHazards() (exhausted bool) {
	n := g.settings.HazardsPerRefresh
	if n <= 0 {
		return false
	}
	if len(g.hazards) == 0 {
		seeds := g.seedHazards(n)
		if len(seeds) == 0 {
			return true
		}
		g.logf("Refresh: %d hazard seed(s) ignited.", len(seeds))
		return false
	}
	added, exhausted := g.expandHazards(n)
	if len(added) > 0 {
		g.logf("Refresh: hazards spread to %d tile(s).", len(added))
	}
	return exhausted
}

// HazardStats are derived numbers for display only.
type HazardStats struct {
	BurnableTotal         int `json:"burnableTotal"`
	Burned                int `json:"burned"`
	Remaining             int `json:"remaining"`
	Frontier              int `json:"frontier"`
	FrontierOpen          int `json:"frontierIgnoreOccupied"`
	HazardsPerRefresh     int `json:"firesPerRefresh"`
	RefreshesLeft         int `json:"refreshesLeft"`
	RefreshesLeftFrontier int `json:"refreshesLeftFrontier"`
	RefreshEvery          int `json:"refreshEvery"`
	RoundsUntilRefresh    int `json:"roundsUntilRefresh"`
}

// Stats computes HazardStats. An estimate that would be unbounded is -1.
func (g *Game) Stats() HazardStats {
	st := HazardStats{
		BurnableTotal:     max(0, g.size*g.size-g.cc.Area()),
		HazardsPerRefresh: g.settings.HazardsPerRefresh,
		RefreshEvery:      max(1, g.settings.RefreshEvery),
	}
	for c := range g.hazards {
		if !g.cc.Contains(c) {
			st.Burned++
		}
	}
	st.Remaining = max(0, st.BurnableTotal-st.Burned)
	st.Frontier = len(g.frontier(false))
	st.FrontierOpen = len(g.frontier(true))

	st.RefreshesLeft = ceilDiv(st.Remaining, st.HazardsPerRefresh)
	st.RefreshesLeftFrontier = ceilDiv(st.Remaining, min(st.HazardsPerRefresh, st.FrontierOpen))
	st.RoundsUntilRefresh = (st.RefreshEvery - g.round%st.RefreshEvery) % st.RefreshEvery
	if st.RoundsUntilRefresh == 0 {
		st.RoundsUntilRefresh = st.RefreshEvery
	}
	return st
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return -1
	}
	return (a + b - 1) / b
}

package game

import (
	"fmt"

	"github.com/wfunc/intersplice/geometry"
)

// WarpRingReason is the move rejection sent to a warping participant who
// picks a tile off the safe-zone ring.
const WarpRingReason = "must choose a safe-zone ring tile while warping"

// LegalMoves returns the destinations p may declare, row-major. A warping
// participant may pick any ring tile until a destination is chosen, then
// only that tile.
func (g *Game) LegalMoves(p *Player) []geometry.Coord {
	if p == nil || !p.Alive() {
		return []geometry.Coord{}
	}
	if p.warping() {
		if p.WarpLocked && p.Target != nil {
			return []geometry.Coord{*p.Target}
		}
		ring := g.cc.Ring()
		geometry.Sort(ring)
		return ring
	}
	if p.Pos == nil {
		return []geometry.Coord{}
	}
	budget := p.movementBudget()
	out := make([]geometry.Coord, 0, 2*budget*(budget+1))
	for dy := -budget; dy <= budget; dy++ {
		for dx := -budget; dx <= budget; dx++ {
			d := abs(dx) + abs(dy)
			if d == 0 || d > budget {
				continue
			}
			c := geometry.Coord{X: p.Pos.X + dx, Y: p.Pos.Y + dy}
			if !geometry.InBounds(c, g.size) || g.IsHazard(c) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func contains(cs []geometry.Coord, c geometry.Coord) bool {
	for _, o := range cs {
		if o == c {
			return true
		}
	}
	return false
}

// commitMovement moves every positioned participant to its declared target
// when legal, otherwise to a random legal tile. A participant with nowhere
// to go is eliminated on the spot.
func (g *Game) commitMovement() {
	for _, p := range g.Players() {
		if !p.Positioned() {
			continue
		}
		legal := g.LegalMoves(p)
		if len(legal) == 0 {
			g.eliminate(p, causeStranded, fmt.Sprintf("%s eliminated by fire (no legal moves).", p.Name))
			continue
		}
		var dst geometry.Coord
		if p.Target != nil && contains(legal, *p.Target) {
			dst = *p.Target
		} else {
			dst = legal[g.rng.IntN(len(legal))]
		}
		p.Pos = &dst
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

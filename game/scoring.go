package game

import (
	"sort"
	"strings"

	"github.com/wfunc/intersplice/network"
)

// award credits amount to p and mirrors it to every Ascended participant
// sponsoring p.
func (g *Game) award(p *Player, amount int, reason string) {
	if amount == 0 {
		return
	}
	p.VP += amount
	p.VPDelta += amount
	g.logf("%s +%d VP (%s).", p.Name, amount, reason)
	for _, s := range g.Players() {
		if s.Ascended() && s.SponsorTarget == p.ID {
			s.VP += amount
			s.VPDelta += amount
			g.logf("Sponsor %s +%d VP (mirrors %s).", s.Name, amount, p.Name)
		}
	}
}

// awardEndOfRound pays survival, sanctum and center bonuses to every Alive participant.
func (g *Game) awardEndOfRound() {
	st := g.settings
	for _, p := range g.Players() {
		if !p.Alive() {
			continue
		}
		if st.SurvivalEnabled {
			g.award(p, st.SurvivalVP, "Survival")
		}
		if p.Pos == nil {
			continue
		}
		if st.SanctumEnabled && g.cc.InSanctum(*p.Pos) {
			g.award(p, st.SanctumVP, "Inner Sanctum")
		}
		if g.cc.IsCenter(*p.Pos) {
			g.award(p, st.CenterVP, "Center")
		}
	}
}

// Standing is one row of the leaderboard.
type Standing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	VP       int    `json:"vp"`
	Kills    int    `json:"kills"`
	Alive    bool   `json:"isAlive"`
	Ascended bool   `json:"isSponsor"`
}

// Ranking orders the roster by VP, then Alive before Ascended, then name.
func (g *Game) Ranking() []Standing {
	out := make([]Standing, 0, len(g.order))
	for _, p := range g.Players() {
		out = append(out, Standing{
			ID:       p.ID,
			Name:     p.Name,
			Color:    p.Color,
			VP:       p.VP,
			Kills:    p.Kills,
			Alive:    p.Alive(),
			Ascended: p.Ascended(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.VP != b.VP {
			return a.VP > b.VP
		}
		if a.Alive != b.Alive {
			return a.Alive
		}
		return nameLess(a.Name, b.Name)
	})
	return out
}

// nameLess orders names case-insensitively, falling back to byte order.
func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// SponsorTarget is one Alive participant an Ascended one may back.
type SponsorTarget struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
	VP    int      `json:"vp"`
	Buffs []string `json:"buffs"`
}

type SponsorState struct {
	EligibleTargets []SponsorTarget `json:"eligibleTargets"`
	SelectedID      string          `json:"selectedId"`
}

func (g *Game) sponsorState(s *Player) SponsorState {
	st := SponsorState{EligibleTargets: []SponsorTarget{}, SelectedID: s.SponsorTarget}
	for _, p := range g.Players() {
		if !p.Alive() || p.ID == s.ID {
			continue
		}
		st.EligibleTargets = append(st.EligibleTargets, SponsorTarget{
			ID:    p.ID,
			Name:  p.Name,
			Color: p.Color,
			VP:    p.VP,
			Buffs: p.buffTags(),
		})
	}
	return st
}

func (g *Game) pushSponsorState(s *Player) {
	if s.Ascended() {
		g.sendToPlayer(s, network.EvtSponsorState, g.sponsorState(s))
	}
}

// validSponsorTarget reports whether id names an Alive participant other than s.
func (g *Game) validSponsorTarget(s *Player, id string) bool {
	t := g.players[id]
	return t != nil && t.ID != s.ID && t.Alive()
}

// autoAssignSponsors gives every Ascended participant without a live target
// the lowest-VP Alive participant, ties broken by name.
func (g *Game) autoAssignSponsors() {
	var eligible []*Player
	for _, p := range g.Players() {
		if p.Alive() {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].VP != eligible[j].VP {
			return eligible[i].VP < eligible[j].VP
		}
		return nameLess(eligible[i].Name, eligible[j].Name)
	})

	for _, s := range g.Players() {
		if !s.Ascended() || g.validSponsorTarget(s, s.SponsorTarget) {
			continue
		}
		s.SponsorTarget = ""
		for _, t := range eligible {
			if t.ID != s.ID {
				s.SponsorTarget = t.ID
				g.logf("%s is now sponsoring %s.", s.Name, t.Name)
				break
			}
		}
		g.pushSponsorState(s)
	}
}

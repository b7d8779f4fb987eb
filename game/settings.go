package game

import (
	"time"
)

const (
	DefaultBoardSize = 10
	MinBoardSize     = 8
	MaxBoardSize     = 64
)

// Settings are the host-tunable numbers of a room. They survive reset.
type Settings struct {
	HazardsPerRefresh int  `json:"firesPerRefresh"`
	LootPerRefresh    int  `json:"buffsPerRefresh"`
	ShowPhaseTimer    bool `json:"showPhaseTimer"`

	NumberSeconds     int `json:"numberSec"`
	MovementSeconds   int `json:"movementSec"`
	ResolutionSeconds int `json:"resolutionSec"`
	RefreshSeconds    int `json:"refreshSec"`
	RefreshEvery      int `json:"refreshEvery"`

	EliminationVP    int  `json:"eliminationVP"`
	RenownVP         int  `json:"renownChipVP"`
	SurvivalEnabled  bool `json:"survivalPerRoundEnabled"`
	SurvivalVP       int  `json:"survivalPerRoundVP"`
	SanctumEnabled   bool `json:"innerSanctumEnabled"`
	SanctumVP        int  `json:"innerSanctumVP"`
	CenterVP         int  `json:"centerTileVP"`
	LastStandingEnds bool `json:"lastStandingEnds"`
}

func DefaultSettings() Settings {
	return Settings{
		HazardsPerRefresh: 5,
		LootPerRefresh:    5,
		ShowPhaseTimer:    true,
		NumberSeconds:     5,
		MovementSeconds:   5,
		ResolutionSeconds: 10,
		RefreshSeconds:    3,
		RefreshEvery:      6,
		EliminationVP:     10,
		RenownVP:          5,
		SurvivalEnabled:   true,
		SurvivalVP:        1,
		SanctumEnabled:    true,
		SanctumVP:         2,
		CenterVP:          0,
	}
}

// SettingsPatch carries a partial update; nil fields are left alone.
type SettingsPatch struct {
	HazardsPerRefresh *int
	LootPerRefresh    *int
	ShowPhaseTimer    *bool
	NumberSeconds     *int
	MovementSeconds   *int
	ResolutionSeconds *int
	RefreshSeconds    *int
	RefreshEvery      *int
	EliminationVP     *int
	RenownVP          *int
	SurvivalEnabled   *bool
	SurvivalVP        *int
	SanctumEnabled    *bool
	SanctumVP         *int
	CenterVP          *int
	LastStandingEnds  *bool
}

// Apply merges the patch, clamping every number into its legal range.
func (s *Settings) Apply(p SettingsPatch) {
	setInt(&s.HazardsPerRefresh, p.HazardsPerRefresh, 0, 100)
	setInt(&s.LootPerRefresh, p.LootPerRefresh, 0, 10)
	setBool(&s.ShowPhaseTimer, p.ShowPhaseTimer)
	setInt(&s.NumberSeconds, p.NumberSeconds, 0, 120)
	setInt(&s.MovementSeconds, p.MovementSeconds, 0, 120)
	setInt(&s.ResolutionSeconds, p.ResolutionSeconds, 0, 120)
	setInt(&s.RefreshSeconds, p.RefreshSeconds, 0, 120)
	setInt(&s.RefreshEvery, p.RefreshEvery, 1, 10)
	setInt(&s.EliminationVP, p.EliminationVP, 0, 100)
	setInt(&s.RenownVP, p.RenownVP, 0, 20)
	setBool(&s.SurvivalEnabled, p.SurvivalEnabled)
	setInt(&s.SurvivalVP, p.SurvivalVP, 0, 10)
	setBool(&s.SanctumEnabled, p.SanctumEnabled)
	setInt(&s.SanctumVP, p.SanctumVP, 0, 10)
	setInt(&s.CenterVP, p.CenterVP, 0, 10)
	setBool(&s.LastStandingEnds, p.LastStandingEnds)
}

// Normalize clamps a whole settings value, e.g. one built from configuration.
func (s Settings) Normalize() Settings {
	out := s
	out.Apply(SettingsPatch{
		HazardsPerRefresh: &s.HazardsPerRefresh,
		LootPerRefresh:    &s.LootPerRefresh,
		NumberSeconds:     &s.NumberSeconds,
		MovementSeconds:   &s.MovementSeconds,
		ResolutionSeconds: &s.ResolutionSeconds,
		RefreshSeconds:    &s.RefreshSeconds,
		RefreshEvery:      &s.RefreshEvery,
		EliminationVP:     &s.EliminationVP,
		RenownVP:          &s.RenownVP,
		SurvivalVP:        &s.SurvivalVP,
		SanctumVP:         &s.SanctumVP,
		CenterVP:          &s.CenterVP,
	})
	return out
}

// Durations is the per-phase timing derived from Settings.
type Durations struct {
	Number     time.Duration `json:"number"`
	Movement   time.Duration `json:"movement"`
	Resolution time.Duration `json:"resolution"`
	Refresh    time.Duration `json:"refresh"`
}

func (s Settings) Durations() Durations {
	return Durations{
		Number:     time.Duration(s.NumberSeconds) * time.Second,
		Movement:   time.Duration(s.MovementSeconds) * time.Second,
		Resolution: time.Duration(s.ResolutionSeconds) * time.Second,
		Refresh:    time.Duration(s.RefreshSeconds) * time.Second,
	}
}

func ClampBoardSize(n int) int {
	if n <= 0 {
		return DefaultBoardSize
	}
	return clamp(n, MinBoardSize, MaxBoardSize)
}

func setInt(dst *int, v *int, lo, hi int) {
	if v != nil {
		*dst = clamp(*v, lo, hi)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// models/models.go
package models

import (
	"time"
)

// GameRecord is the archived outcome of one finished game.
type GameRecord struct {
	ID        uint       `json:"id,omitempty"`
	RoomID    string     `json:"room_id"`
	Reason    string     `json:"reason"`
	Rounds    int        `json:"rounds"`
	WinnerID  string     `json:"winner_id,omitempty"`
	Winner    string     `json:"winner,omitempty"`
	WinnerVP  int        `json:"winner_vp"`
	Standings []Standing `json:"standings"`
	EndedAt   time.Time  `json:"ended_at"`
}

// Standing is one leaderboard row of a GameRecord.
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	VP       int    `json:"vp"`
	Kills    int    `json:"kills"`
	Alive    bool   `json:"alive"`
}

// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID    string     `gorm:"index;not null"`
	Reason    string     `gorm:"not null"`
	Rounds    int        `gorm:"default:0"`
	WinnerID  string     `gorm:"index"`
	Winner    string     `gorm:"size:64"`
	WinnerVP  int        `gorm:"default:0"`
	Standings []Standing `gorm:"type:jsonb;serializer:json;not null"`
	EndedAt   time.Time  `gorm:"index;not null"`
}

func (GormGameRecord) TableName() string { return "game_records" }

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RoomID:    r.RoomID,
		Reason:    r.Reason,
		Rounds:    r.Rounds,
		WinnerID:  r.WinnerID,
		Winner:    r.Winner,
		WinnerVP:  r.WinnerVP,
		Standings: r.Standings,
		EndedAt:   r.EndedAt,
	}
}

func (g *GormGameRecord) Record() GameRecord {
	return GameRecord{
		ID:        g.ID,
		RoomID:    g.RoomID,
		Reason:    g.Reason,
		Rounds:    g.Rounds,
		WinnerID:  g.WinnerID,
		Winner:    g.Winner,
		WinnerVP:  g.WinnerVP,
		Standings: g.Standings,
		EndedAt:   g.EndedAt,
	}
}

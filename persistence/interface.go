// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/intersplice/config"
	"github.com/wfunc/intersplice/models"
)

// Recorder archives finished games. It is a history log only; rooms never
// read their state back from it.
type Recorder interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	// RecentGameRecords lists the newest records first; an empty roomID
	// means every room.
	RecentGameRecords(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error)
	GameRecord(ctx context.Context, id uint) (models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

const (
	DriverGorm = "gorm"
	DriverSQL  = "sql"

	defaultLimit = 20
	maxLimit     = 200
)

// Open connects the recorder selected by cfg. A disabled database yields Nop.
func Open(cfg config.DatabaseConfig) (Recorder, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	pg := cfg.Postgres
	switch cfg.Driver {
	case DriverGorm, "":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case DriverSQL:
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

// Nop discards every record.
type Nop struct{}

func (Nop) SaveGameRecord(context.Context, *models.GameRecord) error { return nil }

func (Nop) RecentGameRecords(context.Context, string, int) ([]models.GameRecord, error) {
	return []models.GameRecord{}, nil
}

func (Nop) GameRecord(context.Context, uint) (models.GameRecord, error) {
	return models.GameRecord{}, ErrRecordNotFound
}

func (Nop) Close() error { return nil }

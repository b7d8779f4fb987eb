// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/intersplice/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables creates the same game_records layout the gorm driver migrates,
// so either driver can read the other's rows.
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_id TEXT NOT NULL,
            reason TEXT NOT NULL,
            rounds BIGINT DEFAULT 0,
            winner_id TEXT,
            winner VARCHAR(64),
            winner_vp BIGINT DEFAULT 0,
            standings JSONB NOT NULL,
            ended_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_winner_id ON game_records(winner_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_ended_at ON game_records(ended_at);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	standings, err := json.Marshal(record.Standings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, reason, rounds, winner_id, winner, winner_vp, standings, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	var id int64
	err = p.db.QueryRowContext(ctx, query,
		record.RoomID,
		record.Reason,
		record.Rounds,
		record.WinnerID,
		record.Winner,
		record.WinnerVP,
		standings,
		record.EndedAt,
	).Scan(&id)
	if err != nil {
		return err
	}
	record.ID = uint(id)
	return nil
}

func (p *PostgreSQL) RecentGameRecords(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        SELECT id, room_id, reason, rounds, COALESCE(winner_id, ''), COALESCE(winner, ''), winner_vp, standings, ended_at
        FROM game_records
        WHERE deleted_at IS NULL AND ($1 = '' OR room_id = $1)
        ORDER BY ended_at DESC
        LIMIT $2
    `
	rows, err := p.db.QueryContext(ctx, query, roomID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.GameRecord, 0)
	for rows.Next() {
		var (
			r         models.GameRecord
			id        int64
			standings []byte
		)
		if err := rows.Scan(&id, &r.RoomID, &r.Reason, &r.Rounds, &r.WinnerID, &r.Winner, &r.WinnerVP, &standings, &r.EndedAt); err != nil {
			return nil, err
		}
		r.ID = uint(id)
		if err := json.Unmarshal(standings, &r.Standings); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GameRecord loads one record by id.
func (p *PostgreSQL) GameRecord(ctx context.Context, id uint) (models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		r         models.GameRecord
		standings []byte
	)
	query := `
        SELECT room_id, reason, rounds, COALESCE(winner_id, ''), COALESCE(winner, ''), winner_vp, standings, ended_at
        FROM game_records WHERE id = $1 AND deleted_at IS NULL
    `
	err := p.db.QueryRowContext(ctx, query, id).Scan(&r.RoomID, &r.Reason, &r.Rounds, &r.WinnerID, &r.Winner, &r.WinnerVP, &standings, &r.EndedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.GameRecord{}, ErrRecordNotFound
		}
		return models.GameRecord{}, err
	}
	r.ID = id
	return r, json.Unmarshal(standings, &r.Standings)
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rl-arena/arena-matchmaker/pkg/logger"
)

type DB struct {
	*sql.DB
}

// Connect 데이터베이스 연결
func Connect(databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected successfully")

	return &DB{db}, nil
}

const statsSchema = `
CREATE TABLE IF NOT EXISTS player_stats (
	id          BIGSERIAL PRIMARY KEY,
	player_name TEXT        NOT NULL,
	match_id    TEXT        NOT NULL DEFAULT '',
	kills       INTEGER     NOT NULL DEFAULT 0,
	deaths      INTEGER     NOT NULL DEFAULT 0,
	score       INTEGER     NOT NULL DEFAULT 0,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_player_stats_player_name ON player_stats (player_name);
`

// Migrate 전적 테이블 생성 (idempotent)
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, statsSchema); err != nil {
		return fmt.Errorf("failed to migrate player_stats: %w", err)
	}
	return nil
}

// Close 데이터베이스 연결 종료
func (db *DB) Close() error {
	return db.DB.Close()
}

package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the database. Migrations are applied when migrate is true.
func Connect(ctx context.Context, dsn string, maxOpenConns int, migrate bool) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if migrate {
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return db, nil
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL,
            city TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS matches (
            id BIGSERIAL PRIMARY KEY,
            user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user1_swiped BOOLEAN NOT NULL DEFAULT FALSE,
            user2_swiped BOOLEAN NOT NULL DEFAULT FALSE,
            status TEXT NOT NULL DEFAULT 'pending',
            swiped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            matched_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (user1_id <> user2_id)
        );`,
	`ALTER TABLE matches ADD COLUMN IF NOT EXISTS user1_decision TEXT NOT NULL DEFAULT '';`,
	`ALTER TABLE matches ADD COLUMN IF NOT EXISTS user2_decision TEXT NOT NULL DEFAULT '';`,
	`UPDATE matches SET user1_decision = 'dislike' WHERE status = 'dislike1' AND user1_swiped AND user1_decision = '';`,
	`UPDATE matches SET user2_decision = 'dislike' WHERE status = 'dislike2' AND user2_swiped AND user2_decision = '';`,
	`CREATE UNIQUE INDEX IF NOT EXISTS matches_pair_uniq
            ON matches (LEAST(user1_id, user2_id), GREATEST(user1_id, user2_id));`,
	`CREATE INDEX IF NOT EXISTS matches_user2_status_idx ON matches (user2_id, status);`,
	`CREATE TABLE IF NOT EXISTS blocked_users (
            blocker_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            blocked_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (blocker_id, blocked_id)
        );`,
	`CREATE TABLE IF NOT EXISTS reports (
            id BIGSERIAL PRIMARY KEY,
            reporter_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            reported_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            report_type TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (reporter_id, reported_id)
        );`,
	`CREATE TABLE IF NOT EXISTS notifications (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            event_id TEXT NOT NULL,
            type TEXT NOT NULL,
            payload JSONB NOT NULL DEFAULT '{}'::jsonb,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user_id, event_id)
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            match_id BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            recalled BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS messages_match_created_idx ON messages (match_id, created_at);`,
}

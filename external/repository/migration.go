package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		body TEXT,
		source_lang TEXT NOT NULL DEFAULT 'EN',
		is_file_share BOOLEAN NOT NULL DEFAULT FALSE,
		files JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_expires_at ON messages (expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_is_file_share ON messages (is_file_share)`,
	`CREATE TABLE IF NOT EXISTS files (
		file_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size BIGINT NOT NULL,
		url TEXT NOT NULL,
		user_id TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orphaned_files (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		file_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		orphaned_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS translation_cache (
		cache_key TEXT PRIMARY KEY,
		translation TEXT NOT NULL,
		provider TEXT NOT NULL,
		tone TEXT NOT NULL DEFAULT '',
		cached_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_translation_cache_expires ON translation_cache (expires_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airchat/globaltalk/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, input repository.CreateMessageInput) (*repository.Message, error) {
	files := input.Files
	if files == nil {
		files = []repository.FileRef{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("encode file refs: %w", err)
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO messages (user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at`,
		input.UserID, input.UserName, nullableText(input.Body), input.SourceLang,
		input.IsFileShare, filesJSON, input.CreatedAt, input.ExpiresAt)
	return scanMessage(row)
}

func (r *PostgresRepository) GetMessage(ctx context.Context, id string) (*repository.Message, error) {
	// The id column is UUID; a malformed id can never match a row, so it is
	// not-found rather than a query error.
	if !validMessageID(id) {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at
		 FROM messages WHERE id = $1`, id)
	msg, err := scanMessage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func (r *PostgresRepository) ListRecentMessages(ctx context.Context, limit int) ([]repository.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at
		 FROM (
		     SELECT * FROM messages ORDER BY created_at DESC LIMIT $1
		 ) recent
		 ORDER BY created_at ASC`, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *PostgresRepository) ListMessagesPage(ctx context.Context, page, limit int) ([]repository.Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at
		 FROM messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *PostgresRepository) DeleteMessage(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) ListExpiredMessages(ctx context.Context, cutoff time.Time, limit int) ([]repository.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, body, source_lang, is_file_share, files, created_at, expires_at
		 FROM messages WHERE expires_at < $1 ORDER BY created_at ASC LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *PostgresRepository) DeleteMessagesByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = ANY($1::uuid[])`, ids)
	return err
}

func (r *PostgresRepository) RemoveFileFromMessages(ctx context.Context, fileID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE messages
		 SET files = COALESCE((
		     SELECT jsonb_agg(f) FROM jsonb_array_elements(files) AS f
		     WHERE f->>'fileId' <> $1
		 ), '[]'::jsonb)
		 WHERE files @> jsonb_build_array(jsonb_build_object('fileId', $1::text))
		 RETURNING id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) CreateFile(ctx context.Context, file repository.FileRef) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO files (file_id, name, mime_type, size, url, user_id, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		file.FileID, file.Name, file.MimeType, file.Size, file.URL, file.UserID)
	return err
}

func (r *PostgresRepository) GetFile(ctx context.Context, fileID string) (*repository.FileRef, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT file_id, name, mime_type, size, url, user_id FROM files WHERE file_id = $1`, fileID)
	var f repository.FileRef
	err := row.Scan(&f.FileID, &f.Name, &f.MimeType, &f.Size, &f.URL, &f.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *PostgresRepository) DeleteFile(ctx context.Context, fileID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM files WHERE file_id = $1`, fileID)
	return err
}

func (r *PostgresRepository) MarkFileOrphaned(ctx context.Context, input repository.MarkFileOrphanedInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO orphaned_files (file_id, message_id, reason, orphaned_at)
		 VALUES ($1, $2, $3, $4)`,
		input.FileID, input.MessageID, input.Reason, input.OrphanedAt)
	return err
}

func (r *PostgresRepository) GetCachedTranslation(ctx context.Context, key string) (*repository.CachedTranslation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT translation, provider, tone, cached_at
		 FROM translation_cache WHERE cache_key = $1 AND expires_at > NOW()`, key)
	var entry repository.CachedTranslation
	err := row.Scan(&entry.Translation, &entry.Provider, &entry.Tone, &entry.CachedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresRepository) PutCachedTranslation(ctx context.Context, key string, entry repository.CachedTranslation, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO translation_cache (cache_key, translation, provider, tone, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (cache_key) DO UPDATE
		 SET translation = EXCLUDED.translation, provider = EXCLUDED.provider,
		     tone = EXCLUDED.tone, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		key, entry.Translation, entry.Provider, entry.Tone, entry.CachedAt, expiresAt)
	return err
}

func validMessageID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*repository.Message, error) {
	var m repository.Message
	var body *string
	var filesJSON []byte
	err := row.Scan(&m.ID, &m.UserID, &m.UserName, &body, &m.SourceLang,
		&m.IsFileShare, &filesJSON, &m.CreatedAt, &m.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if body != nil {
		m.Body = *body
	}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &m.Files); err != nil {
			return nil, fmt.Errorf("decode file refs: %w", err)
		}
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]repository.Message, error) {
	defer rows.Close()
	var list []repository.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

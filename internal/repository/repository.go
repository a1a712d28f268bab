package repository

import (
	"context"
	"time"
)

type CreateMessageInput struct {
	UserID      string
	UserName    string
	Body        string
	SourceLang  string
	IsFileShare bool
	Files       []FileRef
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type MarkFileOrphanedInput struct {
	FileID     string
	MessageID  string
	Reason     string
	OrphanedAt time.Time
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, input CreateMessageInput) (*Message, error)
	// GetMessage returns (nil, nil) when no message has the given id.
	GetMessage(ctx context.Context, id string) (*Message, error)
	// ListRecentMessages returns up to limit of the newest messages in
	// chronological order.
	ListRecentMessages(ctx context.Context, limit int) ([]Message, error)
	// ListMessagesPage returns one page (1-based) of messages, newest first,
	// along with the total message count.
	ListMessagesPage(ctx context.Context, page, limit int) ([]Message, int, error)
	DeleteMessage(ctx context.Context, id string) error
	// ListExpiredMessages returns up to limit messages with expires_at before
	// the cutoff, oldest first.
	ListExpiredMessages(ctx context.Context, cutoff time.Time, limit int) ([]Message, error)
	// DeleteMessagesByID removes all given messages in a single statement.
	DeleteMessagesByID(ctx context.Context, ids []string) error
	// RemoveFileFromMessages strips the file reference from every message that
	// embeds it and returns the ids of the affected messages.
	RemoveFileFromMessages(ctx context.Context, fileID string) ([]string, error)
}

type FileRepository interface {
	CreateFile(ctx context.Context, file FileRef) error
	// GetFile returns (nil, nil) when no file has the given id.
	GetFile(ctx context.Context, fileID string) (*FileRef, error)
	DeleteFile(ctx context.Context, fileID string) error
	MarkFileOrphaned(ctx context.Context, input MarkFileOrphanedInput) error
}

type TranslationCacheRepository interface {
	// GetCachedTranslation returns (nil, nil) on miss or when the entry has
	// passed its expiry.
	GetCachedTranslation(ctx context.Context, key string) (*CachedTranslation, error)
	PutCachedTranslation(ctx context.Context, key string, entry CachedTranslation, expiresAt time.Time) error
}

type Repository interface {
	MessageRepository
	FileRepository
	TranslationCacheRepository
}

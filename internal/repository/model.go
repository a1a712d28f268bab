package repository

import "time"

type Message struct {
	ID          string
	UserID      string
	UserName    string
	Body        string
	SourceLang  string
	IsFileShare bool
	Files       []FileRef
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// FileRef carries json tags because the same shape is stored in the
// messages.files jsonb column and sent to clients verbatim.
type FileRef struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
	UserID   string `json:"userId"`
}

type OrphanedFile struct {
	FileID     string
	MessageID  string
	Reason     string
	OrphanedAt time.Time
}

type CachedTranslation struct {
	Translation string
	Provider    string
	Tone        string
	CachedAt    time.Time
}

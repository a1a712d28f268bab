// Package storage defines the blob store collaborator that holds uploaded
// file contents. File lifecycle is independent of message lifecycle.
package storage

import (
	"context"
	"io"
)

type SavedFile struct {
	FileID   string
	Name     string
	MimeType string
	Size     int64
	// URL is absolute and resolvable by any client.
	URL string
}

type BlobStore interface {
	Save(ctx context.Context, name, mimeType string, r io.Reader) (*SavedFile, error)
	Delete(ctx context.Context, fileID string) error
}

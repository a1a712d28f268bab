package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/airchat/globaltalk/internal/storage"
)

// LocalBlobStore keeps uploaded files on the local filesystem and serves them
// through the relay's own /uploads route. A drop-in stand-in for a hosted
// object store.
type LocalBlobStore struct {
	dir           string
	publicBaseURL string
}

func NewLocalBlobStore(dir, publicBaseURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalBlobStore{
		dir:           dir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

func (s *LocalBlobStore) Save(ctx context.Context, name, mimeType string, r io.Reader) (*storage.SavedFile, error) {
	fileID := uuid.NewString()
	stored := fileID + sanitizedExt(name)
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create blob file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write blob file: %w", err)
	}

	return &storage.SavedFile{
		FileID:   fileID,
		Name:     name,
		MimeType: mimeType,
		Size:     size,
		URL:      s.publicBaseURL + "/uploads/" + stored,
	}, nil
}

func (s *LocalBlobStore) Delete(ctx context.Context, fileID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, fileID+"*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("remove blob file: %w", err)
		}
	}
	return nil
}

// Dir returns the directory blobs are stored in, for static serving.
func (s *LocalBlobStore) Dir() string { return s.dir }

func sanitizedExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return strings.ToLower(ext)
}

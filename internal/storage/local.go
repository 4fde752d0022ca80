package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/propstack/claimsgo/internal/claims"
)

// LocalStore writes uploads to a directory on disk, scoped by the provided
// keys (property id, claim id). It satisfies the claims.Storage interface;
// only the returned reference reaches the database.
type LocalStore struct {
	baseDir string
	baseURL string
}

// NewLocalStore creates a disk-backed document store
func NewLocalStore(baseDir, baseURL string) *LocalStore {
	return &LocalStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload persists the bytes and returns the reference to store
func (s *LocalStore) Upload(ctx context.Context, data []byte, mimeType, name string, scopeKeys []string) (*claims.StoredObject, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	scope := filepath.Join(scopeKeys...)
	dir := filepath.Join(s.baseDir, scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	key := uuid.New().String() + sanitizeExt(name)
	path := filepath.Join(dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &claims.StoredObject{
		URL:      s.baseURL + "/files/" + filepath.ToSlash(filepath.Join(scope, key)),
		Size:     int64(len(data)),
		MimeType: mimeType,
	}, nil
}

// sanitizeExt keeps only a safe file extension from the original name
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore writes recipe images below a media directory served by the API.
type LocalStore struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// NewLocalStore creates a store writing to dir and returning URLs under
// baseURL.
func NewLocalStore(dir, baseURL string, logger *zap.Logger) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Dir returns the media directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes data to <dir>/recipes/<uuid>.<ext>.
func (s *LocalStore) Save(ctx context.Context, data []byte, contentType, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(ext)
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	s.logger.Debug("stored recipe image", zap.String("path", path), zap.String("content_type", contentType))
	return s.baseURL + "/" + key, nil
}

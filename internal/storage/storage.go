package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"go.uber.org/zap"
)

// Store saves an image and returns the URL it is served from.
type Store interface {
	Save(ctx context.Context, data []byte, contentType, ext string) (string, error)
}

// FromConfig builds the S3 store when a bucket is configured and a local
// media store otherwise. mediaDir is the directory to serve, empty for S3.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store Store, mediaDir string, err error) {
	if cfg.UsesS3() {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		logger.Info("storing images in s3", zap.String("bucket", s3cfg.BucketName))
		return NewS3Store(s3cfg, logger), "", nil
	}
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create media dir: %w", err)
	}
	logger.Info("storing images locally", zap.String("dir", cfg.MediaDir))
	local := NewLocalStore(cfg.MediaDir, cfg.MediaURL, logger)
	return local, local.Dir(), nil
}

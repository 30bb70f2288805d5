package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"go.uber.org/zap"
)

// ObjectPutter is the part of the S3 client the store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads recipe images to a bucket.
type S3Store struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewS3Store creates a store over an initialized S3 config.
func NewS3Store(cfg *config.S3Config, logger *zap.Logger) *S3Store {
	return newS3Store(cfg.Client, cfg.BucketName, cfg.PublicURL, logger)
}

func newS3Store(client ObjectPutter, bucket, publicURL string, logger *zap.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, publicURL: publicURL, logger: logger}
}

// Save uploads data under recipes/<uuid>.<ext> and returns its public URL.
func (s *S3Store) Save(ctx context.Context, data []byte, contentType, ext string) (string, error) {
	key := objectKey(ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.publicURL + "/" + key
	s.logger.Info("uploaded recipe image", zap.String("url", publicURL), zap.Int("bytes", len(data)))
	return publicURL, nil
}

func objectKey(ext string) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)
}

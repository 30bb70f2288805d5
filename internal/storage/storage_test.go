package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/foodgram/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3StoreSave(t *testing.T) {
	putter := &mockPutter{}
	putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "foodgram-media" &&
			strings.HasPrefix(aws.ToString(in.Key), "recipes/") &&
			strings.HasSuffix(aws.ToString(in.Key), ".png") &&
			aws.ToString(in.ContentType) == "image/png" &&
			string(body) == "png-bytes"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	store := newS3Store(putter, "foodgram-media", "https://cdn.example.com", zap.NewNop())
	url, err := store.Save(context.Background(), []byte("png-bytes"), "image/png", "png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/recipes/"))
	putter.AssertExpectations(t)
}

func TestS3StoreSaveError(t *testing.T) {
	putter := &mockPutter{}
	putter.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	store := newS3Store(putter, "foodgram-media", "https://cdn.example.com", zap.NewNop())
	_, err := store.Save(context.Background(), []byte("x"), "image/png", "png")
	assert.ErrorContains(t, err, "access denied")
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/media/", zap.NewNop())

	url, err := store.Save(context.Background(), []byte("gif-bytes"), "image/gif", "gif")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/media/recipes/"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, "gif-bytes", string(data))
}

func TestFromConfigFallsBackToLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	cfg := &config.Config{MediaDir: dir, MediaURL: "/media"}

	store, mediaDir, err := FromConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &LocalStore{}, store)
	assert.Equal(t, dir, mediaDir)
	assert.DirExists(t, dir)

	url, err := store.Save(context.Background(), []byte("png-bytes"), "image/png", "png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/recipes/"))
}

package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenestai/client/internal/config"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if input.Body != nil {
		data, err := io.ReadAll(input.Body)
		if err != nil {
			return nil, err
		}
		f.body = data
	}
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestUploadAvatar(t *testing.T) {
	uploader := &fakeUploader{}
	store := NewAvatarStorage(uploader, "avatars-bucket", "https://cdn.example.com/")
	store.newKey = func(userID, ext string) string { return "avatars/" + userID + "/fixed" + ext }

	path := writeFile(t, "me.PNG", []byte("png-bytes"))
	url, err := store.UploadAvatar(context.Background(), "u1", path)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/avatars/u1/fixed.png", url)
	require.NotNil(t, uploader.input)
	assert.Equal(t, "avatars-bucket", aws.ToString(uploader.input.Bucket))
	assert.Equal(t, "avatars/u1/fixed.png", aws.ToString(uploader.input.Key))
	assert.Equal(t, "image/png", aws.ToString(uploader.input.ContentType))
	assert.Equal(t, []byte("png-bytes"), uploader.body)
}

func TestUploadAvatarWithoutPublicURLReturnsKey(t *testing.T) {
	store := NewAvatarStorage(&fakeUploader{}, "bucket", "")
	path := writeFile(t, "me.jpg", []byte("jpg"))

	location, err := store.UploadAvatar(context.Background(), "u1", path)
	require.NoError(t, err)
	assert.Regexp(t, `^avatars/u1/[0-9a-f-]{36}\.jpg$`, location)
}

func TestUploadAvatarRejectsInput(t *testing.T) {
	store := NewAvatarStorage(&fakeUploader{}, "bucket", "")
	ctx := context.Background()

	_, err := store.UploadAvatar(ctx, "u1", writeFile(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = store.UploadAvatar(ctx, "", writeFile(t, "a.png", []byte("x")))
	assert.Error(t, err)

	_, err = store.UploadAvatar(ctx, "u1", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestUploadAvatarPropagatesUploadFailure(t *testing.T) {
	store := NewAvatarStorage(&fakeUploader{err: errors.New("access denied")}, "bucket", "")

	_, err := store.UploadAvatar(context.Background(), "u1", writeFile(t, "a.webp", []byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3AvatarStorageRequiresBucket(t *testing.T) {
	_, err := NewS3AvatarStorage(context.Background(), config.ObjectStoreConfig{})
	assert.Error(t, err)
}

func TestNewS3AvatarStorage(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	store, err := NewS3AvatarStorage(context.Background(), config.ObjectStoreConfig{
		Bucket:   "avatars",
		Endpoint: "http://localhost:9000",
		Region:   "us-east-1",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

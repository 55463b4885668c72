package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/codenestai/client/internal/config"
)

// MaxAvatarBytes bounds the size of an uploaded avatar image.
const MaxAvatarBytes = 5 * 1024 * 1024

// ErrUnsupportedImage indicates the avatar file extension is not an accepted image type.
var ErrUnsupportedImage = errors.New("unsupported avatar image type")

var avatarContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Uploader is the subset of the S3 upload manager used for avatars.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// AvatarStorage uploads profile images to an S3-compatible bucket and returns the public URL
// that is then saved as the user's avatarUrl.
type AvatarStorage struct {
	uploader Uploader
	bucket   string
	baseURL  string
	newKey   func(userID, ext string) string
}

// NewAvatarStorage wraps an existing uploader.
func NewAvatarStorage(uploader Uploader, bucket, publicBaseURL string) *AvatarStorage {
	return &AvatarStorage{
		uploader: uploader,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		newKey:   avatarKey,
	}
}

// NewS3AvatarStorage configures an uploader targeting the provided object store.
func NewS3AvatarStorage(ctx context.Context, cfg config.ObjectStoreConfig) (*AvatarStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return NewAvatarStorage(uploader, cfg.Bucket, cfg.PublicBaseURL), nil
}

// UploadAvatar uploads the image at path for userID and returns its public location.
func (s *AvatarStorage) UploadAvatar(ctx context.Context, userID, path string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("s3 storage: user id is required")
	}

	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := avatarContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat avatar: %w", err)
	}
	if info.Size() > MaxAvatarBytes {
		return "", fmt.Errorf("avatar is %d bytes, limit is %d", info.Size(), MaxAvatarBytes)
	}

	return s.Save(ctx, s.newKey(userID, ext), contentType, f)
}

// Save uploads the provided content to the configured bucket and returns a public location.
func (s *AvatarStorage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        manager.ReadSeekCloser(r),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL == "" {
		return key, nil
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func avatarKey(userID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
}

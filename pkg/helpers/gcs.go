package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

var allowedAvatarTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

// GCSAvatarStore puts avatars under avatars/<user id>/<random>.<ext>.
type GCSAvatarStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSAvatarStore(client *storage.Client, bucket string) *GCSAvatarStore {
	return &GCSAvatarStore{Client: client, Bucket: bucket}
}

func (s *GCSAvatarStore) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s == nil || s.Client == nil || s.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	if _, ok := allowedAvatarTypes[contentType]; !ok {
		return "", fmt.Errorf("unsupported avatar content type %q", contentType)
	}
	return UploadObject(ctx, s.Client, s.Bucket, AvatarObjectPath(userID, filename), contentType, r)
}

// AvatarObjectPath returns the object key for a new avatar upload.
func AvatarObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures the Google Cloud Storage store.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

var _ Store = (*GCS)(nil)

// GCS stores objects in a single bucket.
type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS opens a client. Without a credentials file the application default
// credentials are used.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: new gcs client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket}, nil
}

// Close releases the client.
func (s *GCS) Close() error {
	return s.client.Close()
}

// Upload streams r into path and returns the object's public URL.
func (s *GCS) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize %s: %w", path, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

// Delete removes path. It reports false when nothing was there.
func (s *GCS) Delete(ctx context.Context, path string) (bool, error) {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return true, nil
}

// SignedURL returns a V4 signed GET URL valid for ttl.
func (s *GCS) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", ErrObjectNotFound
		}
		return "", fmt.Errorf("storage: stat %s: %w", path, err)
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(path, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign %s: %w", path, err)
	}
	return url, nil
}

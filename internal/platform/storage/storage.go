// Package storage is a thin pass-through to object storage for document attachments.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a path has no object.
var ErrObjectNotFound = errors.New("storage: object not found")

// Store uploads, deletes and signs objects by path.
type Store interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) (bool, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

// Memory keeps objects in process. It backs tests and local runs without a bucket.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemory returns an empty store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://documents"
	}
	return &Memory{objects: make(map[string]memoryObject), baseURL: baseURL, now: time.Now}
}

func (m *Memory) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[path] = memoryObject{data: buf.Bytes(), contentType: contentType}
	m.mu.Unlock()
	return m.baseURL + "/" + path, nil
}

func (m *Memory) Delete(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return false, nil
	}
	delete(m.objects, path)
	return true, nil
}

func (m *Memory) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	expires := m.now().Add(ttl).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", m.baseURL, path, expires), nil
}

// Object returns the stored bytes and content type of path.
func (m *Memory) Object(path string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	return obj.data, obj.contentType, ok
}

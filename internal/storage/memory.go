package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// MemoryStorage keeps objects in process memory. It is used by tests and
// by the memory store driver.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

// Put stores the full content of r under key.
func (m *MemoryStorage) Put(_ context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("read object: %w", err)
	}
	sum := md5.Sum(data)
	info := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     opt.Metadata,
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, info: info}
	m.mu.Unlock()
	return info, nil
}

// Get returns a reader over the stored bytes.
func (m *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

// Delete removes key.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// PresignGet returns a memory:// URL; memory objects are not reachable over HTTP.
func (m *MemoryStorage) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	u := url.URL{Scheme: "memory", Path: "/" + key, RawQuery: url.Values{"expires": {expiry.String()}}.Encode()}
	return u.String(), nil
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Has reports whether key is stored.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Blob is an opened object ready to be streamed to a client.
type Blob struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
	Filename    string
}

// Blobs stores and retrieves content by public location.
type Blobs interface {
	// Put uploads r under key and returns its public location.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Get opens the object at location; ErrNotFound when absent.
	Get(ctx context.Context, location string) (*Blob, error)
	// Delete removes the object at location; ErrNotFound when absent.
	Delete(ctx context.Context, location string) error
	// Presign returns a link to the object at location that works without
	// credentials until expiry elapses.
	Presign(ctx context.Context, location string, expiry time.Duration) (string, error)
}

// BlobStore implements Blobs on top of a key-addressed Storage.
type BlobStore struct {
	store   Storage
	locator Locator
}

var _ Blobs = (*BlobStore)(nil)

// NewBlobStore combines a backend with the locator used to render its locations.
func NewBlobStore(store Storage, locator Locator) *BlobStore {
	return &BlobStore{store: store, locator: locator}
}

// Put uploads content. An empty contentType is sniffed from the content.
func (b *BlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		detected, rr, err := DetectContentType(r)
		if err != nil {
			return "", fmt.Errorf("detect content type: %w", err)
		}
		contentType, r = detected, rr
	}

	if _, err := b.store.Put(ctx, key, r, PutObjectOptions{Size: size, ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return b.locator.Location(key), nil
}

// Get opens the object at location.
func (b *BlobStore) Get(ctx context.Context, location string) (*Blob, error) {
	key, err := b.locator.Key(location)
	if err != nil {
		return nil, err
	}

	body, info, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	name := FilenameFromLocation(location)
	return &Blob{
		Body:        body,
		ContentType: ResolveContentType(info.ContentType, name),
		Size:        info.Size,
		Filename:    name,
	}, nil
}

// Delete removes the object at location.
func (b *BlobStore) Delete(ctx context.Context, location string) error {
	key, err := b.locator.Key(location)
	if err != nil {
		return err
	}
	if err := b.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Presign signs a direct download link for the object at location.
func (b *BlobStore) Presign(ctx context.Context, location string, expiry time.Duration) (string, error) {
	key, err := b.locator.Key(location)
	if err != nil {
		return "", err
	}
	u, err := b.store.PresignGet(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return u, nil
}

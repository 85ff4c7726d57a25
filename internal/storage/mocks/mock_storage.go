package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"docvault/internal/storage"
)

// MockStorage is a testify double for storage.Storage.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	var rc io.ReadCloser
	if v := args.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

// MockBlobs is a testify double for storage.Blobs.
type MockBlobs struct {
	mock.Mock
}

var _ storage.Blobs = (*MockBlobs)(nil)

func (m *MockBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobs) Get(ctx context.Context, location string) (*storage.Blob, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Blob), args.Error(1)
}

func (m *MockBlobs) Delete(ctx context.Context, location string) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockBlobs) Presign(ctx context.Context, location string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, location, expiry)
	return args.String(0), args.Error(1)
}

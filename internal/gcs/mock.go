package gcs

import (
	"context"
	"io"
)

// MockStorageService is a StorageService whose behavior is set per test.
type MockStorageService struct {
	FetchFunc  func(ctx context.Context, uri string) ([]byte, error)
	UploadFunc func(ctx context.Context, uri string, r io.Reader) error
}

func (m *MockStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, uri)
	}
	return nil, nil
}

func (m *MockStorageService) Upload(ctx context.Context, uri string, r io.Reader) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, uri, r)
	}
	return nil
}

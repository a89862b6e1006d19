package gcs

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// uploadTimeout bounds a single archive write.
const uploadTimeout = 2 * time.Minute

// Storage is the Cloud Storage implementation of StorageService. The underlying client
// is created on first use, with Application Default Credentials unless a credentials
// file is given.
type Storage struct {
	opts []option.ClientOption

	mu     sync.Mutex
	client *storage.Client
}

// NewStorage creates a Storage. credentialsFile may be empty.
func NewStorage(credentialsFile string) *Storage {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Storage{opts: opts}
}

func (s *Storage) storageClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := storage.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	s.client = client
	return client, nil
}

// Fetch downloads the object behind uri.
func (s *Storage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := s.storageClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := client.Bucket(u.Bucket).Object(u.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", u.Bucket, u.Object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// Upload writes r to the object behind uri.
func (s *Storage) Upload(ctx context.Context, uri string, r io.Reader) error {
	u, err := ParseURI(uri)
	if err != nil {
		return err
	}
	client, err := s.storageClient(ctx)
	if err != nil {
		return fmt.Errorf("Upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(u.Bucket).Object(u.Object).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("Upload: copy to %s: %w", u, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize %s: %w", u, err)
	}
	return nil
}

// Close releases the client, if one was created.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

var _ StorageService = (*Storage)(nil)

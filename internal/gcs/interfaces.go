package gcs

import (
	"context"
	"io"
)

// StorageService reads statement sources from and archives files to Cloud Storage.
type StorageService interface {
	// Fetch downloads the object behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Upload writes r to the object behind a gs:// URI.
	Upload(ctx context.Context, uri string, r io.Reader) error
}

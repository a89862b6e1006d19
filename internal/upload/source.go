package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/gcs"
)

// File is a loaded upload source.
type File struct {
	Name string
	Data []byte
}

// Loader reads upload sources from the local filesystem or from gs:// URIs.
type Loader struct {
	storage gcs.StorageService
}

// NewLoader creates a Loader. storage may be nil when no gs:// sources are expected.
func NewLoader(storage gcs.StorageService) *Loader {
	return &Loader{storage: storage}
}

// Load reads source. Read failures are validation errors: nothing was sent yet.
func (l *Loader) Load(ctx context.Context, source string) (File, error) {
	if gcs.IsURI(source) {
		u, err := gcs.ParseURI(source)
		if err != nil {
			return File{}, &api.Error{Kind: api.KindValidation, Message: "Invalid storage path.", Err: err}
		}
		if l.storage == nil {
			return File{}, api.Validation("Cloud Storage is not configured.")
		}
		data, err := l.storage.Fetch(ctx, source)
		if err != nil {
			return File{}, &api.Error{Kind: api.KindValidation, Message: "Failed to read file.", Err: err}
		}
		return File{Name: u.FileName(), Data: data}, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return File{}, &api.Error{Kind: api.KindValidation, Message: "Failed to read file.", Err: fmt.Errorf("Load: %w", err)}
	}
	return File{Name: filepath.Base(source), Data: data}, nil
}

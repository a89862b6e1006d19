package upload

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// Request is the body of POST /documents/upload.
type Request struct {
	FileName        string             `json:"fileName"`
	FileData        string             `json:"fileData"`
	AccountID       string             `json:"accountId"`
	AccountType     domain.AccountType `json:"accountType"`
	StatementPeriod *domain.Period     `json:"statementPeriod,omitempty"`
}

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) Upload(ctx context.Context, req Request) (*domain.Statement, error) {
	var st domain.Statement
	if err := b.client.Post(ctx, api.PathUpload, req, &st); err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}
	return &st, nil
}

var _ Backend = (*HTTPBackend)(nil)

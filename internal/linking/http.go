package linking

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/api"
)

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) CreateLinkToken(ctx context.Context, companyID string) (*LinkToken, error) {
	var out LinkToken
	body := map[string]string{"companyId": companyID}
	if err := b.client.Post(ctx, api.PathLinkToken, body, &out); err != nil {
		return nil, fmt.Errorf("CreateLinkToken: %w", err)
	}
	return &out, nil
}

func (b *HTTPBackend) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	var out ExchangeResult
	if err := b.client.Post(ctx, api.PathLinkExchange, req, &out); err != nil {
		return nil, fmt.Errorf("Exchange: %w", err)
	}
	return &out, nil
}

func (b *HTTPBackend) Sync(ctx context.Context, companyID, itemID string) (*SyncResult, error) {
	var out SyncResult
	body := map[string]string{"companyId": companyID, "itemId": itemID}
	if err := b.client.Post(ctx, api.PathLinkSync, body, &out); err != nil {
		return nil, fmt.Errorf("Sync: %w", err)
	}
	return &out, nil
}

var _ Backend = (*HTTPBackend)(nil)

// Package statements lists, orders and deletes uploaded statements.
package statements

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/rs/zerolog"
)

// Filter narrows a statement listing.
type Filter struct {
	CompanyID string
	AccountID string
	api.PageRequest
}

func (f Filter) query() url.Values {
	q := url.Values{"companyId": {f.CompanyID}}
	if f.AccountID != "" {
		q.Set("accountId", f.AccountID)
	}
	f.PageRequest.Apply(q)
	return q
}

// Backend is the statement part of the REST API.
type Backend interface {
	List(ctx context.Context, f Filter) (api.Page[domain.Statement], error)
	Delete(ctx context.Context, id string) error
}

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) List(ctx context.Context, f Filter) (api.Page[domain.Statement], error) {
	var page api.Page[domain.Statement]
	pag, err := b.client.Get(ctx, api.PathDocuments, f.query(), &page.Items)
	if err != nil {
		return page, fmt.Errorf("List: %w", err)
	}
	if pag != nil {
		page.Pagination = *pag
	} else {
		page.Pagination = api.Pagination{Page: 1, Limit: len(page.Items), Total: len(page.Items)}
	}
	return page, nil
}

func (b *HTTPBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Delete(ctx, api.Join(api.PathDocuments, id)); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// Service lists statements in display order.
type Service struct {
	backend Backend
	log     zerolog.Logger
}

// NewService creates a Service.
func NewService(backend Backend, log zerolog.Logger) *Service {
	return &Service{backend: backend, log: log}
}

// List fetches one page and sorts it for display.
func (s *Service) List(ctx context.Context, f Filter) (api.Page[domain.Statement], error) {
	if err := api.RequireCompany(f.CompanyID); err != nil {
		return api.Page[domain.Statement]{}, err
	}
	page, err := s.backend.List(ctx, f)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", f.AccountID).Msg("Failed to list statements")
		return page, err
	}
	Sort(page.Items)
	return page, nil
}

// Delete asks confirm, deletes the statement and refetches the page described by f.
func (s *Service) Delete(ctx context.Context, st domain.Statement, f Filter, confirm api.Confirm) (api.Page[domain.Statement], error) {
	prompt := fmt.Sprintf("Delete statement %q and its transactions?", st.FileName)
	if err := api.Ask(confirm, prompt); err != nil {
		return api.Page[domain.Statement]{}, err
	}
	if err := s.backend.Delete(ctx, st.ID); err != nil {
		s.log.Error().Err(err).Str("statement_id", st.ID).Msg("Failed to delete statement")
		return api.Page[domain.Statement]{}, err
	}
	s.log.Info().Str("statement_id", st.ID).Str("file", st.FileName).Msg("Statement deleted")
	return s.List(ctx, f)
}

var _ Backend = (*HTTPBackend)(nil)

package bills

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/rs/zerolog"
)

// Backend is the bills part of the REST API.
type Backend interface {
	List(ctx context.Context, companyID string, page api.PageRequest) (api.Page[domain.Bill], error)
	Get(ctx context.Context, id string) (*domain.Bill, error)
	Update(ctx context.Context, b domain.Bill) (*domain.Bill, error)
}

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) List(ctx context.Context, companyID string, page api.PageRequest) (api.Page[domain.Bill], error) {
	var out api.Page[domain.Bill]
	q := url.Values{"companyId": {companyID}}
	page.Apply(q)
	pag, err := b.client.Get(ctx, api.PathBills, q, &out.Items)
	if err != nil {
		return out, fmt.Errorf("List: %w", err)
	}
	if pag != nil {
		out.Pagination = *pag
	}
	return out, nil
}

func (b *HTTPBackend) Get(ctx context.Context, id string) (*domain.Bill, error) {
	var out domain.Bill
	if _, err := b.client.Get(ctx, api.Join(api.PathBills, id), nil, &out); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &out, nil
}

func (b *HTTPBackend) Update(ctx context.Context, bill domain.Bill) (*domain.Bill, error) {
	var out domain.Bill
	if err := b.client.Put(ctx, api.Join(api.PathBills, bill.ID), bill, &out); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &out, nil
}

// Service reads and saves bills for one company.
type Service struct {
	backend   Backend
	companyID string
	log       zerolog.Logger
}

// NewService creates a Service.
func NewService(backend Backend, companyID string, log zerolog.Logger) *Service {
	return &Service{backend: backend, companyID: companyID, log: log}
}

// List returns one page of bills.
func (s *Service) List(ctx context.Context, page api.PageRequest) (api.Page[domain.Bill], error) {
	if err := api.RequireCompany(s.companyID); err != nil {
		return api.Page[domain.Bill]{}, err
	}
	out, err := s.backend.List(ctx, s.companyID, page)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list bills")
	}
	return out, err
}

// Edit loads a bill into an Editor.
func (s *Service) Edit(ctx context.Context, id string) (*Editor, error) {
	b, err := s.backend.Get(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("bill_id", id).Msg("Failed to load bill")
		return nil, err
	}
	return NewEditor(*b), nil
}

// Save stores the editor's bill when it has changes and returns the stored version.
func (s *Service) Save(ctx context.Context, e *Editor) (*domain.Bill, error) {
	b := e.Bill()
	if !e.Dirty() {
		return &b, nil
	}
	saved, err := s.backend.Update(ctx, b)
	if err != nil {
		s.log.Error().Err(err).Str("bill_id", b.ID).Msg("Failed to save bill")
		return nil, err
	}
	s.log.Info().Str("bill_id", saved.ID).Str("total", saved.Total.StringFixed(2)).Msg("Bill saved")
	return saved, nil
}

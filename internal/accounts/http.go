package accounts

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// HTTPService talks to /accounts or /credit-cards depending on the account type.
type HTTPService struct {
	client *api.Client
	kind   domain.AccountType
	base   string
}

// NewHTTPService creates a service for bank accounts or credit cards.
func NewHTTPService(client *api.Client, kind domain.AccountType) *HTTPService {
	base := api.PathAccounts
	if kind == domain.AccountTypeCreditCard {
		base = api.PathCreditCards
	}
	return &HTTPService{client: client, kind: kind, base: base}
}

// Kind returns the account type this service manages.
func (s *HTTPService) Kind() domain.AccountType { return s.kind }

func (s *HTTPService) List(ctx context.Context, companyID string) ([]domain.Account, error) {
	if err := api.RequireCompany(companyID); err != nil {
		return nil, err
	}
	var out []domain.Account
	if _, err := s.client.Get(ctx, s.base, url.Values{"companyId": {companyID}}, &out); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return out, nil
}

func (s *HTTPService) Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	in.Type = s.kind
	var out domain.Account
	if err := s.client.Post(ctx, s.base, in, &out); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &out, nil
}

func (s *HTTPService) Update(ctx context.Context, id string, in domain.AccountInput) (*domain.Account, error) {
	in.Type = s.kind
	var out domain.Account
	if err := s.client.Put(ctx, api.Join(s.base, id), in, &out); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &out, nil
}

func (s *HTTPService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, api.Join(s.base, id)); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

var _ Service = (*HTTPService)(nil)

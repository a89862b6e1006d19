package accounts

import (
	"context"
	"errors"

	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// Service is the backend seam for one kind of account (bank accounts or credit cards).
type Service interface {
	// List returns the company's accounts of this kind.
	List(ctx context.Context, companyID string) ([]domain.Account, error)

	// Create stores a new account and returns it as persisted.
	Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error)

	// Update changes an account and returns it as persisted.
	Update(ctx context.Context, id string, in domain.AccountInput) (*domain.Account, error)

	// Delete removes an account. Statements and transactions cascade server-side.
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned for ids that are not in the registry.
var ErrNotFound = errors.New("account not found")

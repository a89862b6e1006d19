package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/rs/zerolog"
)

// Registry caches a company's accounts and the current selection. The cache changes
// only after the backend confirms an operation, so a failure never leaves it half-updated.
// The lock is never held across a backend call.
type Registry struct {
	svc       Service
	companyID string
	log       zerolog.Logger

	mu       sync.RWMutex
	items    []domain.Account
	selected string
}

// NewRegistry creates an empty registry for companyID.
func NewRegistry(svc Service, companyID string, log zerolog.Logger) *Registry {
	return &Registry{svc: svc, companyID: companyID, log: log}
}

// Load replaces the cache with the backend's list. A selection that no longer exists
// falls back to the first account.
func (r *Registry) Load(ctx context.Context) error {
	items, err := r.svc.List(ctx, r.companyID)
	if err != nil {
		r.log.Error().Err(err).Str("company_id", r.companyID).Msg("Failed to load accounts")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	if r.indexLocked(r.selected) < 0 {
		r.selected = r.fallbackLocked()
	}
	return nil
}

// Accounts returns a copy of the cached list.
func (r *Registry) Accounts() []domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Account, len(r.items))
	copy(out, r.items)
	return out
}

// Get returns a cached account by id.
func (r *Registry) Get(id string) (domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexLocked(id)
	if i < 0 {
		return domain.Account{}, false
	}
	return r.items[i], true
}

// Select makes id the active account.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(id) < 0 {
		return fmt.Errorf("Select %s: %w", id, ErrNotFound)
	}
	r.selected = id
	return nil
}

// Selected returns the active account, if any.
func (r *Registry) Selected() (domain.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexLocked(r.selected)
	if i < 0 {
		return domain.Account{}, false
	}
	return r.items[i], true
}

// SelectedID returns the active account id or "".
func (r *Registry) SelectedID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// Create validates and stores a new account, then merges it into the cache.
func (r *Registry) Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	if in.CompanyID == "" {
		in.CompanyID = r.companyID
	}
	if err := api.RequireCompany(in.CompanyID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, api.Validation("%s", err.Error())
	}

	acc, err := r.svc.Create(ctx, in)
	if err != nil {
		r.log.Error().Err(err).Str("name", in.Name).Msg("Failed to create account")
		return nil, err
	}

	r.merge(*acc)
	r.log.Info().Str("account_id", acc.ID).Str("name", acc.Name).Msg("Account created")
	return acc, nil
}

// Update validates and changes an account, then merges the result into the cache.
func (r *Registry) Update(ctx context.Context, id string, in domain.AccountInput) (*domain.Account, error) {
	if in.CompanyID == "" {
		in.CompanyID = r.companyID
	}
	if err := in.Validate(); err != nil {
		return nil, api.Validation("%s", err.Error())
	}

	acc, err := r.svc.Update(ctx, id, in)
	if err != nil {
		r.log.Error().Err(err).Str("account_id", id).Msg("Failed to update account")
		return nil, err
	}

	r.merge(*acc)
	return acc, nil
}

// Delete asks confirm, calls the backend, and only then drops the row. If the row
// was selected, the selection falls back to the first remaining account or empty.
func (r *Registry) Delete(ctx context.Context, id string, confirm api.Confirm) error {
	acc, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("Delete %s: %w", id, ErrNotFound)
	}
	prompt := fmt.Sprintf("Delete %q and all of its statements and transactions?", acc.Name)
	if err := api.Ask(confirm, prompt); err != nil {
		return err
	}

	if err := r.svc.Delete(ctx, id); err != nil {
		r.log.Error().Err(err).Str("account_id", id).Msg("Failed to delete account")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		r.items = append(r.items[:i:i], r.items[i+1:]...)
	}
	if r.selected == id {
		r.selected = r.fallbackLocked()
	}
	r.log.Info().Str("account_id", id).Str("selected", r.selected).Msg("Account deleted")
	return nil
}

func (r *Registry) merge(acc domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(acc.ID); i >= 0 {
		r.items[i] = acc
		return
	}
	r.items = append(r.items, acc)
	if r.selected == "" {
		r.selected = acc.ID
	}
}

func (r *Registry) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) fallbackLocked() string {
	if len(r.items) == 0 {
		return ""
	}
	return r.items[0].ID
}

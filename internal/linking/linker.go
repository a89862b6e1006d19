// Package linking connects external bank accounts through a hosted link provider.
package linking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/rs/zerolog"
)

// Linker runs the connect flow: link token, hosted UI, public token exchange.
type Linker struct {
	backend   Backend
	provider  Provider
	companyID string
	log       zerolog.Logger
	now       func() time.Time
}

// NewLinker creates a Linker for companyID.
func NewLinker(backend Backend, provider Provider, companyID string, log zerolog.Logger) *Linker {
	return &Linker{backend: backend, provider: provider, companyID: companyID, log: log, now: time.Now}
}

// Connect links new accounts. Every call requests its own link token; tokens are
// never cached, so a stale one cannot be reused.
func (l *Linker) Connect(ctx context.Context) (*ExchangeResult, error) {
	if err := api.RequireCompany(l.companyID); err != nil {
		return nil, err
	}

	token, err := l.backend.CreateLinkToken(ctx, l.companyID)
	if err != nil {
		l.log.Error().Err(err).Msg("Failed to create link token")
		return nil, surface(err, "Failed to initialize bank connection.")
	}
	if token.Token == "" {
		return nil, &api.Error{Kind: api.KindServer, Message: "Failed to initialize bank connection."}
	}
	if !token.Expiration.IsZero() && !token.Expiration.After(l.now()) {
		return nil, &api.Error{Kind: api.KindServer, Message: "Bank connection expired. Please try again."}
	}

	if err := l.provider.Ready(ctx); err != nil {
		return nil, fmt.Errorf("Connect: provider not ready: %w", err)
	}

	success, err := l.provider.Open(ctx, token.Token)
	if err != nil {
		if errors.Is(err, ErrLinkExited) {
			l.log.Info().Msg("Link flow exited by user")
		}
		return nil, fmt.Errorf("Connect: %w", err)
	}

	res, err := l.backend.Exchange(ctx, ExchangeRequest{
		CompanyID:   l.companyID,
		PublicToken: success.PublicToken,
		Metadata:    success.Metadata,
	})
	if err != nil {
		l.log.Error().Err(err).Str("institution", success.Metadata.Institution.Name).Msg("Failed to exchange public token")
		return nil, surface(err, "Failed to connect bank account.")
	}

	l.log.Info().
		Str("item_id", res.ItemID).
		Str("institution", success.Metadata.Institution.Name).
		Int("accounts", len(res.Accounts)).
		Msg("Bank accounts linked")
	return res, nil
}

// Sync pulls new transactions for a linked item.
func (l *Linker) Sync(ctx context.Context, itemID string) (*SyncResult, error) {
	if err := api.RequireCompany(l.companyID); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, api.Validation("Choose a linked account to sync.")
	}
	res, err := l.backend.Sync(ctx, l.companyID, itemID)
	if err != nil {
		l.log.Error().Err(err).Str("item_id", itemID).Msg("Failed to sync item")
		return nil, surface(err, "Failed to sync transactions.")
	}
	l.log.Info().Str("item_id", itemID).Int("added", res.Added).Int("modified", res.Modified).Int("removed", res.Removed).Msg("Item synced")
	return res, nil
}

// surface keeps a backend message and otherwise attaches fallback for the user.
func surface(err error, fallback string) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return err
	}
	kind := api.KindTransport
	if apiErr != nil {
		kind = apiErr.Kind
	}
	return &api.Error{Kind: kind, Message: fallback, Err: err}
}

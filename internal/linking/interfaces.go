package linking

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// Backend is the link-provider part of the REST API.
type Backend interface {
	// CreateLinkToken requests a short-lived token scoped to companyID.
	CreateLinkToken(ctx context.Context, companyID string) (*LinkToken, error)

	// Exchange trades a public token for persisted accounts.
	Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error)

	// Sync asks the backend to pull new transactions for a linked item.
	Sync(ctx context.Context, companyID, itemID string) (*SyncResult, error)
}

// Provider is the hosted linking UI.
type Provider interface {
	// Ready blocks until the provider can be opened.
	Ready(ctx context.Context) error

	// Open runs the hosted flow with token and returns what the user linked.
	// It returns ErrLinkExited when the user leaves without linking.
	Open(ctx context.Context, token string) (*Success, error)
}

// ErrLinkExited is returned when the user closes the hosted UI without linking.
var ErrLinkExited = errors.New("link flow exited")

// LinkToken opens the hosted UI once.
type LinkToken struct {
	Token      string    `json:"linkToken"`
	Expiration time.Time `json:"expiration"`
}

// Institution identifies the bank the user linked.
type Institution struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LinkedAccount is an account the user picked in the hosted UI.
type LinkedAccount struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mask    string `json:"mask"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

// Metadata accompanies a successful link.
type Metadata struct {
	Institution Institution     `json:"institution"`
	Accounts    []LinkedAccount `json:"accounts"`
}

// Success is the outcome of the hosted flow.
type Success struct {
	PublicToken string   `json:"publicToken"`
	Metadata    Metadata `json:"metadata"`
}

// ExchangeRequest is the body of POST /plaid/exchange.
type ExchangeRequest struct {
	CompanyID   string   `json:"companyId"`
	PublicToken string   `json:"publicToken"`
	Metadata    Metadata `json:"metadata"`
}

// ExchangeResult lists the accounts the backend persisted.
type ExchangeResult struct {
	ItemID   string           `json:"itemId"`
	Accounts []domain.Account `json:"accounts"`
}

// SyncResult counts the transactions a sync touched.
type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

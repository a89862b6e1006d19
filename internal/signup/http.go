package signup

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/api"
)

// Backend is the auth part of the REST API.
type Backend interface {
	Register(ctx context.Context, req RegisterRequest) error

	// VerifyEmail returns the session token issued for the verified user.
	VerifyEmail(ctx context.Context, email, code string) (string, error)

	ResendCode(ctx context.Context, email string) error
}

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) Register(ctx context.Context, req RegisterRequest) error {
	if err := b.client.Post(ctx, api.PathRegister, req, nil); err != nil {
		return fmt.Errorf("Register: %w", err)
	}
	return nil
}

func (b *HTTPBackend) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "code": code}
	if err := b.client.Post(ctx, api.PathVerifyEmail, body, &out); err != nil {
		return "", fmt.Errorf("VerifyEmail: %w", err)
	}
	return out.Token, nil
}

func (b *HTTPBackend) ResendCode(ctx context.Context, email string) error {
	if err := b.client.Post(ctx, api.PathResendCode, map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("ResendCode: %w", err)
	}
	return nil
}

var _ Backend = (*HTTPBackend)(nil)

package members

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// Backend is the members and invitations part of the REST API.
type Backend interface {
	ListMembers(ctx context.Context, companyID string, page api.PageRequest) (api.Page[domain.Member], error)
	UpdateMember(ctx context.Context, companyID, memberID string, up MemberUpdate) (*domain.Member, error)
	RemoveMember(ctx context.Context, companyID, memberID string) error

	ListInvitations(ctx context.Context, companyID string) ([]domain.Invitation, error)
	CreateInvitation(ctx context.Context, companyID string, in InviteRequest) (*domain.Invitation, error)
	RevokeInvitation(ctx context.Context, companyID, invitationID string) error

	// AnswerInvitation accepts or declines by token. Accepting returns the new membership.
	AnswerInvitation(ctx context.Context, token string, accept bool) (*domain.Member, error)
}

// MemberUpdate is the body of PUT /companies/{cid}/members/{mid}.
type MemberUpdate struct {
	Role        domain.Role        `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
}

// InviteRequest is the body of POST /companies/{cid}/invitations.
type InviteRequest struct {
	Email       string             `json:"email"`
	Role        domain.Role        `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
}

// HTTPBackend implements Backend over the REST client.
type HTTPBackend struct {
	client *api.Client
}

// NewHTTPBackend wraps client.
func NewHTTPBackend(client *api.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) ListMembers(ctx context.Context, companyID string, page api.PageRequest) (api.Page[domain.Member], error) {
	var out api.Page[domain.Member]
	q := url.Values{}
	page.Apply(q)
	pag, err := b.client.Get(ctx, api.MembersPath(companyID), q, &out.Items)
	if err != nil {
		return out, fmt.Errorf("ListMembers: %w", err)
	}
	if pag != nil {
		out.Pagination = *pag
	}
	return out, nil
}

func (b *HTTPBackend) UpdateMember(ctx context.Context, companyID, memberID string, up MemberUpdate) (*domain.Member, error) {
	var out domain.Member
	if err := b.client.Put(ctx, api.MembersPath(companyID, memberID), up, &out); err != nil {
		return nil, fmt.Errorf("UpdateMember: %w", err)
	}
	return &out, nil
}

func (b *HTTPBackend) RemoveMember(ctx context.Context, companyID, memberID string) error {
	if err := b.client.Delete(ctx, api.MembersPath(companyID, memberID)); err != nil {
		return fmt.Errorf("RemoveMember: %w", err)
	}
	return nil
}

func (b *HTTPBackend) ListInvitations(ctx context.Context, companyID string) ([]domain.Invitation, error) {
	var out []domain.Invitation
	if _, err := b.client.Get(ctx, api.CompanyInvitationsPath(companyID), nil, &out); err != nil {
		return nil, fmt.Errorf("ListInvitations: %w", err)
	}
	return out, nil
}

func (b *HTTPBackend) CreateInvitation(ctx context.Context, companyID string, in InviteRequest) (*domain.Invitation, error) {
	var out domain.Invitation
	if err := b.client.Post(ctx, api.CompanyInvitationsPath(companyID), in, &out); err != nil {
		return nil, fmt.Errorf("CreateInvitation: %w", err)
	}
	return &out, nil
}

func (b *HTTPBackend) RevokeInvitation(ctx context.Context, companyID, invitationID string) error {
	if err := b.client.Delete(ctx, api.CompanyInvitationsPath(companyID, invitationID)); err != nil {
		return fmt.Errorf("RevokeInvitation: %w", err)
	}
	return nil
}

func (b *HTTPBackend) AnswerInvitation(ctx context.Context, token string, accept bool) (*domain.Member, error) {
	action := "decline"
	if accept {
		action = "accept"
	}
	var out domain.Member
	if err := b.client.Post(ctx, api.InvitationActionPath(token, action), struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("AnswerInvitation: %w", err)
	}
	if !accept {
		return nil, nil
	}
	return &out, nil
}

var _ Backend = (*HTTPBackend)(nil)

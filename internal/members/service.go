// Package members manages a company's members and invitations and enforces the
// role rules: one immutable owner, admin granted only by the owner, and no removing
// yourself or the owner.
package members

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/session"
	"github.com/rs/zerolog"
)

var (
	// ErrForbidden is returned when the actor's role does not allow the operation.
	ErrForbidden = errors.New("not allowed for your role")

	// ErrNoInvitation is returned when there is no invitation token to answer.
	ErrNoInvitation = errors.New("no pending invitation")
)

// Service runs member operations for one company on behalf of an actor.
type Service struct {
	backend   Backend
	companyID string
	actor     Actor
	sess      *session.Session
	log       zerolog.Logger
}

// NewService creates a Service. sess holds the pending invitation, if any, and may be nil.
func NewService(backend Backend, companyID string, actor Actor, sess *session.Session, log zerolog.Logger) *Service {
	return &Service{backend: backend, companyID: companyID, actor: actor, sess: sess, log: log}
}

// Actor returns who the service acts as.
func (s *Service) Actor() Actor { return s.actor }

// List returns one page of members, invited ones included.
func (s *Service) List(ctx context.Context, page api.PageRequest) (api.Page[domain.Member], error) {
	if err := api.RequireCompany(s.companyID); err != nil {
		return api.Page[domain.Member]{}, err
	}
	out, err := s.backend.ListMembers(ctx, s.companyID, page)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list members")
		return out, err
	}
	return out, nil
}

// Invite sends an invitation. A nil perms uses DefaultPermissions(role).
func (s *Service) Invite(ctx context.Context, email string, role domain.Role, perms *domain.Permissions) (*domain.Invitation, error) {
	if err := api.RequireCompany(s.companyID); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, api.Validation("Enter a valid email address.")
	}
	if err := s.checkAssign(role); err != nil {
		return nil, err
	}

	p := DefaultPermissions(role)
	if perms != nil {
		p = *perms
	}
	inv, err := s.backend.CreateInvitation(ctx, s.companyID, InviteRequest{Email: email, Role: role, Permissions: p})
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("Failed to send invitation")
		return nil, err
	}
	s.log.Info().Str("email", email).Str("role", string(role)).Msg("Invitation sent")
	return inv, nil
}

// Update changes a member's role and permissions. The owner cannot be edited.
func (s *Service) Update(ctx context.Context, target domain.Member, role domain.Role, perms domain.Permissions) (*domain.Member, error) {
	if err := api.RequireCompany(s.companyID); err != nil {
		return nil, err
	}
	if target.Role == domain.RoleOwner {
		return nil, forbidden("The owner's role cannot be changed.")
	}
	if err := s.checkAssign(role); err != nil {
		return nil, err
	}

	m, err := s.backend.UpdateMember(ctx, s.companyID, target.ID, MemberUpdate{Role: role, Permissions: perms})
	if err != nil {
		s.log.Error().Err(err).Str("member_id", target.ID).Msg("Failed to update member")
		return nil, err
	}
	s.log.Info().Str("member_id", target.ID).Str("role", string(role)).Msg("Member updated")
	return m, nil
}

// Remove deletes a member after confirmation. Nobody can remove themselves or the owner.
func (s *Service) Remove(ctx context.Context, target domain.Member, confirm api.Confirm) error {
	if err := api.RequireCompany(s.companyID); err != nil {
		return err
	}
	if !s.actor.CanManage() {
		return forbidden("You cannot remove members.")
	}
	if target.ID == s.actor.MemberID {
		return forbidden("You cannot remove yourself.")
	}
	if target.Role == domain.RoleOwner {
		return forbidden("The owner cannot be removed.")
	}

	name := target.Name
	if name == "" {
		name = target.Email
	}
	if err := api.Ask(confirm, fmt.Sprintf("Remove %s from the company?", name)); err != nil {
		return err
	}

	if err := s.backend.RemoveMember(ctx, s.companyID, target.ID); err != nil {
		s.log.Error().Err(err).Str("member_id", target.ID).Msg("Failed to remove member")
		return err
	}
	s.log.Info().Str("member_id", target.ID).Msg("Member removed")
	return nil
}

// Invitations lists outstanding invitations.
func (s *Service) Invitations(ctx context.Context) ([]domain.Invitation, error) {
	if err := api.RequireCompany(s.companyID); err != nil {
		return nil, err
	}
	out, err := s.backend.ListInvitations(ctx, s.companyID)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list invitations")
		return nil, err
	}
	return out, nil
}

// Revoke cancels an invitation after confirmation.
func (s *Service) Revoke(ctx context.Context, inv domain.Invitation, confirm api.Confirm) error {
	if err := api.RequireCompany(s.companyID); err != nil {
		return err
	}
	if !s.actor.CanManage() {
		return forbidden("You cannot revoke invitations.")
	}
	if err := api.Ask(confirm, fmt.Sprintf("Revoke the invitation for %s?", inv.Email)); err != nil {
		return err
	}
	if err := s.backend.RevokeInvitation(ctx, s.companyID, inv.ID); err != nil {
		s.log.Error().Err(err).Str("invitation_id", inv.ID).Msg("Failed to revoke invitation")
		return err
	}
	return nil
}

// Accept joins the company behind token, or behind the session's pending invitation
// when token is empty. The pending invitation is cleared once answered.
func (s *Service) Accept(ctx context.Context, token string) (*domain.Member, error) {
	return s.answer(ctx, token, true)
}

// Decline refuses an invitation the same way Accept accepts one.
func (s *Service) Decline(ctx context.Context, token string) error {
	_, err := s.answer(ctx, token, false)
	return err
}

func (s *Service) answer(ctx context.Context, token string, accept bool) (*domain.Member, error) {
	fromSession := false
	if token == "" && s.sess != nil {
		token, fromSession = s.sess.PendingInvitation()
	}
	if token == "" {
		return nil, ErrNoInvitation
	}

	m, err := s.backend.AnswerInvitation(ctx, token, accept)
	if err != nil {
		s.log.Error().Err(err).Bool("accept", accept).Msg("Failed to answer invitation")
		return nil, err
	}
	if s.sess != nil {
		if pending, ok := s.sess.PendingInvitation(); fromSession || (ok && pending == token) {
			s.sess.ConsumePendingInvitation()
		}
	}
	s.log.Info().Bool("accept", accept).Msg("Invitation answered")
	return m, nil
}

func (s *Service) checkAssign(role domain.Role) error {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return api.Validation("Choose a role.")
	}
	if role == domain.RoleOwner {
		return forbidden("The owner role cannot be assigned.")
	}
	if !CanAssign(s.actor, role) {
		if role == domain.RoleAdmin {
			return forbidden("Only the owner can grant the admin role.")
		}
		return forbidden("You cannot manage members.")
	}
	return nil
}

func forbidden(msg string) error {
	return &api.Error{Kind: api.KindUnauthorized, Message: msg, Err: ErrForbidden}
}

// Package signup drives the three-step signup wizard:
// create account, verify email, connect accounts.
package signup

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/session"
	"github.com/rs/zerolog"
)

// Step is the wizard's position. It only moves forward.
type Step int

const (
	StepCreateAccount Step = iota
	StepVerifyEmail
	StepConnectAccounts
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCreateAccount:
		return "create-account"
	case StepVerifyEmail:
		return "verify-email"
	case StepConnectAccounts:
		return "connect-accounts"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Destinations the wizard hands the user to when it finishes.
const (
	DestinationDashboard        = "/dashboard"
	DestinationAcceptInvitation = "/invitations/accept"
)

// minPasswordLength is the shortest password the register form accepts.
const minPasswordLength = 8

// ErrWrongStep is returned for an action the current step does not offer.
var ErrWrongStep = errors.New("action not available at this step")

// Wizard is the signup state machine. It is driven by one user and is not safe for
// concurrent use.
type Wizard struct {
	backend Backend
	sess    *session.Session
	log     zerolog.Logger
	now     func() time.Time

	step        Step
	email       string
	destination string
}

// NewWizard starts a wizard at StepCreateAccount. A pending invitation, if any, is
// read from sess.
func NewWizard(backend Backend, sess *session.Session, log zerolog.Logger) *Wizard {
	return &Wizard{backend: backend, sess: sess, log: log, now: time.Now}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Email returns the address captured at registration.
func (w *Wizard) Email() string { return w.email }

// Destination returns where the user was sent once the wizard finished.
func (w *Wizard) Destination() (string, bool) {
	return w.destination, w.step == StepDone
}

// Guard sends an already authenticated user at the first step straight to the dashboard.
func (w *Wizard) Guard() (string, bool) {
	if w.step == StepCreateAccount && w.sess.Authenticated(w.now()) {
		w.finish(DestinationDashboard)
		w.log.Info().Msg("Already signed in; skipping signup")
		return DestinationDashboard, true
	}
	return "", false
}

// Register creates the user and moves to email verification.
func (w *Wizard) Register(ctx context.Context, req RegisterRequest) error {
	if w.step != StepCreateAccount {
		return fmt.Errorf("Register at %s: %w", w.step, ErrWrongStep)
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return err
	}
	if err := w.backend.Register(ctx, req); err != nil {
		w.log.Error().Err(err).Str("email", req.Email).Msg("Registration failed")
		return err
	}
	w.email = req.Email
	w.step = StepVerifyEmail
	w.log.Info().Str("email", req.Email).Msg("Registered; verification code sent")
	return nil
}

// Verify submits the emailed code. With a pending invitation the wizard ends here and
// the returned destination is the invitation page; otherwise it moves to connecting
// accounts and the destination is empty.
func (w *Wizard) Verify(ctx context.Context, code string) (string, error) {
	if w.step != StepVerifyEmail {
		return "", fmt.Errorf("Verify at %s: %w", w.step, ErrWrongStep)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", api.Validation("Enter the verification code.")
	}

	token, err := w.backend.VerifyEmail(ctx, w.email, code)
	if err != nil {
		w.log.Warn().Err(err).Str("email", w.email).Msg("Verification failed")
		return "", err
	}
	if token != "" {
		w.sess.SetToken(token)
	}

	if _, ok := w.sess.PendingInvitation(); ok {
		w.finish(DestinationAcceptInvitation)
		w.log.Info().Str("email", w.email).Msg("Email verified; continuing to invitation")
		return DestinationAcceptInvitation, nil
	}
	w.step = StepConnectAccounts
	w.log.Info().Str("email", w.email).Msg("Email verified")
	return "", nil
}

// Resend asks for a new code. It does not change the step and returns a confirmation
// to show briefly.
func (w *Wizard) Resend(ctx context.Context) (string, error) {
	if w.step != StepVerifyEmail {
		return "", fmt.Errorf("Resend at %s: %w", w.step, ErrWrongStep)
	}
	if err := w.backend.ResendCode(ctx, w.email); err != nil {
		return "", err
	}
	return fmt.Sprintf("A new code has been sent to %s.", w.email), nil
}

// Continue finishes the wizard after accounts were connected.
func (w *Wizard) Continue() (string, error) {
	return w.complete("Continue")
}

// Skip finishes the wizard without connecting accounts.
func (w *Wizard) Skip() (string, error) {
	return w.complete("Skip")
}

func (w *Wizard) complete(op string) (string, error) {
	if w.step != StepConnectAccounts {
		return "", fmt.Errorf("%s at %s: %w", op, w.step, ErrWrongStep)
	}
	w.sess.ConsumePendingInvitation()
	w.finish(DestinationDashboard)
	w.log.Info().Str("email", w.email).Msg("Signup complete")
	return DestinationDashboard, nil
}

func (w *Wizard) finish(dest string) {
	w.step = StepDone
	w.destination = dest
}

// RegisterRequest is the create-account form.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
}

// Validate checks the form before anything is sent.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return api.Validation("Enter your name.")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return api.Validation("Enter a valid email address.")
	}
	if len(r.Password) < minPasswordLength {
		return api.Validation("Password must be at least %d characters.", minPasswordLength)
	}
	return nil
}

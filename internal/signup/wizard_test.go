package signup

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	RegisterFunc    func(ctx context.Context, req RegisterRequest) error
	VerifyEmailFunc func(ctx context.Context, email, code string) (string, error)
	ResendCodeFunc  func(ctx context.Context, email string) error

	resent []string
}

func (m *MockBackend) Register(ctx context.Context, req RegisterRequest) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil
}

func (m *MockBackend) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, email, code)
	}
	if code != "123456" {
		return "", &api.Error{Kind: api.KindServer, Message: "Invalid verification code"}
	}
	return "session-token", nil
}

func (m *MockBackend) ResendCode(ctx context.Context, email string) error {
	m.resent = append(m.resent, email)
	if m.ResendCodeFunc != nil {
		return m.ResendCodeFunc(ctx, email)
	}
	return nil
}

var validForm = RegisterRequest{Name: "Ada", Email: "ada@co.com", Password: "correct-horse"}

func TestWizard_HappyPath(t *testing.T) {
	sess := session.New("")
	w := NewWizard(&MockBackend{}, sess, zerolog.Nop())

	_, redirected := w.Guard()
	require.False(t, redirected)
	require.Equal(t, StepCreateAccount, w.Step())

	require.NoError(t, w.Register(context.Background(), validForm))
	require.Equal(t, StepVerifyEmail, w.Step())
	require.Equal(t, "ada@co.com", w.Email())

	dest, err := w.Verify(context.Background(), "123456")
	require.NoError(t, err)
	require.Empty(t, dest)
	require.Equal(t, StepConnectAccounts, w.Step())
	require.Equal(t, "session-token", sess.Token())

	dest, err = w.Continue()
	require.NoError(t, err)
	require.Equal(t, DestinationDashboard, dest)
	got, done := w.Destination()
	require.True(t, done)
	require.Equal(t, DestinationDashboard, got)
}

func TestWizard_SkipAlsoGoesToDashboard(t *testing.T) {
	w := NewWizard(&MockBackend{}, session.New(""), zerolog.Nop())
	require.NoError(t, w.Register(context.Background(), validForm))
	_, err := w.Verify(context.Background(), "123456")
	require.NoError(t, err)

	dest, err := w.Skip()
	require.NoError(t, err)
	require.Equal(t, DestinationDashboard, dest)
	require.Equal(t, StepDone, w.Step())
}

func TestWizard_PendingInvitationExitsAfterVerify(t *testing.T) {
	sess := session.New("")
	sess.SetPendingInvitation("inv-token")
	w := NewWizard(&MockBackend{}, sess, zerolog.Nop())

	require.NoError(t, w.Register(context.Background(), validForm))
	dest, err := w.Verify(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, DestinationAcceptInvitation, dest)
	require.Equal(t, StepDone, w.Step())

	// The invitation page consumes the token, not the wizard.
	token, ok := sess.PendingInvitation()
	require.True(t, ok)
	require.Equal(t, "inv-token", token)

	_, err = w.Continue()
	require.ErrorIs(t, err, ErrWrongStep)
}

func TestWizard_GuardRedirectsAuthenticatedUser(t *testing.T) {
	w := NewWizard(&MockBackend{}, session.New("existing-session"), zerolog.Nop())

	dest, redirected := w.Guard()
	require.True(t, redirected)
	require.Equal(t, DestinationDashboard, dest)
	require.ErrorIs(t, w.Register(context.Background(), validForm), ErrWrongStep)
}

func TestWizard_GuardOnlyAtFirstStep(t *testing.T) {
	sess := session.New("")
	w := NewWizard(&MockBackend{}, sess, zerolog.Nop())
	require.NoError(t, w.Register(context.Background(), validForm))
	_, err := w.Verify(context.Background(), "123456")
	require.NoError(t, err)

	_, redirected := w.Guard()
	require.False(t, redirected)
	require.Equal(t, StepConnectAccounts, w.Step())
}

func TestWizard_FailuresStayPut(t *testing.T) {
	backend := &MockBackend{RegisterFunc: func(ctx context.Context, req RegisterRequest) error {
		return &api.Error{Kind: api.KindServer, Message: "An account with this email already exists"}
	}}
	w := NewWizard(backend, session.New(""), zerolog.Nop())

	err := w.Register(context.Background(), validForm)
	require.Equal(t, "An account with this email already exists", api.UserMessage(err, ""))
	require.Equal(t, StepCreateAccount, w.Step())

	w = NewWizard(&MockBackend{}, session.New(""), zerolog.Nop())
	require.NoError(t, w.Register(context.Background(), validForm))
	_, err = w.Verify(context.Background(), "000000")
	require.Error(t, err)
	require.Equal(t, StepVerifyEmail, w.Step())
}

func TestWizard_ResendOnlyAtVerify(t *testing.T) {
	backend := &MockBackend{}
	w := NewWizard(backend, session.New(""), zerolog.Nop())

	_, err := w.Resend(context.Background())
	require.ErrorIs(t, err, ErrWrongStep)

	require.NoError(t, w.Register(context.Background(), validForm))
	msg, err := w.Resend(context.Background())
	require.NoError(t, err)
	require.Contains(t, msg, "ada@co.com")
	require.Equal(t, StepVerifyEmail, w.Step())
	require.Equal(t, []string{"ada@co.com"}, backend.resent)
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"no name", RegisterRequest{Email: "a@b.co", Password: "longenough"}},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, api.IsKind(tt.req.Validate(), api.KindValidation))
		})
	}
	require.NoError(t, validForm.Validate())
}

// TestWizard_NeverRegresses drives the wizard with random actions and outcomes and
// checks that the step never decreases and that connecting accounts is only reached
// through a successful verification.
func TestWizard_NeverRegresses(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		sess := session.New("")
		if rng.Intn(3) == 0 {
			sess.SetPendingInvitation("inv")
		}
		if rng.Intn(5) == 0 {
			sess.SetToken("signed-in")
		}

		fail := false
		verified := false
		backend := &MockBackend{
			RegisterFunc: func(ctx context.Context, req RegisterRequest) error {
				if fail {
					return errors.New("boom")
				}
				return nil
			},
			VerifyEmailFunc: func(ctx context.Context, email, code string) (string, error) {
				if fail {
					return "", errors.New("boom")
				}
				verified = true
				return "tok", nil
			},
		}
		w := NewWizard(backend, sess, zerolog.Nop())
		ctx := context.Background()

		prev := w.Step()
		for i := 0; i < 12; i++ {
			fail = rng.Intn(3) == 0
			switch rng.Intn(6) {
			case 0:
				w.Guard()
			case 1:
				_ = w.Register(ctx, validForm)
			case 2:
				_, _ = w.Verify(ctx, "123456")
			case 3:
				_, _ = w.Resend(ctx)
			case 4:
				_, _ = w.Continue()
			case 5:
				_, _ = w.Skip()
			}

			cur := w.Step()
			require.GreaterOrEqual(t, cur, prev, "run %d action %d", run, i)
			if cur == StepConnectAccounts {
				require.True(t, verified, "run %d reached step 2 without verification", run)
			}
			prev = cur
		}
	}
}

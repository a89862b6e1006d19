// Package upload submits bank and card statements: it ensures the target account,
// encodes the file, posts it, reports progress and navigates on success.
package upload

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultSuccessDelay is how long the success state shows before navigating away.
const DefaultSuccessDelay = 1500 * time.Millisecond

// Result describes a successful upload.
type Result struct {
	Statement *domain.Statement
	AccountID string
	RequestID string

	// Ignored lists files that were selected but not submitted.
	Ignored []string

	// Navigated is false when ctx ended during the success delay.
	Navigated bool
}

// Orchestrator runs upload sessions.
type Orchestrator struct {
	pipeline     *Pipeline
	companyID    string
	progress     ProgressSink
	nav          Navigator
	successDelay time.Duration
	log          zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress sets the progress sink. The default discards progress.
func WithProgress(p ProgressSink) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithNavigator sets where the user is sent after a successful upload.
func WithNavigator(n Navigator) Option {
	return func(o *Orchestrator) { o.nav = n }
}

// WithSuccessDelay overrides DefaultSuccessDelay.
func WithSuccessDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.successDelay = d }
}

// Deps are the collaborators of an Orchestrator. Accounts and Events may be nil.
type Deps struct {
	Accounts AccountCreator
	Loader   *Loader
	Backend  Backend
	Events   EventSource
}

// NewOrchestrator creates an Orchestrator for companyID.
func NewOrchestrator(deps Deps, companyID string, log zerolog.Logger, opts ...Option) *Orchestrator {
	if deps.Loader == nil {
		deps.Loader = NewLoader(nil)
	}
	o := &Orchestrator{
		pipeline: NewPipeline(
			&EnsureAccountStep{Accounts: deps.Accounts, Log: log},
			&EncodeFileStep{Loader: deps.Loader},
			&SubmitStep{Backend: deps.Backend, Events: deps.Events, Log: log},
		),
		companyID:    companyID,
		progress:     NopProgress{},
		successDelay: DefaultSuccessDelay,
		log:          log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run submits the session's first file. On failure the session keeps its files and
// records the message; nothing is retried. On success the session is cleared after
// the success delay and the navigator is sent to the statement list.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) (*Result, error) {
	if err := o.check(sess); err != nil {
		return nil, o.fail(sess, err)
	}

	ignored := append([]string(nil), sess.Files[1:]...)
	if len(ignored) > 0 {
		o.log.Warn().Strs("ignored", ignored).Msg("Only the first selected file is uploaded")
	}

	state := &State{Session: sess, CompanyID: o.companyID, Progress: o.progress}
	if err := o.pipeline.Execute(ctx, state); err != nil {
		return nil, o.fail(sess, err)
	}

	o.progress.Complete()
	sess.Outcome = OutcomeSucceeded
	sess.Message = "Statement uploaded successfully."
	o.log.Info().
		Str("statement_id", state.Statement.ID).
		Str("account_id", state.AccountID).
		Str("file", state.File.Name).
		Str("request_id", state.RequestID).
		Msg("Statement uploaded")

	res := &Result{
		Statement: state.Statement,
		AccountID: state.AccountID,
		RequestID: state.RequestID,
		Ignored:   ignored,
	}

	timer := time.NewTimer(o.successDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		o.log.Debug().Msg("Navigation skipped; context ended during success delay")
		return res, nil
	case <-timer.C:
	}

	sess.Clear()
	if o.nav != nil {
		o.nav.Navigate(RouteStatements)
	}
	res.Navigated = true
	return res, nil
}

func (o *Orchestrator) check(sess *Session) error {
	if sess == nil || len(sess.Files) == 0 {
		return api.Validation("Select a file to upload.")
	}
	if err := api.RequireCompany(o.companyID); err != nil {
		return err
	}
	if sess.Target == "" {
		return api.Unauthorized("Select an account first.")
	}
	if sess.AccountType == "" && !(sess.Target == NewAccountTarget && sess.NewAccount.Type != "") {
		return api.Validation("Choose whether this is a bank account or a credit card.")
	}
	if sess.Period != nil {
		if err := sess.Period.Validate(); err != nil {
			return api.Validation("%s", err.Error())
		}
	}
	return nil
}

func (o *Orchestrator) fail(sess *Session, err error) error {
	msg := api.UserMessage(err, "Failed to upload statement.")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		msg = "Upload cancelled."
	}
	if sess != nil {
		sess.Outcome = OutcomeFailed
		sess.Message = msg
	}
	o.progress.Failed(msg)
	o.log.Error().Err(err).Msg("Upload failed")
	return err
}

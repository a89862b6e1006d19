package upload

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step is one stage of an upload.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is shared by the steps of one upload.
type State struct {
	Session   *Session
	CompanyID string
	Progress  ProgressSink

	AccountID string
	File      File
	Payload   string
	RequestID string
	Statement *domain.Statement
}

// Step 1: EnsureAccountStep resolves the target, creating the account when asked to.
// A created account becomes the session's target, so a retry does not create it again.
type EnsureAccountStep struct {
	Accounts AccountCreator
	Log      zerolog.Logger
}

func (s *EnsureAccountStep) Execute(ctx context.Context, state *State) error {
	sess := state.Session
	switch sess.Target {
	case "":
		return api.Unauthorized("Select an account first.")
	case NewAccountTarget:
	default:
		state.AccountID = sess.Target
		return nil
	}

	if s.Accounts == nil {
		return api.Validation("Creating accounts is not available here.")
	}
	in := sess.NewAccount
	if in.Type == "" {
		in.Type = sess.AccountType
	}
	if in.CompanyID == "" {
		in.CompanyID = state.CompanyID
	}
	acc, err := s.Accounts.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("EnsureAccount: %w", err)
	}
	s.Log.Info().Str("account_id", acc.ID).Str("name", acc.Name).Msg("Created upload target account")

	sess.Target = acc.ID
	if acc.Type != "" {
		sess.AccountType = acc.Type
	}
	state.AccountID = acc.ID
	return nil
}

// Step 2: EncodeFileStep reads the first file and encodes it as a data URI.
type EncodeFileStep struct {
	Loader *Loader
}

func (s *EncodeFileStep) Execute(ctx context.Context, state *State) error {
	f, err := s.Loader.Load(ctx, state.Session.Files[0])
	if err != nil {
		return fmt.Errorf("EncodeFile: %w", err)
	}
	state.File = f
	state.Payload = Encode(f.Data)
	return nil
}

// Step 3: SubmitStep posts the statement. Progress is indeterminate while the request
// is outstanding, plus whatever percentages the backend reports for it.
type SubmitStep struct {
	Backend Backend
	Events  EventSource
	Log     zerolog.Logger
}

func (s *SubmitStep) Execute(ctx context.Context, state *State) error {
	state.RequestID = uuid.NewString()
	ctx = api.WithRequestID(ctx, state.RequestID)

	state.Progress.Indeterminate()
	w := watchProgress(ctx, s.Events, state.CompanyID, state.RequestID, state.Progress, s.Log)

	st, err := s.Backend.Upload(ctx, Request{
		FileName:        state.File.Name,
		FileData:        state.Payload,
		AccountID:       state.AccountID,
		AccountType:     state.Session.AccountType,
		StatementPeriod: state.Session.Period,
	})
	w.stop()
	if err != nil {
		return fmt.Errorf("Submit: %w", err)
	}
	state.Statement = st
	return nil
}

// Pipeline executes steps in order and stops at the first failure.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload step %d: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("upload step %d failed: %w", i+1, err)
		}
	}
	return nil
}

package upload

import (
	"context"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/events"
)

// AccountCreator creates the target account when the session asks for a new one.
// *accounts.Registry satisfies it.
type AccountCreator interface {
	Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error)
}

// Backend submits an encoded statement.
type Backend interface {
	Upload(ctx context.Context, req Request) (*domain.Statement, error)
}

// EventSource opens an event stream used for real upload progress.
// *events.Subscriber satisfies it.
type EventSource interface {
	Subscribe(ctx context.Context, companyID string) (*events.Stream, error)
}

// ProgressSink shows upload progress to the user.
type ProgressSink interface {
	// Indeterminate marks the upload as outstanding with no known percentage.
	Indeterminate()

	// Report shows a percentage the backend reported.
	Report(percent int)

	// Complete marks the upload as accepted.
	Complete()

	// Failed stops progress and shows message.
	Failed(message string)
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// RouteStatements is the statement list screen.
const RouteStatements = "/statements"

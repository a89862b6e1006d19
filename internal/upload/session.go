package upload

import (
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// NewAccountTarget selects "create the account first" instead of an existing id.
const NewAccountTarget = "new"

// Outcome is the terminal state of an upload session.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Session is the state of one upload, created when files are chosen. It is cleared
// after a successful upload and kept intact after a failure so it can be retried.
type Session struct {
	// Files are local paths or gs:// URIs. Only the first one is submitted.
	Files []string

	// Target is an existing account id or NewAccountTarget.
	Target string

	// AccountType is the kind of the target account.
	AccountType domain.AccountType

	// NewAccount describes the account to create when Target is NewAccountTarget.
	NewAccount domain.AccountInput

	Period *domain.Period

	Outcome Outcome
	Message string
}

// Clear resets the session to empty.
func (s *Session) Clear() {
	*s = Session{}
}

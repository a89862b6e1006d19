package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatementStatus tracks server-side processing of an uploaded statement.
type StatementStatus string

const (
	StatementPending    StatementStatus = "pending"
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementFailed     StatementStatus = "failed"
)

// Tone is the display emphasis of a status badge.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// ParseStatementStatus rejects statuses the client does not know.
func ParseStatementStatus(s string) (StatementStatus, error) {
	switch st := StatementStatus(s); st {
	case StatementPending, StatementProcessing, StatementCompleted, StatementFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown statement status %q", s)
	}
}

// Tone maps a status to its badge tone. A statement the server sent without a status
// shows as neutral. Unknown statuses cannot be decoded, see UnmarshalJSON.
func (s StatementStatus) Tone() Tone {
	switch s {
	case "", StatementPending:
		return ToneNeutral
	case StatementProcessing:
		return ToneInfo
	case StatementCompleted:
		return ToneSuccess
	case StatementFailed:
		return ToneDanger
	}
	panic(fmt.Sprintf("statement status %q has no tone", string(s)))
}

// Terminal reports whether processing has finished.
func (s StatementStatus) Terminal() bool {
	return s == StatementCompleted || s == StatementFailed
}

// UnmarshalJSON rejects unknown statuses.
func (s *StatementStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatementStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Statement is an uploaded financial document owned by one account.
type Statement struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"accountId"`
	FileName   string          `json:"fileName"`
	Period     *Period         `json:"statementPeriod,omitempty"`
	Status     StatementStatus `json:"status"`
	UploadedAt time.Time       `json:"uploadedAt"`
	Error      string          `json:"error,omitempty"`
}

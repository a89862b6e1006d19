// Package jobs describes background statement uploads and the queue seams that
// carry them from the inbox watcher to the upload workers.
package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// JobType names the kind of work a job carries.
type JobType string

// JobTypeUploadStatement uploads one statement file to an account.
const JobTypeUploadStatement JobType = "upload_statement"

// JobStatus is where a job is in its lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"

	// JobStatusRetrying marks a failed attempt that is waiting to be queued again.
	JobStatusRetrying JobStatus = "retrying"
)

// UploadStatementJob uploads a statement found in the inbox.
type UploadStatementJob struct {
	JobID string `json:"job_id"`

	// Source is a local path or gs:// URI.
	Source string `json:"source"`

	AccountID   string             `json:"account_id"`
	AccountType domain.AccountType `json:"account_type"`
	Period      *domain.Period     `json:"period,omitempty"`

	// StatementID is set once the backend accepted the upload.
	StatementID string `json:"statement_id,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last attempt's failure.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`

	// MaxRetries is how many times a failed attempt is queued again. Zero means never.
	MaxRetries int `json:"max_retries"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *UploadStatementJob) GetID() string        { return j.JobID }
func (j *UploadStatementJob) GetType() JobType     { return JobTypeUploadStatement }
func (j *UploadStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher queues jobs.
type Publisher interface {
	// PublishUpload queues a statement upload, filling in id, status and timestamps.
	PublishUpload(ctx context.Context, job *UploadStatementJob) error

	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start launches the workers; handler is called once per attempt.
	Start(ctx context.Context, handler JobHandler) error

	// Stop ends consumption and waits for running attempts until ctx ends.
	Stop(ctx context.Context) error
}

// JobHandler runs one attempt of a job. A returned error fails the attempt; the
// queue decides whether to try again.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps the latest known state of every job.
type JobStore interface {
	SaveJob(ctx context.Context, job *UploadStatementJob) error
	GetJob(ctx context.Context, jobID string) (*UploadStatementJob, error)

	// ListJobs returns matching jobs, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*UploadStatementJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs. Empty fields match everything.
type JobFilter struct {
	Source    string
	AccountID string
	Status    JobStatus
	Limit     int
	Offset    int
}

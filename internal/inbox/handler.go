package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/ledgerdesk/internal/gcs"
	"github.com/dvloznov/ledgerdesk/internal/jobs"
	"github.com/dvloznov/ledgerdesk/internal/upload"
	"github.com/rs/zerolog"
)

// Uploader runs one upload session.
type Uploader interface {
	Run(ctx context.Context, sess *upload.Session) (*upload.Result, error)
}

// Handler processes upload jobs from the queue.
type Handler struct {
	uploader Uploader
	storage  gcs.StorageService
	archive  *gcs.URI
	log      zerolog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithArchive copies each uploaded local file under prefix in Cloud Storage.
func WithArchive(storage gcs.StorageService, prefix gcs.URI) HandlerOption {
	return func(h *Handler) {
		h.storage = storage
		h.archive = &prefix
	}
}

// NewHandler creates a Handler around uploader.
func NewHandler(uploader Uploader, log zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{uploader: uploader, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements jobs.JobHandler.
func (h *Handler) Handle(ctx context.Context, job jobs.Job) error {
	up, ok := job.(*jobs.UploadStatementJob)
	if !ok {
		return fmt.Errorf("Handle: unsupported job type %s", job.GetType())
	}

	log := h.log.With().Str("job_id", up.JobID).Str("file", up.Source).Int("attempt", up.RetryCount+1).Logger()
	sess := &upload.Session{
		Files:       []string{up.Source},
		Target:      up.AccountID,
		AccountType: up.AccountType,
		Period:      up.Period,
	}
	res, err := h.uploader.Run(ctx, sess)
	if err != nil {
		return fmt.Errorf("Handle: %s: %s: %w", filepath.Base(up.Source), sess.Message, err)
	}
	if res != nil && res.Statement != nil {
		up.StatementID = res.Statement.ID
	}
	log.Info().Str("statement_id", up.StatementID).Msg("Inbox statement uploaded")

	// The statement is already accepted, so archive failures are only logged.
	if err := h.archiveFile(ctx, up.Source); err != nil {
		log.Warn().Err(err).Msg("Failed to archive statement")
	}
	return nil
}

func (h *Handler) archiveFile(ctx context.Context, source string) error {
	if h.storage == nil || h.archive == nil || gcs.IsURI(source) {
		return nil
	}
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("archiveFile: open: %w", err)
	}
	defer f.Close()

	dest := h.archive.Join(filepath.Base(source)).String()
	if err := h.storage.Upload(ctx, dest, f); err != nil {
		return fmt.Errorf("archiveFile: upload %s: %w", dest, err)
	}
	h.log.Debug().Str("file", source).Str("archive", dest).Msg("Statement archived")
	return nil
}

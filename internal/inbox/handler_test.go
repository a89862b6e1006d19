package inbox

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/gcs"
	"github.com/dvloznov/ledgerdesk/internal/jobs"
	"github.com/dvloznov/ledgerdesk/internal/upload"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	RunFunc func(ctx context.Context, sess *upload.Session) (*upload.Result, error)
}

func (m *mockUploader) Run(ctx context.Context, sess *upload.Session) (*upload.Result, error) {
	return m.RunFunc(ctx, sess)
}

func TestHandler_UploadsAndArchives(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "march.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 statement"), 0o600))

	var sess upload.Session
	uploader := &mockUploader{RunFunc: func(ctx context.Context, s *upload.Session) (*upload.Result, error) {
		sess = *s
		return &upload.Result{Statement: &domain.Statement{ID: "st-9"}, AccountID: s.Target}, nil
	}}

	var archivedURI string
	var archived []byte
	storage := &gcs.MockStorageService{UploadFunc: func(ctx context.Context, uri string, r io.Reader) error {
		archivedURI = uri
		b, err := io.ReadAll(r)
		archived = b
		return err
	}}

	h := NewHandler(uploader, zerolog.Nop(), WithArchive(storage, gcs.URI{Bucket: "ledger", Object: "inbox"}))
	job := &jobs.UploadStatementJob{JobID: "j1", Source: src, AccountID: "acc-1", AccountType: domain.AccountTypeCreditCard}

	require.NoError(t, h.Handle(context.Background(), job))
	require.Equal(t, []string{src}, sess.Files)
	require.Equal(t, "acc-1", sess.Target)
	require.Equal(t, domain.AccountTypeCreditCard, sess.AccountType)
	require.Equal(t, "st-9", job.StatementID)
	require.Equal(t, "gs://ledger/inbox/march.pdf", archivedURI)
	require.Equal(t, "%PDF-1.4 statement", string(archived))
}

func TestHandler_ArchiveFailureIsNotFatal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	uploader := &mockUploader{RunFunc: func(ctx context.Context, s *upload.Session) (*upload.Result, error) {
		return &upload.Result{Statement: &domain.Statement{ID: "st-1"}}, nil
	}}
	storage := &gcs.MockStorageService{UploadFunc: func(ctx context.Context, uri string, r io.Reader) error {
		return errors.New("bucket gone")
	}}

	h := NewHandler(uploader, zerolog.Nop(), WithArchive(storage, gcs.URI{Bucket: "b", Object: "p"}))
	require.NoError(t, h.Handle(context.Background(), &jobs.UploadStatementJob{Source: src, AccountID: "acc-1"}))
}

func TestHandler_UploadFailure(t *testing.T) {
	uploader := &mockUploader{RunFunc: func(ctx context.Context, s *upload.Session) (*upload.Result, error) {
		s.Message = "Account not found"
		return nil, errors.New("404")
	}}
	storage := &gcs.MockStorageService{UploadFunc: func(ctx context.Context, uri string, r io.Reader) error {
		t.Fatal("archive must not run after a failed upload")
		return nil
	}}

	h := NewHandler(uploader, zerolog.Nop(), WithArchive(storage, gcs.URI{Bucket: "b", Object: "p"}))
	err := h.Handle(context.Background(), &jobs.UploadStatementJob{Source: "/inbox/a.pdf", AccountID: "acc-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Account not found")
}

type otherJob struct{}

func (otherJob) GetID() string             { return "x" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestHandler_RejectsUnknownJobs(t *testing.T) {
	h := NewHandler(&mockUploader{}, zerolog.Nop())
	require.Error(t, h.Handle(context.Background(), otherJob{}))
}

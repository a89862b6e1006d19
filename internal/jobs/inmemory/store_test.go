package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/jobs"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := &jobs.UploadStatementJob{JobID: "j1", Source: "a.pdf", Status: jobs.JobStatusPending}
	require.NoError(t, s.SaveJob(ctx, job))
	job.Status = jobs.JobStatusFailed

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.Equal(t, jobs.JobStatusPending, got.Status)

	require.Error(t, s.SaveJob(ctx, &jobs.UploadStatementJob{}))
	_, err = s.GetJob(ctx, "missing")
	require.Error(t, err)
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.UploadStatementJob{
		{JobID: "c", Source: "c.pdf", AccountID: "acc-1", Status: jobs.JobStatusFailed},
		{JobID: "a", Source: "a.pdf", AccountID: "acc-1", Status: jobs.JobStatusCompleted},
		{JobID: "b", Source: "b.pdf", AccountID: "acc-2", Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, j))
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all oldest first", jobs.JobFilter{}, []string{"c", "a", "b"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"a", "b"}},
		{"by account", jobs.JobFilter{AccountID: "acc-1"}, []string{"c", "a"}},
		{"by source", jobs.JobFilter{Source: "b.pdf"}, []string{"b"}},
		{"offset and limit", jobs.JobFilter{Offset: 1, Limit: 1}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			ids := []string{}
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveJob(ctx, &jobs.UploadStatementJob{JobID: "j1"}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"))
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.Equal(t, jobs.JobStatusFailed, got.Status)
	require.Equal(t, "boom", got.Error)

	require.Error(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""))
}

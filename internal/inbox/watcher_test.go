package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/jobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"march.pdf", true},
		{"MARCH.PDF", true},
		{"export.csv", true},
		{"scan.jpeg", true},
		{"scan.JPG", true},
		{"photo.png", true},
		{"notes.txt", false},
		{".hidden.pdf", false},
		{"download.pdf.crdownload", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Supported(filepath.Join("/inbox", tt.name)))
		})
	}
}

type collected struct {
	mu   sync.Mutex
	jobs []*jobs.UploadStatementJob
}

func (c *collected) publisher() *jobs.MockPublisher {
	return &jobs.MockPublisher{
		PublishUploadFunc: func(ctx context.Context, job *jobs.UploadStatementJob) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			copied := *job
			c.jobs = append(c.jobs, &copied)
			return nil
		},
	}
}

func (c *collected) sources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []string{}
	for _, j := range c.jobs {
		out = append(out, filepath.Base(j.Source))
	}
	sort.Strings(out)
	return out
}

func TestWatcher_PublishesSettledFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("%PDF-1.4"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o600))

	var got collected
	w := NewWatcher(Config{
		Dir:         dir,
		Settle:      30 * time.Millisecond,
		AccountID:   "acc-1",
		AccountType: domain.AccountTypeBank,
	}, got.publisher(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(got.sources()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.csv"), []byte("date,amount\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.pdf"), nil, 0o600))

	require.Eventually(t, func() bool {
		return len(got.sources()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Give the watcher a chance to publish duplicates before checking.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, []string{"existing.pdf", "new.csv"}, got.sources())

	got.mu.Lock()
	for _, j := range got.jobs {
		require.Equal(t, "acc-1", j.AccountID)
		require.Equal(t, domain.AccountTypeBank, j.AccountType)
	}
	got.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_RequiresConfig(t *testing.T) {
	pub := &jobs.MockPublisher{}

	err := NewWatcher(Config{AccountID: "acc-1", AccountType: domain.AccountTypeBank}, pub, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)

	err = NewWatcher(Config{Dir: t.TempDir()}, pub, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)

	err = NewWatcher(Config{
		Dir:         filepath.Join(t.TempDir(), "missing"),
		AccountID:   "acc-1",
		AccountType: domain.AccountTypeBank,
	}, pub, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
}

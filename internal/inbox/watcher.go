// Package inbox turns statement files dropped into a directory into upload jobs.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/jobs"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultSettle is how long a file must go unmodified before it is published.
const DefaultSettle = 500 * time.Millisecond

// Config describes the watched directory and the account its files belong to.
type Config struct {
	Dir         string
	Settle      time.Duration
	AccountID   string
	AccountType domain.AccountType
}

// Watcher publishes an upload job for every settled statement file in a directory.
type Watcher struct {
	cfg Config
	pub jobs.Publisher
	log zerolog.Logger

	// published holds paths already turned into jobs. A removed or renamed file
	// is forgotten so dropping it again publishes a new job.
	published map[string]bool
}

// NewWatcher creates a Watcher. Call Run to start it.
func NewWatcher(cfg Config, pub jobs.Publisher, log zerolog.Logger) *Watcher {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Watcher{
		cfg:       cfg,
		pub:       pub,
		log:       log.With().Str("inbox", cfg.Dir).Logger(),
		published: map[string]bool{},
	}
}

// Supported reports whether name looks like a statement file.
func Supported(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".pdf", ".csv", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Run watches the directory until ctx ends. Files already present are published
// once they have settled, like new ones.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Dir == "" {
		return fmt.Errorf("Run: inbox directory is required")
	}
	if w.cfg.AccountID == "" || w.cfg.AccountType == "" {
		return fmt.Errorf("Run: inbox account id and type are required")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Run: new watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("Run: watch %s: %w", w.cfg.Dir, err)
	}

	pending := map[string]time.Time{}
	existing, err := listSupported(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("Run: scan: %w", err)
	}
	for _, path := range existing {
		pending[path] = time.Now()
	}
	w.log.Info().Int("existing", len(existing)).Dur("settle", w.cfg.Settle).Msg("Watching inbox")

	tick := w.cfg.Settle / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !Supported(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				delete(pending, ev.Name)
				delete(w.published, ev.Name)
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				if !w.published[ev.Name] {
					pending[ev.Name] = time.Now()
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Inbox watch error")
		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.cfg.Settle {
					continue
				}
				delete(pending, path)
				w.publish(ctx, path)
			}
		}
	}
}

func (w *Watcher) publish(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		w.log.Debug().Str("file", path).Msg("Skipping unreadable or empty file")
		return
	}

	job := &jobs.UploadStatementJob{
		Source:      path,
		AccountID:   w.cfg.AccountID,
		AccountType: w.cfg.AccountType,
	}
	if err := w.pub.PublishUpload(ctx, job); err != nil {
		w.log.Error().Err(err).Str("file", path).Msg("Failed to publish upload job")
		return
	}
	w.published[path] = true
	w.log.Info().Str("file", path).Str("job_id", job.JobID).Msg("Queued statement upload")
}

func listSupported(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

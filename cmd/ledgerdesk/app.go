package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/config"
	"github.com/dvloznov/ledgerdesk/internal/events"
	"github.com/dvloznov/ledgerdesk/internal/gcs"
	"github.com/dvloznov/ledgerdesk/internal/logger"
	"github.com/dvloznov/ledgerdesk/internal/session"
	"github.com/rs/zerolog"
)

// app holds what every command needs: configuration, a logger, the backend client
// and the terminal.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	client  *api.Client
	sess    *session.Session
	storage *gcs.Storage
	in      *bufio.Reader
	out     io.Writer
}

func newApp() *app {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	client, err := api.NewClient(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API client")
	}

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		sess:    session.New(cfg.API.Token),
		storage: gcs.NewStorage(cfg.GCS.CredentialsFile),
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close storage client")
	}
}

// context returns a context that ends on SIGINT or SIGTERM and carries the logger.
func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return logger.WithContext(ctx, a.log), cancel
}

// companyFlag registers -company defaulting to the configured company.
func (a *app) companyFlag(fs *flag.FlagSet) *string {
	return fs.String("company", a.cfg.Company.ID, "Company ID")
}

// confirm asks on the terminal unless yes is set.
func (a *app) confirm(yes bool) api.Confirm {
	if yes {
		return func(string) bool { return true }
	}
	return func(prompt string) bool {
		return askYesNo(a.in, a.out, prompt)
	}
}

// prompt prints label and reads one trimmed line.
func (a *app) prompt(label string) string {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(os.Stderr, "\nInput closed.")
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		a.log.Fatal().Err(err).Msg("Failed to read input")
	}
	return strings.TrimSpace(line)
}

// reauth rebuilds the client after the session token changed.
func (a *app) reauth() {
	client, err := api.NewClient(a.cfg.API.BaseURL,
		api.WithToken(a.sess.Token()),
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithLogger(a.log),
	)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Failed to create API client")
	}
	a.client = client
}

// subscriber returns the event subscriber for the configured backend.
func (a *app) subscriber() *events.Subscriber {
	u := events.URLFor(a.client.BaseURL())
	if a.cfg.Events.URL != "" {
		parsed, err := url.Parse(a.cfg.Events.URL)
		if err != nil {
			a.log.Fatal().Err(err).Str("url", a.cfg.Events.URL).Msg("Invalid events.url")
		}
		u = parsed
	}
	return events.NewSubscriber(u, a.sess.Token(), a.log)
}

// fail reports err to the user and exits. A declined confirmation is not an error.
func (a *app) fail(err error, fallback string) {
	if errors.Is(err, api.ErrNotConfirmed) {
		fmt.Fprintln(a.out, "Cancelled.")
		os.Exit(0)
	}
	a.log.Debug().Err(err).Msg("Command failed")
	fmt.Fprintf(os.Stderr, "Error: %s\n", api.UserMessage(err, fallback))
	os.Exit(1)
}

func askYesNo(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/accounts"
	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/config"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/dvloznov/ledgerdesk/internal/events"
	"github.com/dvloznov/ledgerdesk/internal/gcs"
	"github.com/dvloznov/ledgerdesk/internal/inbox"
	"github.com/dvloznov/ledgerdesk/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerdesk/internal/logger"
	"github.com/dvloznov/ledgerdesk/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", cfg.Inbox.Dir, "Directory to watch for statements")
	account := flag.String("account", cfg.Inbox.AccountID, "Account ID the statements belong to")
	kind := flag.String("type", cfg.Inbox.AccountType, "Account type: bank or card")
	company := flag.String("company", cfg.Company.ID, "Company ID")
	workers := flag.Int("workers", cfg.Inbox.Workers, "Concurrent uploads")
	retries := flag.Int("retries", cfg.Inbox.MaxRetries, "Automatic retries per failed upload")
	archive := flag.String("archive", cfg.Inbox.Archive, "gs://bucket/prefix to copy uploaded files to")
	flag.Parse()

	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	accountType, err := domain.ParseAccountType(*kind)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid account type")
	}
	if err := api.RequireCompany(*company); err != nil {
		log.Fatal().Err(err).Msg("company.id is required")
	}

	client, err := api.NewClient(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API client")
	}

	storage := gcs.NewStorage(cfg.GCS.CredentialsFile)
	defer storage.Close()

	deps := upload.Deps{
		Accounts: accounts.NewRegistry(accounts.NewHTTPService(client, accountType), *company, log),
		Loader:   upload.NewLoader(storage),
		Backend:  upload.NewHTTPBackend(client),
	}
	if cfg.Upload.ProgressEvents {
		u := events.URLFor(client.BaseURL())
		if cfg.Events.URL != "" {
			if u, err = url.Parse(cfg.Events.URL); err != nil {
				log.Fatal().Err(err).Msg("Invalid events.url")
			}
		}
		deps.Events = events.NewSubscriber(u, cfg.API.Token, log)
	}
	// Inbox uploads have no screen to return to, so there is no success delay.
	orch := upload.NewOrchestrator(deps, *company, log,
		upload.WithProgress(upload.LogProgress{Log: log}),
		upload.WithSuccessDelay(0),
	)

	var handlerOpts []inbox.HandlerOption
	if *archive != "" {
		prefix, err := gcs.ParseURI(*archive)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid archive URI")
		}
		handlerOpts = append(handlerOpts, inbox.WithArchive(storage, prefix))
	}
	handler := inbox.NewHandler(orch, log, handlerOpts...)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore,
		inmemory.WithWorkers(*workers),
		inmemory.WithMaxRetries(*retries),
	)

	log.Info().Str("dir", *dir).Str("account_id", *account).Int("workers", *workers).Msg("Starting inbox worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if err := jobQueue.Start(ctx, handler.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	watcher := inbox.NewWatcher(inbox.Config{
		Dir:         *dir,
		Settle:      cfg.Inbox.Settle,
		AccountID:   *account,
		AccountType: accountType,
	}, jobQueue, log)

	if err := watcher.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Inbox watcher stopped")
		cancel()
	}

	log.Info().Msg("Shutting down inbox worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Inbox worker exited")
}

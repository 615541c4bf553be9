package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/hubmirror/hubmirror/internal/adapter/driven/github"
	sqliteadapter "github.com/hubmirror/hubmirror/internal/adapter/driven/sqlite"
	httphandler "github.com/hubmirror/hubmirror/internal/adapter/driving/http"
	"github.com/hubmirror/hubmirror/internal/application"
	"github.com/hubmirror/hubmirror/internal/config"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sync_page_size", cfg.SyncPageSize,
		"oauth_configured", cfg.HasOAuthCredentials(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	integrationStore := sqliteadapter.NewIntegrationRepo(db)
	orgStore := sqliteadapter.NewOrgRepo(db)
	repoStore := sqliteadapter.NewRepoRepo(db)
	commitStore := sqliteadapter.NewCommitRepo(db)
	pullStore := sqliteadapter.NewPullRepo(db)
	issueStore := sqliteadapter.NewIssueRepo(db)
	changelogStore := sqliteadapter.NewChangelogRepo(db)
	memberStore := sqliteadapter.NewMemberRepo(db)
	browseStore := sqliteadapter.NewBrowseRepo(db)

	clientFor := func(token string) driven.GitHubClient {
		return githubadapter.NewClient(token)
	}

	// 6. Wire application services.
	syncSvc := application.NewSyncService(
		clientFor,
		integrationStore,
		orgStore,
		repoStore,
		commitStore,
		pullStore,
		issueStore,
		changelogStore,
		memberStore,
		cfg.SyncPageSize,
	)
	integrationSvc := application.NewIntegrationService(
		clientFor,
		integrationStore,
		orgStore,
		repoStore,
		commitStore,
		pullStore,
		issueStore,
		changelogStore,
		memberStore,
		syncSvc,
	)

	oauthFlow := githubadapter.NewOAuthFlow(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)

	// 7. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(integrationSvc, browseStore, oauthFlow, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Resync responds only after a full mirror pass, which can take
		// minutes on large accounts.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("hubmirror started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

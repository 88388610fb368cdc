package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/config"
	httptransport "github.com/example/seminar-coordinator/internal/http"
	"github.com/example/seminar-coordinator/internal/logging"
	"github.com/example/seminar-coordinator/internal/persistence/sqlite"
	"github.com/example/seminar-coordinator/internal/token"
)

func main() {
	app := &cli.App{
		Name:  "coordinator",
		Usage: "seminar speaker coordination service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP API",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending schema migrations and exit",
				Action: runMigrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	return sqlite.Migrate(c.Context, pool)
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	speakerRepo := newSpeakerRepositoryAdapter(sqlite.NewSpeakerRepository(pool))
	dateRepo := newDateRepositoryAdapter(sqlite.NewDateRepository(pool))
	agendaRepo := newAgendaRepositoryAdapter(sqlite.NewAgendaRepository(pool))
	userRepo := sqlite.NewUserRepository(pool)
	credentialStore := newCredentialStoreAdapter(userRepo)
	userStore := newUserStoreAdapter(userRepo)
	sessionStore := newSessionStoreAdapter(sqlite.NewSessionRepository(pool))
	inviteStore := newInviteStoreAdapter(sqlite.NewSignupInviteRepository(pool))

	now := time.Now

	dateService := application.NewDateService(dateRepo, token.NewID, now, cfg.DateCacheTTL, cfg.DateCacheSize, logger)
	agendaService := application.NewAgendaService(agendaRepo, token.NewID, now, logger)
	actionLogService := application.NewActionLogService(speakerRepo, now, logger)
	speakerService := application.NewSpeakerService(application.SpeakerServiceConfig{
		Speakers:       speakerRepo,
		Dates:          dateService,
		Agendas:        agendaService,
		Mailer:         application.LogMailer{Logger: logger},
		IDGenerator:    token.NewID,
		TokenIssuer:    token.Issue,
		Now:            now,
		ResponseWindow: cfg.ResponseWindow,
		BaseURL:        cfg.BaseURL,
		Logger:         logger,
	})
	authService := application.NewAuthService(credentialStore, sessionStore, token.Issue, now, cfg.SessionTTL, logger)
	userService := application.NewUserService(userStore, inviteStore, token.NewID, token.Issue, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Speakers: httptransport.NewSpeakerHandler(speakerService, actionLogService, logger),
		Dates:    httptransport.NewDateHandler(dateService, logger),
		Agendas:  httptransport.NewAgendaHandler(agendaService, logger),
		Respond:  httptransport.NewRespondHandler(speakerService, dateService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httptransport.PublicPath(r.URL.Path) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("coordinator API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

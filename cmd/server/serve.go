package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"

	"concierge/internal/chat"
	"concierge/internal/config"
	"concierge/internal/content"
	"concierge/internal/db"
	"concierge/internal/email"
	"concierge/internal/handlers"
	"concierge/internal/handlers/api"
	"concierge/internal/jobs"
	"concierge/internal/llm"
	"concierge/internal/logging"
	"concierge/internal/metrics"
	"concierge/internal/ratelimit"
	"concierge/internal/server"
	"concierge/internal/worker"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Env)

	site, err := config.LoadSite(cfg.SiteConfig)
	if err != nil {
		return err
	}

	corpus, err := loadCorpus(cfg)
	if err != nil {
		return err
	}
	slog.Info("content loaded", "topics", len(corpus.Topics()))

	pool, err := worker.New("background", worker.DefaultConfig())
	if err != nil {
		return err
	}

	probes := map[string]handlers.Pinger{}
	var (
		database *db.DB
		events   metrics.EventWriter
		outcomes metrics.OutcomeSource
		contacts api.ContactStore
	)
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("migrations completed successfully")

		events, outcomes, contacts = database, database, database
		probes["database"] = database
	} else {
		slog.Warn("DATABASE_URL not set, chat analytics and contact storage disabled")
	}

	metrics.Init(outcomes)
	if err := metrics.RegisterPool("background", pool); err != nil {
		slog.Warn("failed to register pool metrics", "error", err)
	}

	var (
		limiterStore ratelimit.Store = ratelimit.NewMemoryStore()
		storage      fiber.Storage
	)
	if cfg.RedisURL != "" {
		rs := ratelimit.NewRedisStorage(cfg.RedisURL)
		defer rs.Close()
		limiterStore = ratelimit.NewStorageStore(rs, "ratelimit:")
		storage = rs
		probes["redis"] = ratelimit.RedisHealth{Storage: rs}
		slog.Info("rate limits stored in redis")
	}

	var completer llm.Completer
	if cfg.IsLLMEnabled() {
		client, err := llm.NewAnthropicClient(llm.Config{
			APIKey:      cfg.AnthropicAPIKey,
			BaseURL:     cfg.AnthropicBaseURL,
			Model:       cfg.AnthropicModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
			WebSearches: cfg.LLMWebSearches,
		})
		if err != nil {
			return err
		}
		completer = client
		slog.Info("llm enabled", "model", client.Model())
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set, only canned answers are available")
	}

	gateway := chat.NewGateway(
		ratelimit.New("chat", cfg.ChatRateLimit, cfg.RateLimitWindow, limiterStore),
		corpus,
		site.CallToAction,
		completer,
		chat.Prompts{Chat: site.ChatPrompt, Research: site.ResearchPrompt},
		chat.WithRecorder(metrics.NewRecorder(events, pool)),
		chat.WithPreferCanned(cfg.PreferCannedContent || completer == nil),
		chat.WithResearchLimiter(ratelimit.New("research", cfg.ResearchRateLimit, cfg.RateLimitWindow, limiterStore)),
	)

	notifier := email.NewNotifier(cfg, site, email.NewService(cfg), pool)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if database != nil && len(cfg.ReportRecipients) > 0 {
		go jobs.NewDailyReporter(database, notifier, cfg.ReportRecipients, cfg.ReportInterval).Start(ctx)
	}

	srv := server.New(cfg, storage)
	srv.RegisterRoutes(server.Deps{
		Site:     site,
		Corpus:   corpus,
		Gateway:  gateway,
		Notifier: notifier,
		Contacts: contacts,
		Probes:   probes,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := pool.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("background pool: %w", err))
	}
	slog.Info("server exited")
	return errors.Join(errs...)
}

// loadCorpus reads CONTENT_DIR when set, otherwise the embedded corpus.
func loadCorpus(cfg *config.Config) (*content.Corpus, error) {
	if cfg.ContentDir != "" {
		return content.Load(os.DirFS(cfg.ContentDir))
	}
	return content.Embedded()
}

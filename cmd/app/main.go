package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"commit-reflections/internal/config"
	"commit-reflections/internal/domain/ports/adapter"
	aiAdapters "commit-reflections/internal/infra/adapters/ai"
	emailAdapters "commit-reflections/internal/infra/adapters/email"
	"commit-reflections/internal/infra/adapters/github"
	imageAdapters "commit-reflections/internal/infra/adapters/image"
	"commit-reflections/internal/infra/api"
	pg "commit-reflections/internal/infra/db/postgres"
	"commit-reflections/internal/infra/logging"
	"commit-reflections/internal/infra/metrics"
	red "commit-reflections/internal/infra/redis"
	"commit-reflections/internal/infra/sched"
	"commit-reflections/internal/infra/security"
	"commit-reflections/internal/infra/worker"
	"commit-reflections/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers where keys are missing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go samplePoolStats(ctx, pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	var enc *security.EncryptionService
	if cfg.Security.EncryptionKey != "" {
		enc, err = security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption service")
		}
	} else {
		logger.Warn().Msg("security.encryption_key not set; access tokens stored in the clear")
	}

	tm := pg.NewTxManager(pool)
	repoRepo := pg.NewTrackedRepoRepo(pool, enc)
	jobRepo := pg.NewReflectionJobRepo(pool, tm)
	reflRepo := pg.NewReflectionRepo(pool)
	pushRepo := red.NewPushSignalRepo(redisClient)

	// ---- Adapters ----
	commitSource := github.NewAdapter(cfg.GitHub.BaseURL)

	var generator adapter.ContentGeneratorAdapter
	if cfg.AI.OpenAIKey != "" {
		generator, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model, cfg.AI.MaxPromptTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("content generator: OpenAI")
	} else {
		generator = aiAdapters.NewNoopGenerator()
		logger.Warn().Msg("content generator: noop (no ai.openai_key)")
	}

	var images adapter.ImageGeneratorAdapter
	if cfg.Image.GeminiKey != "" {
		images, err = imageAdapters.NewGeminiImageAdapter(ctx, cfg.Image.GeminiKey, cfg.Image.Model, cfg.Image.Dir, cfg.Image.BaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini image adapter")
		}
		logger.Info().Str("model", cfg.Image.Model).Msg("illustrations: Imagen")
	} else {
		images = imageAdapters.NewNoopImageAdapter()
		logger.Info().Msg("illustrations: disabled (no image.gemini_key)")
	}

	var notifier adapter.NotifierAdapter
	if cfg.Email.ResendKey != "" {
		notifier, err = emailAdapters.NewResendAdapter(cfg.Email.ResendKey, cfg.Email.From, cfg.Email.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("resend adapter")
		}
		logger.Info().Str("from", cfg.Email.From).Msg("email: Resend")
	} else {
		notifier = emailAdapters.NewNoopNotifier(logger)
		logger.Warn().Msg("email: noop (no email.resend_key)")
	}

	// ---- Detail fan-out pool ----
	pool2 := worker.NewPool(cfg.GitHub.DetailWorkers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	details := worker.NewDetailFetcher(commitSource, pool2, logger)

	// ---- Use cases ----
	pipeline := usecase.NewPipelineUseCase(reflRepo, pushRepo, commitSource, details, generator, images, notifier, logger)
	schedUC := usecase.NewSchedulerUseCase(repoRepo, jobRepo, reflRepo, pushRepo, logger)
	workUC := usecase.NewWorkerUseCase(jobRepo, repoRepo, pipeline, cfg.Cron.WorkerBudget, logger)

	// ---- HTTP server ----
	auth := api.NewAuthManager(cfg.Admin.SessionSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := api.NewServer(schedUC, workUC, jobRepo, repoRepo, pushRepo, auth,
		cfg.Cron.Secret, cfg.Webhook.Secret, cfg.Admin.APIKey, cfg.Image.Dir, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(logger),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- In-process tickers (optional; most deployments use external cron) ----
	if cfg.Cron.RunTickers {
		schedRunner := sched.NewSchedulerRunner(cfg.Cron.SchedulerInterval, schedUC, logger)
		workRunner := sched.NewWorkerRunner(cfg.Cron.WorkerInterval, workUC, logger)
		go func() { _ = schedRunner.Run(ctx) }()
		go func() { _ = workRunner.Run(ctx) }()
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}

// samplePoolStats keeps the db pool gauges fresh.
func samplePoolStats(ctx context.Context, pool *pgxpool.Pool) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}

// Package main is the one-shot CLI entry point of the Paraplan report hub.
//
// It runs a single report kind end to end: log in to the CRM, classify,
// write the workbook and deliver it to the configured Telegram chats.
//
// Usage:
//
//	reportbot <kind>
//
// where <kind> is one of: current-month, current-week, next-month,
// trial-conversion, teacher-stats.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/paraplan-hub/paraplan-report-hub/config"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/subscription"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/external/paraplan"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/external/telegram"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/persistence/postgres"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/persistence/redis"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/report"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/scheduler/jobs"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
)

// runner is the common surface of the report jobs.
type runner interface {
	Name() string
	Run(ctx context.Context) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) != 2 {
		usage()
		os.Exit(2)
	}

	if err := run(ctx, os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: reportbot <kind>")
	fmt.Fprintln(os.Stderr, "kinds:")
	fmt.Fprintln(os.Stderr, "  current-month     non-renewed subscriptions of the previous month")
	fmt.Fprintln(os.Stderr, "  current-week      renewed/non-renewed split for the current week")
	fmt.Fprintln(os.Stderr, "  next-month        subscriptions ending in the upcoming month")
	fmt.Fprintln(os.Stderr, "  trial-conversion  trial visits of the current month and conversions")
	fmt.Fprintln(os.Stderr, "  teacher-stats     per-teacher attendance counters for the current month")
}

func run(ctx context.Context, kind string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting paraplan report hub",
		"kind", kind,
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PARAPLAN CRM CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	client, err := buildParaplanClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build paraplan client: %w", err)
	}

	log.Info("logging in to paraplan...")
	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("paraplan login failed: %w", err)
	}
	log.Info("paraplan session established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. OPTIONAL REDIS CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var source classifier.DataSource = client
	if !cfg.Redis.Disabled {
		cache, err := buildRedisCache(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer cache.Close()
			source = redis.NewCachingDataSource(client, cache, log)
			log.Info("redis subscription cache enabled")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CLASSIFIER, WRITER, DELIVERY
	// ─────────────────────────────────────────────────────────────────────────
	cls := classifier.New(source, classifierConfig(cfg, log))
	writer := report.NewExcelWriter(cfg.Report.OutputDir, log)
	deliverer := buildDeliverer(cfg, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. OPTIONAL RUN JOURNAL
	// ─────────────────────────────────────────────────────────────────────────
	var recorder jobs.RunRecorder
	if cfg.Database.URL != "" {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			log.Warn("database unavailable, run journal disabled", "error", err)
		} else {
			defer conn.Close()
			repo := postgres.NewRunLogRepository(conn)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Warn("run journal schema check failed, journal disabled", "error", err)
			} else {
				recorder = repo
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. RUN THE REQUESTED REPORT
	// ─────────────────────────────────────────────────────────────────────────
	deps := jobs.Deps{
		Classifier: cls,
		Writer:     writer,
		Delivery:   deliverer,
		Recorder:   recorder,
		Timeout:    cfg.Scheduler.JobTimeout,
		Logger:     log,
	}

	job, err := jobForKind(kind, deps)
	if err != nil {
		usage()
		return err
	}
	return job.Run(ctx)
}

// jobForKind maps a CLI report kind to its job.
func jobForKind(kind string, deps jobs.Deps) (runner, error) {
	switch kind {
	case "current-month":
		return jobs.NewMonthlyRenewalJob(deps), nil
	case "current-week":
		return jobs.NewWeeklyRenewalJob(deps), nil
	case "next-month":
		return jobs.NewEndingSoonJob(deps), nil
	case "trial-conversion":
		return jobs.NewTrialConversionJob(deps), nil
	case "teacher-stats":
		return jobs.NewTeacherStatsJob(deps), nil
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSEMBLY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func buildParaplanClient(cfg *config.Config, log *slog.Logger) (*paraplan.Client, error) {
	pcfg := paraplan.DefaultClientConfig(cfg.Paraplan.Username, cfg.Paraplan.Password)
	pcfg.BaseURL = cfg.Paraplan.BaseURL
	pcfg.Timeout = cfg.Paraplan.RequestTimeout
	pcfg.MaxRetries = cfg.Paraplan.MaxRetries
	pcfg.RateLimiterConfig.RequestsPerSecond = cfg.Paraplan.RateLimit
	pcfg.RateLimiterConfig.BurstSize = cfg.Paraplan.RateLimitBurst
	pcfg.CircuitBreakerConfig.FailureThreshold = cfg.Paraplan.CircuitBreakerThreshold
	pcfg.CircuitBreakerConfig.OpenTimeout = cfg.Paraplan.CircuitBreakerTimeout
	pcfg.Logger = log
	pcfg.Debug = cfg.App.Debug
	return paraplan.NewClient(pcfg)
}

func buildRedisCache(ctx context.Context, cfg *config.Config) (*redis.Cache, error) {
	rcfg := redis.DefaultConfig()
	rcfg.Host = cfg.Redis.Host
	rcfg.Port = cfg.Redis.Port
	rcfg.Password = cfg.Redis.Password
	rcfg.DB = cfg.Redis.DB
	rcfg.PoolSize = cfg.Redis.PoolSize
	rcfg.DialTimeout = cfg.Redis.DialTimeout
	rcfg.ReadTimeout = cfg.Redis.ReadTimeout
	rcfg.WriteTimeout = cfg.Redis.WriteTimeout

	cache, err := redis.NewCache(ctx, rcfg)
	if err != nil {
		return nil, err
	}
	return cache.WithTTL(cfg.Redis.CacheTTL), nil
}

func buildDeliverer(cfg *config.Config, log *slog.Logger) *telegram.Deliverer {
	tcfg := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tcfg.Timeout = cfg.Telegram.RequestTimeout
	tcfg.RetryAttempts = cfg.Telegram.RetryAttempts
	tcfg.RetryDelay = cfg.Telegram.RetryDelay
	tcfg.Logger = log
	tcfg.Debug = cfg.App.Debug

	deliverer := telegram.NewDeliverer(telegram.NewClient(tcfg), cfg.Telegram.ChatIDs, log)
	deliverer.RemoveAfterSend = cfg.Telegram.RemoveAfterSend
	return deliverer
}

func classifierConfig(cfg *config.Config, log *slog.Logger) classifier.Config {
	boundary := subscription.BoundaryExclusive
	if cfg.Report.BoundaryInclusive {
		boundary = subscription.BoundaryInclusive
	}

	mode := classifier.PerSubscription
	if cfg.Report.EndingSoonMode == "per-student-sum" {
		mode = classifier.PerStudentSum
	}

	return classifier.Config{
		Boundary:         boundary,
		EndingSoon:       mode,
		CardLinkTemplate: cfg.Report.CardLinkTemplate,
		Logger:           log,
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

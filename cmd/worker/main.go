// Package main is the scheduler daemon of the Paraplan report hub.
//
// The worker keeps a CRM session alive and runs the five report jobs on
// their cron schedules: monthly and weekly renewal, ending-soon, trial
// conversion and teacher statistics. Finished workbooks are delivered to
// the configured Telegram chats.
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
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/scheduler"
	"github.com/paraplan-hub/paraplan-report-hub/internal/infrastructure/scheduler/jobs"
	"github.com/paraplan-hub/paraplan-report-hub/internal/service/classifier"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
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
	log.Info("starting paraplan report hub worker",
		"env", string(cfg.App.Environment),
		"timezone", cfg.App.Timezone,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to do (set SCHEDULER_ENABLED=true)")
	}

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
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			log.Warn("database unavailable, run journal disabled", "error", err)
		} else {
			defer func() {
				log.Info("closing database connection...")
				conn.Close()
			}()
			repo := postgres.NewRunLogRepository(conn)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Warn("run journal schema check failed, journal disabled", "error", err)
			} else {
				recorder = repo
				log.Info("run journal enabled")
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	deps := jobs.Deps{
		Classifier: cls,
		Writer:     writer,
		Delivery:   deliverer,
		Recorder:   recorder,
		Timeout:    cfg.Scheduler.JobTimeout,
		Logger:     log,
	}

	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	if err := registerJobs(sched, cfg, deps); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	for _, info := range sched.ListJobs() {
		log.Info("job scheduled",
			"job", info.Name,
			"schedule", info.Schedule,
			"next_run", info.NextRun,
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("paraplan report hub worker is running")
	<-ctx.Done()

	log.Info("received shutdown signal, stopping scheduler...",
		"timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// registerJobs binds each report job to its configured cron schedule.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, deps jobs.Deps) error {
	bindings := []struct {
		job  scheduler.Job
		cron string
	}{
		{jobs.NewMonthlyRenewalJob(deps), cfg.Scheduler.MonthlyRenewalCron},
		{jobs.NewWeeklyRenewalJob(deps), cfg.Scheduler.WeeklyRenewalCron},
		{jobs.NewEndingSoonJob(deps), cfg.Scheduler.EndingSoonCron},
		{jobs.NewTrialConversionJob(deps), cfg.Scheduler.TrialConversionCron},
		{jobs.NewTeacherStatsJob(deps), cfg.Scheduler.TeacherStatsCron},
	}

	for _, b := range bindings {
		schedule, err := scheduler.ParseCronExpression(b.cron)
		if err != nil {
			return fmt.Errorf("job %s: bad cron expression %q: %w", b.job.Name(), b.cron, err)
		}
		if err := sched.Register(b.job, schedule); err != nil {
			return fmt.Errorf("job %s: %w", b.job.Name(), err)
		}
	}
	return nil
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

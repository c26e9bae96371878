package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/alert"
	"github.com/jobsentinel/jobsentinel/internal/db"
	"github.com/jobsentinel/jobsentinel/internal/logger"
	"github.com/jobsentinel/jobsentinel/internal/notify"
	"github.com/jobsentinel/jobsentinel/internal/scheduler"
)

const defaultAdminAddr = ":8085"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the alert scheduler daemon",
	Run: func(cmd *cobra.Command, _ []string) {
		watch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("run-once", false, "execute a single tick and exit instead of running the daemon")
}

// watch wires the storage, matching and notification pieces together and
// keeps the scheduler running until the process is signaled to stop.
func watch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the jobsentinel watcher", zap.String("version", version))

	databaseURL, err := resolveDatabaseURL(config)
	if err != nil {
		logger.Fatal(
			"loading database url",
			zap.Error(err),
			zap.String("hint", "set DATABASE_URL_FILE environment variable or the 'database' section in the configuration file"),
		)
	}

	pool, err := db.NewPostgresPool(ctx, databaseURL)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	source, cleanup, err := buildJobSource(ctx, config, pool, logger)
	if err != nil {
		logger.Fatal("building job source", zap.Error(err))
	}
	defer cleanup()

	seen := buildSeenStore(ctx, config, logger)

	store := alert.NewPostgresStore(pool)
	ranker := buildRanker(config, logger)
	dispatcher := notify.NewDispatcher(notify.NewLogSender(logger), logger)

	sched := scheduler.New(
		schedulerConfig(config),
		store,
		source,
		ranker,
		dispatcher,
		seen,
		logger,
	)

	if cmd.Flag("run-once").Value.String() == "true" {
		if err := sched.ExecuteNow(ctx); err != nil {
			logger.Fatal("tick failed", zap.Error(err))
		}
		return
	}

	if err := sched.Start(); err != nil {
		logger.Fatal("starting the scheduler", zap.Error(err))
	}

	admin := scheduler.NewAdminServer(adminAddr(config), sched, logger)

	adminErr := make(chan error, 1)
	go func() {
		adminErr <- admin.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-adminErr:
		if err != nil {
			logger.Error("admin server failed", zap.Error(err))
		}
	}

	if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotRunning) {
		logger.Warn("stopping the scheduler", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutting down the admin server", zap.Error(err))
	}

	logger.Info("watcher stopped")
}

// buildSeenStore is best effort: without redis the watcher still works, it
// just may notify about the same posting twice.
func buildSeenStore(ctx context.Context, config *Config, logger *zap.Logger) notify.SeenStore {
	if config.Redis == nil || config.Redis.URL == "" {
		logger.Warn("redis is not configured, duplicate notification suppression is disabled")
		return nil
	}

	rdb, err := db.NewRedisClient(ctx, config.Redis.URL)
	if err != nil {
		logger.Warn("connecting to redis failed, duplicate notification suppression is disabled", zap.Error(err))
		return nil
	}

	var ttl time.Duration
	if config.Notifications != nil && config.Notifications.SeenTTLDays > 0 {
		ttl = time.Duration(config.Notifications.SeenTTLDays) * 24 * time.Hour
	}

	return notify.NewRedisSeenStore(rdb, ttl)
}

func schedulerConfig(config *Config) scheduler.Config {
	cfg := scheduler.Config{
		Ranking: rankingOptions(config),
	}

	if config.Scheduler != nil {
		cfg.CronSpec = config.Scheduler.CronSpec
		cfg.BatchLimit = config.Scheduler.BatchLimit
	}

	return cfg
}

func adminAddr(config *Config) string {
	if config.Scheduler != nil && config.Scheduler.AdminAddr != "" {
		return config.Scheduler.AdminAddr
	}
	return defaultAdminAddr
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mediabot/internal/catalog"
	"mediabot/internal/channel"
	"mediabot/internal/config"
	"mediabot/internal/delivery"
	"mediabot/internal/filters"
	"mediabot/internal/metrics"
	"mediabot/internal/search"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "mediabot",
		Short: "MediaBot: Telegram media search and delivery bot",
		Long:  "MediaBot indexes media from Telegram channels into MongoDB and serves stateless, filterable search with expiring delivery.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.mediabot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(config.DefaultConfigDir(), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set MEDIABOT_TOKEN (or edit the file) before running 'mediabot serve'")
			return nil
		},
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = buildLogger(cfg.General)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	cat, err := filters.Load(cfg.Search.FilterCatalog, logger)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	executor := search.NewExecutor(store, store, search.NewComposer(cat), clock, search.ExecutorConfig{
		PageSize:        cfg.Search.PageSize,
		FuzzyThreshold:  cfg.Search.FuzzyThreshold,
		FuzzyCandidates: cfg.Search.FuzzyCandidates,
		CacheTTL:        cfg.Search.CacheTTL(),
	}, logger)

	records := catalog.NewRecordCache(store, 2048, cfg.Search.CacheTTL())

	bot, err := channel.New(channel.Config{
		Telegram: cfg.Telegram,
		Delivery: cfg.Delivery,
		Executor: executor,
		Store:    store,
		Records:  records,
		Filters:  cat,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	sched := delivery.NewScheduler(clock, bot, delivery.Config{
		NoticeText:  "The delivered files expired and were removed.",
		NoticeDelay: cfg.Delivery.NoticeTTL(),
	}, logger)
	bot.AttachScheduler(sched)

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Endpoint, logger); err != nil {
				logger.Error("metrics endpoint failed", "err", err)
			}
		}()
	}

	logger.Info("mediabot starting", "version", version)
	return bot.Start(ctx)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false, "err", err)
				return nil
			}
			logger.Info("config", "path", cfgPath, "loaded", true)

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.OpTimeout())
			defer cancel()
			store, err := catalog.Connect(ctx, cfg.Database, logger)
			if err != nil {
				logger.Info("database", "healthy", false, "err", err)
				return nil
			}
			defer store.Close()
			logger.Info("database", "name", cfg.Database.Name, "healthy", true)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(resolveConfigPath())
			return nil
		},
	})
	return cmd
}

func buildLogger(general config.GeneralConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(general.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	out := os.Stderr
	if general.LogFile != "" {
		if f, err := os.OpenFile(general.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

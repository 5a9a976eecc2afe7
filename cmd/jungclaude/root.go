package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Harshitk-cp/jungclaude/internal/api"
	"github.com/Harshitk-cp/jungclaude/internal/buildconfig"
	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/llm"
	"github.com/Harshitk-cp/jungclaude/internal/notify"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

var (
	verbose bool
	envFile string
	logger  = zap.NewNop()
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jungclaude",
		Short:         "Rumination and identity consolidation for the Jung agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				_ = os.Setenv("JUNG_ENV", envFile)
			}
			if err := config.Load(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default .env)")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(ruminateCmd())
	cmd.AddCommand(consolidateCmd())
	cmd.AddCommand(bridgeCmd())
	cmd.AddCommand(dreamCmd())
	cmd.AddCommand(scholarCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(config.LogLevel())
	if err != nil {
		level = zapcore.InfoLevel
	}
	if debug {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// openApp opens the database and wires every service. The caller closes the
// returned database after stopping the app.
func openApp(ctx context.Context) (*api.App, *sql.DB, error) {
	rumination, err := config.LoadRumination(config.RuminationConfigPath())
	if err != nil {
		return nil, nil, err
	}
	if _, ok := os.LookupEnv("ADMIN_USER_ID"); ok {
		rumination.AdminUserID = config.AdminUserID()
	}

	path := config.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database opened", zap.String("path", path))

	provider := config.LLMProvider()
	opts := api.Options{
		Rumination:         rumination,
		AdminAPIKey:        config.AdminAPIKey(),
		RuminationSchedule: config.RuminationSchedule(),
		IdentitySchedule:   config.BridgeSchedule(),
		ShareDreamImages:   config.DreamShareImages(),
		RateLimitRPS:       config.RateLimitRPS(),
		RateLimitBurst:     config.RateLimitBurst(),
	}

	opts.LLM, err = llm.NewClient(llm.Options{
		Provider: provider,
		APIKey:   config.LLMAPIKey(),
		Model:    config.LLMModel(),
		BaseURL:  config.OpenRouterBaseURL(),
		Retry:    llm.DefaultRetryConfig(),
	}, logger)
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", provider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", provider))
	}

	opts.Notifier, err = notify.New(config.TelegramBotToken(), config.AdminChatID(), logger.Named("notify"))
	if err != nil {
		logger.Warn("telegram initialization failed", zap.Error(err))
		opts.Notifier = nil
	}

	app, err := api.NewApp(db, opts, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return app, db, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(buildconfig.VersionInfo())
		},
	}
}

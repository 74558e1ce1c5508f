package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockfwd/mockfwd/pkg/config"
	"github.com/mockfwd/mockfwd/pkg/engine"
	"github.com/mockfwd/mockfwd/pkg/logging"
	"github.com/mockfwd/mockfwd/pkg/proxy"
	"github.com/mockfwd/mockfwd/pkg/registry"
	"github.com/mockfwd/mockfwd/pkg/settings"
)

// shutdownTimeout bounds the graceful drain after SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to the mockfwd config file")
	cmd.Flags().String("listen", "", "listen address (overrides config)")
	cmd.Flags().String("settings", "", "path to the settings file (overrides config)")
	cmd.Flags().String("static-dir", "", "directory served under /static/ (overrides config)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "", "log format: text, json")
	cmd.Flags().String("log-file", "", "log to a rotating file instead of stderr")
}

// loadConfig merges the config file with flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.Listen = v
	}
	if v, _ := cmd.Flags().GetString("settings"); v != "" {
		cfg.SettingsPath = v
	}
	if v, _ := cmd.Flags().GetString("static-dir"); v != "" {
		cfg.StaticDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}
	return cfg, nil
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Format: logging.ParseFormat(cfg.Format),
		File: logging.FileConfig{
			Path:       cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
		},
	})
}

// buildRegistry loads the settings file plus any glob-configured rule
// files and publishes the initial snapshot.
func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	sets, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	if len(cfg.RuleGlobs) > 0 {
		extra, err := settings.LoadGlobs(filepath.Dir(cfg.SettingsPath), cfg.RuleGlobs)
		if err != nil {
			return nil, err
		}
		sets.Endpoints = append(sets.Endpoints, extra...)
	}

	return registry.New(sets, settings.NewFileStore(cfg.SettingsPath))
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg.Log)

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	fwd, err := proxy.New(reg.DefaultEndpoint(), proxy.WithLogger(logger))
	if err != nil {
		return err
	}

	srv := engine.NewServer(cfg, reg, fwd, engine.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting mockfwd",
		"listen", cfg.Listen,
		"settings", cfg.SettingsPath,
		"backend", reg.DefaultEndpoint(),
		"rules", len(reg.Current().Rules()),
	)
	return srv.Start()
}

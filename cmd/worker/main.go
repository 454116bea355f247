package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRunner(cfg, logger, os.Stdout)

	app := &cli.Command{
		Name:     "lyrics-worker",
		Usage:    "Resolve playlist tracks to lyrics and store them for the quiz",
		Commands: r.register(),
		Action:   r.Run,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatal("lyrics worker failed", "err", err)
	}
}

func newLogger(cfg config.LogConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "lyrics-worker",
	})

	if level, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	} else if cfg.Level != "" {
		logger.Warn("unknown log level, using info", "level", cfg.Level)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

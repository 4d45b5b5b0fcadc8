// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: admin [-config FILE] COMMAND [flags]")
		printUsage(os.Stderr)
	}
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		slog.Error("admin command failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	backend, err := docstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close() //nolint:errcheck // process exits next

	if backend.Driver == config.StoreMemory {
		logger.Warn("memory store selected, changes are discarded on exit")
	}

	cli := newCommandLine(backend.Store, cfg, os.Stdout, logger)
	return cli.run(ctx, args)
}

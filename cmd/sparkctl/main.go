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

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/spark-client/pkg/config"
	"github.com/Proton-105/spark-client/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		return 2
	}

	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	if cfg.Sentry.Enabled() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "init sentry: %v\n", err)
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}
	cfg.Log.Sentry = cfg.Log.Sentry && cfg.Sentry.Enabled()

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	a, err := newApp(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Error("failed to start", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.close(closeCtx)
	}()

	ctx = logger.WithCorrelationID(ctx, "")
	if err := a.dispatch(ctx, os.Args[1], os.Args[2:]); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Error())
			printUsage(os.Stderr)
			return 2
		}

		message, _ := a.errs.Handle(ctx, err)
		fmt.Fprintln(os.Stderr, message)
		return 1
	}

	return 0
}

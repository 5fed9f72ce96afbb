package middleware

import (
	"context"
	"time"

	"github.com/Proton-105/spark-client/pkg/metrics"
)

// Command is a CLI command body.
type Command func(ctx context.Context, args []string) error

// Metrics measures execution time and status for a command, reporting them to Prometheus.
func Metrics(name string, next Command) Command {
	if next == nil {
		return nil
	}

	return func(ctx context.Context, args []string) error {
		start := time.Now()
		err := next(ctx, args)

		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordCommand(name, status, time.Since(start))

		return err
	}
}

package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparkctl_commands_total",
			Help: "Total number of CLI commands run labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparkctl_command_duration_seconds",
			Help:    "Duration of CLI commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	unreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unread_notifications",
			Help: "Unread notifications of the signed-in user at the last poll",
		},
	)
	lastPollSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_poll_success_timestamp_seconds",
			Help: "Unix time of the last successful notification poll",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	commandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// UnreadSource reports the current number of unread notifications.
type UnreadSource func(ctx context.Context) (int, error)

// NotificationCollector polls the unread count and exposes it as a gauge.
type NotificationCollector struct {
	source   UnreadSource
	log      *slog.Logger
	interval time.Duration
	onChange func(previous, current int)
}

// NewNotificationCollector builds a collector polling source every interval.
// onChange, when set, is called whenever the count differs from the last poll.
func NewNotificationCollector(source UnreadSource, log *slog.Logger, interval time.Duration, onChange func(previous, current int)) *NotificationCollector {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &NotificationCollector{
		source:   source,
		log:      log,
		interval: interval,
		onChange: onChange,
	}
}

// Run polls until ctx is cancelled.
func (c *NotificationCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	previous := -1
	for {
		if current, err := c.collect(ctx); err != nil {
			if ctx.Err() == nil {
				c.log.Warn("notification poll failed", slog.Any("error", err))
			}
		} else {
			if current != previous && c.onChange != nil {
				c.onChange(previous, current)
			}
			previous = current
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *NotificationCollector) collect(ctx context.Context) (int, error) {
	count, err := c.source(ctx)
	if err != nil {
		return 0, err
	}

	unreadNotifications.Set(float64(count))
	lastPollSuccess.SetToCurrentTime()
	return count, nil
}

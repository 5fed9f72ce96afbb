package errors

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/spark-client/internal/i18n"
	"github.com/Proton-105/spark-client/pkg/logger"
	"github.com/Proton-105/spark-client/pkg/metrics"
)

const defaultUserMessage = "Something went wrong. Please try again later."

type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	translator    i18n.Translator
}

func NewHandler(log *slog.Logger, sentryEnabled bool, translator i18n.Translator) *Handler {
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
		translator:    translator,
	}
}

// Handle logs err and returns the message to show the user plus whether
// retrying the action makes sense.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	appErr := Classify(err)

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	if appErr.Code == CodeUnknown {
		log.Error("unknown error", attrsToArgs(attrs)...)
	} else {
		log.Error("client error", attrsToArgs(attrs)...)
	}

	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(appErr)
	}

	return h.userMessage(appErr.Code), appErr.Retryable
}

func (h *Handler) userMessage(code string) string {
	if h.translator == nil {
		return defaultUserMessage
	}

	key := "errors." + code
	if msg := h.translator.T(key); msg != "" && msg != key {
		return msg
	}

	return defaultUserMessage
}

func (h *Handler) sendToSentry(appErr *AppError) {
	if appErr == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr.Code != "" {
			scope.SetTag("code", appErr.Code)
		}

		if appErr.Severity != "" {
			scope.SetTag("severity", string(appErr.Severity))
		}

		cause := appErr.Unwrap()
		if cause == nil {
			cause = appErr
		}
		sentry.CaptureException(cause)
	})
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	return args
}

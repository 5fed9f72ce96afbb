package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

const defaultDecisionPollInterval = 5 * time.Second

type VeriffAPI struct {
	client        *Client
	submitWebhook *Mutation[domain.VeriffWebhook, domain.VeriffWebhookAck]
	decision      *Query[string, domain.VeriffDecision]
}

func InjectVeriffEndpoints(c *Client) *VeriffAPI {
	return &VeriffAPI{
		client: c,
		submitWebhook: RegisterMutation(c, Mutation[domain.VeriffWebhook, domain.VeriffWebhookAck]{
			Name:   "veriffWebhook",
			Method: http.MethodPost,
			Path:   func(domain.VeriffWebhook) string { return "/users/veriff/webhook" },
			InvalidatesTags: func(_ domain.VeriffWebhookAck, hook domain.VeriffWebhook) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagVeriff, hook.SessionID), cache.TypeTag(TagOnboarding)}
			},
		}),
		decision: RegisterQuery(c, Query[string, domain.VeriffDecision]{
			Name: "veriffDecision",
			Path: func(sessionID string) string {
				return "/users/veriff/sessions/" + url.PathEscape(sessionID) + "/decision"
			},
			ProvidesTags: func(_ domain.VeriffDecision, sessionID string) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagVeriff, sessionID)}
			},
		}),
	}
}

func (v *VeriffAPI) SubmitWebhook(ctx context.Context, hook domain.VeriffWebhook) (domain.VeriffWebhookAck, error) {
	return v.submitWebhook.Do(ctx, v.client, hook)
}

func (v *VeriffAPI) Decision(ctx context.Context, sessionID string) (domain.VeriffDecision, error) {
	if err := requireID("session_id", sessionID); err != nil {
		return domain.VeriffDecision{}, err
	}
	return v.decision.Get(ctx, v.client, sessionID)
}

// WaitForDecision polls the decision until it reaches a terminal status or
// ctx ends. Retryable errors are logged and polling continues.
func (v *VeriffAPI) WaitForDecision(ctx context.Context, sessionID string, interval time.Duration) (domain.VeriffDecision, error) {
	if err := requireID("session_id", sessionID); err != nil {
		return domain.VeriffDecision{}, err
	}
	if interval <= 0 {
		interval = defaultDecisionPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fetch := v.decision.Get
	for {
		decision, err := fetch(ctx, v.client, sessionID)
		switch {
		case err == nil && decision.Status.Terminal():
			return decision, nil
		case err != nil && !apperrors.IsRetryable(err):
			return domain.VeriffDecision{}, err
		case err != nil:
			v.client.log.Warn("veriff decision poll failed", slog.String("session_id", sessionID), slog.Any("error", err))
		}
		fetch = v.decision.Refetch

		select {
		case <-ctx.Done():
			return decision, ctx.Err()
		case <-ticker.C:
		}
	}
}

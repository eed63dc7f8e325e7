// Package push triggers the device-subscription reconciler once per
// resolved login.
//
// The trigger is strictly best-effort: the session engine never waits on it
// and ignores its failures. Deliberately there is no deactivation call —
// push registrations stay live across logout so notifications keep working
// for a logged-out device.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"opsdash/internal/platform/config"
	id "opsdash/pkg/domain"
)

// Trigger is invoked with the resolved user once per genuine login.
type Trigger interface {
	EnsureSubscribed(ctx context.Context, userID id.UserID, email string) error
}

// Webhook POSTs to the subscription reconciler service.
type Webhook struct {
	url  string
	http *http.Client
}

// NewWebhook builds the webhook trigger from configuration.
func NewWebhook(cfg config.Push) *Webhook {
	return &Webhook{
		url:  cfg.WebhookURL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (w *Webhook) EnsureSubscribed(ctx context.Context, userID id.UserID, email string) error {
	payload, err := json.Marshal(map[string]string{
		"user_id": userID.String(),
		"email":   email,
	})
	if err != nil {
		return fmt.Errorf("marshal push trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("push trigger: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push trigger: status %d", resp.StatusCode)
	}
	return nil
}

// Noop is the trigger used when no reconciler is configured.
type Noop struct{}

func (Noop) EnsureSubscribed(ctx context.Context, userID id.UserID, email string) error {
	return nil
}

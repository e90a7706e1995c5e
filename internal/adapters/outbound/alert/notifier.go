package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"orderpipe/internal/core/alarm"
)

// WebhookNotifier delivers alerts as a JSON POST to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, a alarm.Alert) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post alert: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier is the fallback when no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, a alarm.Alert) error {
	log.Printf("[alert] %s state=%s depth=%d threshold=%d window=%s", a.Name, a.State, a.Depth, a.Threshold, a.Window)
	return nil
}

var (
	_ alarm.Notifier = (*WebhookNotifier)(nil)
	_ alarm.Notifier = LogNotifier{}
)

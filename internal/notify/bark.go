package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trendpub/internal/logging"
)

// DefaultBarkBaseURL is the public Bark push endpoint.
const DefaultBarkBaseURL = "https://api.day.app"

// Bark pushes alerts to an iOS device through the Bark API.
type Bark struct {
	baseURL   string
	deviceKey string
	client    *http.Client
	logger    logging.Logger
}

// NewBark creates a Bark notifier for the given device key. An empty baseURL
// falls back to the public Bark service.
func NewBark(baseURL, deviceKey string, logger logging.Logger) *Bark {
	if baseURL == "" {
		baseURL = DefaultBarkBaseURL
	}
	return &Bark{
		baseURL:   baseURL,
		deviceKey: deviceKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logging.OrNop(logger),
	}
}

// Notify sends a push message with the given title and body.
func (b *Bark) Notify(ctx context.Context, title, body string) error {
	if b.deviceKey == "" {
		return fmt.Errorf("bark device key not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"title":      title,
		"body":       body,
		"device_key": b.deviceKey,
	})
	if err != nil {
		return fmt.Errorf("marshal bark payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build bark request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("bark send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bark send error: status=%d", resp.StatusCode)
	}

	b.logger.Debug("bark notification sent: %s", title)
	return nil
}

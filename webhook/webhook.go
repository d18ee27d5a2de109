// Package webhook delivers run-lifecycle notifications to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/pricepivot/models"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunFaulted   = "run.faulted"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Source    models.Source   `json:"source"`
	Timestamp int64           `json:"timestamp"`
	Stats     models.RunStats `json:"stats"`
}

// NewRunEvent builds the end-of-run event from the run stats. A sampler
// fault makes it a run.faulted event.
func NewRunEvent(category string, source models.Source, stats models.RunStats) *Event {
	eventType := EventRunCompleted
	if stats.SamplerFault != "" {
		eventType = EventRunFaulted
	}
	return &Event{
		Type:      eventType,
		Category:  category,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Stats:     stats,
	}
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Pricepivot-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pricepivot-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Pricepivot-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverWithRetry sends a webhook event with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func DeliverWithRetry(url, secret string, event *Event) {
	delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
	for attempt, delay := range delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, url, secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", url,
		"event", event.Type,
	)
}

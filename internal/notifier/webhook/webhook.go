// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Init(cfg notifier.Config) error {
	if url, ok := cfg.Params["url"].(string); ok {
		w.url = url
	}
	if headers, ok := cfg.Params["headers"].(map[string]string); ok {
		w.headers = headers
	}

	if w.url == "" {
		return core.WrapErrorf(core.ErrConfigMissing, "webhook: url is required")
	}

	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (w *Webhook) Send(alert notifier.Alert) error {
	return w.post(alertToPayload(alert))
}

func (w *Webhook) SendBatch(alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	payloads := make([]map[string]any, len(alerts))
	for i, a := range alerts {
		payloads[i] = alertToPayload(a)
	}

	return w.post(map[string]any{
		"type":   "batch",
		"count":  len(alerts),
		"alerts": payloads,
	})
}

func alertToPayload(alert notifier.Alert) map[string]any {
	return map[string]any{
		"type":    "alert",
		"kind":    alert.Kind,
		"ticker":  alert.Ticker,
		"message": alert.Message,
		"details": alert.Details,
		"at":      alert.At.Format(time.RFC3339),
	}
}

func (w *Webhook) post(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}

	req, err := http.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return core.WrapErrorf(core.ErrNotifierFailed, "webhook server returned %d", resp.StatusCode)
	}

	return nil
}

// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/stockscreen/internal/notifier"
)

// Webhook posts each run summary as JSON
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
	if headers, ok := cfg.Params["headers"].(map[string]any); ok {
		w.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			w.headers[k] = fmt.Sprint(v)
		}
	}

	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}

	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

type instrument struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type payload struct {
	Type      string       `json:"type"`
	RunID     string       `json:"run_id"`
	Strategy  string       `json:"strategy"`
	Kind      string       `json:"kind"`
	Date      string       `json:"date"`
	Evaluated int          `json:"evaluated"`
	Skipped   int          `json:"skipped"`
	Cancelled bool         `json:"cancelled"`
	Count     int          `json:"count"`
	Passed    []instrument `json:"passed"`
}

func (w *Webhook) Notify(ctx context.Context, s notifier.Summary) error {
	p := payload{
		Type:      "screen",
		RunID:     s.RunID,
		Strategy:  s.Strategy,
		Kind:      string(s.Kind),
		Date:      s.Date,
		Evaluated: s.Evaluated,
		Skipped:   s.Skipped,
		Cancelled: s.Cancelled,
		Count:     len(s.Passed),
		Passed:    make([]instrument, len(s.Passed)),
	}
	for i, inst := range s.Passed {
		p.Passed[i] = instrument{Code: inst.Code, Name: inst.Name}
	}
	return w.post(ctx, p)
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}

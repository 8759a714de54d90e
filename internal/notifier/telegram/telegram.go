package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/stockscreen/internal/notifier"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// maxListed caps the codes written into one message.
	maxListed = 50
)

// Telegram sends run summaries through the Telegram Bot API
type Telegram struct {
	apiURL    string
	botToken  string
	chatID    string
	skipEmpty bool
	client    *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		apiURL:   defaultAPIURL,
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if api, ok := cfg.Params["api_url"].(string); ok && api != "" {
		t.apiURL = strings.TrimSuffix(api, "/")
	}
	if skip, ok := cfg.Params["skip_empty"].(bool); ok {
		t.skipEmpty = skip
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	return nil
}

func (t *Telegram) Notify(ctx context.Context, s notifier.Summary) error {
	if t.skipEmpty && len(s.Passed) == 0 {
		return nil
	}
	return t.sendMessage(ctx, formatSummary(s))
}

func formatSummary(s notifier.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 *%s* (%s) %s\n", s.Strategy, s.Kind, s.Date))
	sb.WriteString(fmt.Sprintf("Passed %d of %d", len(s.Passed), s.Evaluated))
	if s.Skipped > 0 {
		sb.WriteString(fmt.Sprintf(", skipped %d", s.Skipped))
	}
	if s.Cancelled {
		sb.WriteString(" ⏹ cancelled")
	}
	sb.WriteString("\n")

	for i, inst := range s.Passed {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(s.Passed)-maxListed))
			break
		}
		if inst.Name != "" {
			sb.WriteString(fmt.Sprintf("`%s` %s\n", inst.Code, inst.Name))
		} else {
			sb.WriteString(fmt.Sprintf("`%s`\n", inst.Code))
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}

package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg := New("token", "chatid")
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestTelegram_Init(t *testing.T) {
	tg := New("", "")

	cfg := notifier.Config{
		Params: map[string]any{
			"bot_token":  "test-token",
			"chat_id":    "test-chat",
			"api_url":    "http://localhost:8080/",
			"skip_empty": true,
		},
	}

	err := tg.Init(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tg.botToken != "test-token" {
		t.Errorf("expected bot_token 'test-token', got '%s'", tg.botToken)
	}
	if tg.chatID != "test-chat" {
		t.Errorf("expected chat_id 'test-chat', got '%s'", tg.chatID)
	}
	if tg.apiURL != "http://localhost:8080" {
		t.Errorf("expected trimmed api_url, got '%s'", tg.apiURL)
	}
	if !tg.skipEmpty {
		t.Error("expected skip_empty")
	}
}

func TestTelegram_Init_Missing(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"missing token", map[string]any{"chat_id": "test-chat"}},
		{"missing chat", map[string]any{"bot_token": "test-token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := &Telegram{}
			if err := tg.Init(notifier.Config{Params: tt.params}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	s := notifier.Summary{
		Strategy:  "ma_bull_stack",
		Kind:      core.PeriodWeekly,
		Date:      "2024-06-28",
		Evaluated: 10,
		Skipped:   1,
		Cancelled: true,
		Passed:    []core.Instrument{{Code: "600519", Name: "Moutai"}, {Code: "000001"}},
	}

	msg := formatSummary(s)
	for _, want := range []string{"*ma_bull_stack* (week) 2024-06-28", "Passed 2 of 10", "skipped 1", "cancelled", "`600519` Moutai", "`000001`"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSummary_Truncates(t *testing.T) {
	s := notifier.Summary{Strategy: "s", Kind: core.PeriodDaily, Date: "2024-06-28"}
	for i := 0; i < maxListed+5; i++ {
		s.Passed = append(s.Passed, core.Instrument{Code: fmt.Sprintf("%06d", i)})
	}

	msg := formatSummary(s)
	if !strings.Contains(msg, "... and 5 more") {
		t.Errorf("expected truncation note:\n%s", msg)
	}
	if strings.Contains(msg, fmt.Sprintf("%06d", maxListed)) {
		t.Error("codes past the cap should not be listed")
	}
}

func TestTelegram_Notify(t *testing.T) {
	var (
		path     string
		received map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg := New("tok", "42")
	tg.apiURL = server.URL

	err := tg.Notify(context.Background(), notifier.Summary{Strategy: "s", Kind: core.PeriodDaily, Date: "2024-06-28"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/bottok/sendMessage" {
		t.Errorf("unexpected path %s", path)
	}
	if received["chat_id"] != "42" || received["parse_mode"] != "Markdown" {
		t.Errorf("unexpected payload %v", received)
	}
}

func TestTelegram_SkipEmpty(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	tg := New("tok", "42")
	tg.apiURL = server.URL
	tg.skipEmpty = true

	if err := tg.Notify(context.Background(), notifier.Summary{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("empty pass list should not be sent")
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	tg := New("tok", "42")
	tg.apiURL = server.URL

	err := tg.Notify(context.Background(), notifier.Summary{})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected API error, got %v", err)
	}
}

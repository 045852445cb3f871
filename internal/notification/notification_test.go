package notification

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bybit-analyzer-bot/internal/evaluator"
)

func TestFormatSignal(t *testing.T) {
	res := evaluator.SignalResult{
		Symbol:      "BTCUSDT",
		Probability: 68,
		Direction:   evaluator.Long,
		Reasons:     []string{"Bullish trend", "High volatility (ATR)"},
	}
	at := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

	msg := FormatSignal(res, at)
	for _, want := range []string{
		"Signal detected on BTCUSDT",
		"Direction: LONG",
		"Probability: 68%",
		"2025-11-03 09:30:00",
		"• Bullish trend",
		"• High volatility (ATR)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	// Reasons keep their order in the rendered body.
	if strings.Index(msg, "Bullish trend") > strings.Index(msg, "High volatility") {
		t.Error("reasons rendered out of order")
	}
}

func TestTelegramNotifierSend(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bottoken123/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "token123", ChatID: "42", Enabled: true})
	n.baseURL = server.URL

	if err := n.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestTelegramNotifierReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "bad", ChatID: "42", Enabled: true})
	n.baseURL = server.URL

	if err := n.Send("hello"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestNotifierDisabledWithoutCredentials(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{Enabled: true})
	if n.IsEnabled() {
		t.Error("notifier enabled without token and chat id")
	}
}

type fakeNotifier struct {
	name    string
	enabled bool
	sent    []string
	err     error
}

func (f *fakeNotifier) Send(message string) error {
	f.sent = append(f.sent, message)
	return f.err
}
func (f *fakeNotifier) Name() string    { return f.name }
func (f *fakeNotifier) IsEnabled() bool { return f.enabled }

func TestManagerFansOutToEnabledProviders(t *testing.T) {
	enabled := &fakeNotifier{name: "a", enabled: true}
	disabled := &fakeNotifier{name: "b", enabled: false}

	m := NewManager()
	m.AddNotifier(enabled)
	m.AddNotifier(disabled)

	if err := m.Send("msg"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(enabled.sent) != 1 {
		t.Errorf("enabled provider got %d messages", len(enabled.sent))
	}
	if len(disabled.sent) != 0 {
		t.Errorf("disabled provider got %d messages", len(disabled.sent))
	}
}

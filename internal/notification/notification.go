// Package notification delivers analyzer messages to chat providers.
// Delivery is best-effort: the emission gate records a signal as sent
// whether or not the transport succeeded.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bybit-analyzer-bot/internal/evaluator"
)

// Notifier is a single delivery provider.
type Notifier interface {
	Send(message string) error
	Name() string
	IsEnabled() bool
}

// Manager fans a message out to every enabled provider.
type Manager struct {
	notifiers []Notifier
}

func NewManager() *Manager {
	return &Manager{notifiers: make([]Notifier, 0)}
}

func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send delivers message to all enabled providers and returns the last
// error encountered, if any.
func (m *Manager) Send(message string) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(message); err != nil {
			lastErr = fmt.Errorf("%s: %w", n.Name(), err)
		}
	}
	return lastErr
}

// FormatSignal renders the notification body for an emitted signal:
// a header with symbol, direction, probability and timestamp, then one
// bullet per justification.
func FormatSignal(res evaluator.SignalResult, at time.Time) string {
	msg := fmt.Sprintf("⚡ Signal detected on %s\n📈 Direction: %s\n🎯 Probability: %d%%\n🕐 %s\n",
		res.Symbol, res.Direction, res.Probability, at.Format("2006-01-02 15:04:05"))
	for _, reason := range res.Reasons {
		msg += fmt.Sprintf("\n• %s", reason)
	}
	return msg
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier sends messages to a fixed chat via the Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	enabled  bool
	client   *http.Client
}

// TelegramConfig holds Telegram configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Enabled  bool
}

func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: config.BotToken,
		chatID:   config.ChatID,
		baseURL:  "https://api.telegram.org",
		enabled:  config.Enabled && config.BotToken != "" && config.ChatID != "",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) IsEnabled() bool { return t.enabled }

func (t *TelegramNotifier) Send(message string) error {
	if !t.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"chat_id": t.chatID,
		"text":    message,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// =============================================================================
// DISCORD NOTIFIER
// =============================================================================

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// DiscordConfig holds Discord configuration.
type DiscordConfig struct {
	WebhookURL string
	Enabled    bool
}

func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled && config.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) IsEnabled() bool { return d.enabled }

func (d *DiscordNotifier) Send(message string) error {
	if !d.enabled {
		return nil
	}

	payload := map[string]interface{}{"content": message}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}
	return nil
}

// Package vault optionally resolves the notifier credentials from a
// HashiCorp Vault KV v2 secret, so the Telegram bot token never has to
// live in a config file or the environment.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Credentials holds the Telegram delivery secret.
type Credentials struct {
	BotToken string
	ChatID   string
}

// Config mirrors the vault section of the application config.
type Config struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string // KV v2 mount, e.g. "secret"
	SecretPath string // path under the mount, e.g. "analyzer/telegram"
}

// Client wraps the HashiCorp Vault client.
type Client struct {
	client *api.Client
	config Config
}

// NewClient builds a Vault client. With Enabled false it returns a
// client whose lookups report absence rather than failing.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// TelegramCredentials reads the bot token and chat id from the secret
// path. The second return reports whether a usable secret was found.
func (c *Client) TelegramCredentials(ctx context.Context) (Credentials, bool, error) {
	if !c.config.Enabled {
		return Credentials{}, false, nil
	}

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, false, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return Credentials{}, false, nil
	}

	creds := Credentials{}
	if token, ok := data["bot_token"].(string); ok {
		creds.BotToken = token
	}
	if chatID, ok := data["chat_id"].(string); ok {
		creds.ChatID = chatID
	}
	if creds.BotToken == "" || creds.ChatID == "" {
		return Credentials{}, false, nil
	}
	return creds, true, nil
}

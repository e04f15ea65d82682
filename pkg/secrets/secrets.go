// Package secrets resolves API credentials from Vault with an environment
// fallback, so local development needs no Vault instance.
package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"ai-persona-chat/backend/pkg/logger"
)

// Well-known secret names used by the chat backend.
const (
	KeyOpenAI    = "openai-api-key"
	KeySentiment = "sentiment-api-key"
)

// envNames maps secret names to their environment fallbacks.
var envNames = map[string]string{
	KeyOpenAI:    "OPENAI_API_KEY",
	KeySentiment: "SENTIMENT_API_KEY",
}

// Config points the manager at a Vault KV v2 mount.
type Config struct {
	// Address of the Vault server; empty disables Vault entirely and every
	// lookup goes straight to the environment.
	Address string
	Token   string
	// MountPath of the KV v2 secrets engine, "secret" by default.
	MountPath string
	// SecretPath under the mount holding the backend's keys.
	SecretPath string
	Timeout    time.Duration
}

// Manager caches resolved secrets for the process lifetime.
type Manager struct {
	client *vault.Client
	config Config
	log    *logger.Logger

	mu     sync.RWMutex
	cached map[string]string
}

// NewManager connects to Vault when configured. Connection errors are
// returned; an unconfigured (empty address) manager is valid and env-only.
func NewManager(config Config, log *logger.Logger) (*Manager, error) {
	if config.MountPath == "" {
		config.MountPath = "secret"
	}
	if config.SecretPath == "" {
		config.SecretPath = "persona-chat"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	m := &Manager{config: config, log: log, cached: make(map[string]string)}

	if config.Address != "" {
		vaultConfig := vault.DefaultConfig()
		vaultConfig.Address = config.Address
		vaultConfig.Timeout = config.Timeout

		client, err := vault.NewClient(vaultConfig)
		if err != nil {
			return nil, fmt.Errorf("create vault client: %w", err)
		}
		client.SetToken(config.Token)
		m.client = client
	}

	return m, nil
}

// Get resolves a secret by name: process cache, then Vault, then the
// environment. A missing secret resolves to the empty string, which callers
// treat as "feature disabled".
func (m *Manager) Get(ctx context.Context, name string) string {
	m.mu.RLock()
	if value, ok := m.cached[name]; ok {
		m.mu.RUnlock()
		return value
	}
	m.mu.RUnlock()

	value := m.fromVault(ctx, name)
	if value == "" {
		if env, ok := envNames[name]; ok {
			value = os.Getenv(env)
		}
	}

	m.mu.Lock()
	m.cached[name] = value
	m.mu.Unlock()
	return value
}

func (m *Manager) fromVault(ctx context.Context, name string) string {
	if m.client == nil {
		return ""
	}

	secret, err := m.client.KVv2(m.config.MountPath).Get(ctx, m.config.SecretPath)
	if err != nil {
		m.log.Warn("vault lookup failed, falling back to environment",
			"secret", name, "error", err.Error())
		return ""
	}

	if raw, ok := secret.Data[name]; ok {
		if value, ok := raw.(string); ok {
			return value
		}
	}
	return ""
}

package feed

import (
	"context"
	"strings"
	"time"

	"github.com/storeops/backend/internal/infrastructure/config"
)

// Credentials are the connection parameters of the external store API
type Credentials struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
}

// CredentialProvider tells whether the store is configured and hands out
// its connection parameters. Storage and encryption of the secrets are the
// provider's business.
type CredentialProvider interface {
	IsConfigured() bool
	Credentials(ctx context.Context) (Credentials, error)
}

// ConfigCredentials serves credentials from the loaded configuration
type ConfigCredentials struct {
	cfg config.FeedConfig
}

// NewConfigCredentials creates a provider backed by configuration
func NewConfigCredentials(cfg config.FeedConfig) *ConfigCredentials {
	return &ConfigCredentials{cfg: cfg}
}

// IsConfigured reports whether base URL, key and secret are all set
func (p *ConfigCredentials) IsConfigured() bool {
	return p.cfg.IsConfigured()
}

// Credentials returns the configured parameters
func (p *ConfigCredentials) Credentials(context.Context) (Credentials, error) {
	if !p.IsConfigured() {
		return Credentials{}, ErrNotConfigured
	}
	return Credentials{
		BaseURL:        strings.TrimRight(p.cfg.BaseURL, "/"),
		ConsumerKey:    p.cfg.ConsumerKey,
		ConsumerSecret: p.cfg.ConsumerSecret,
	}, nil
}

// Options tunes the HTTP client
type Options struct {
	Timeout  time.Duration
	PerPage  int
	MaxPages int
}

// OptionsFromConfig picks the client options out of the feed configuration
func OptionsFromConfig(cfg config.FeedConfig) Options {
	return Options{Timeout: cfg.Timeout, PerPage: cfg.PerPage, MaxPages: cfg.MaxPages}
}

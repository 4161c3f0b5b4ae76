package realtime

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/marketdeck/realtime/pkg/logger"
)

// Config is the configuration surface of the realtime client.
type Config struct {
	// ServerURL is the WebSocket endpoint of the streaming backend,
	// such as "ws://localhost:8000/ws".
	ServerURL string `env:"REALTIME_SERVER_URL"`

	// HealthURL is the endpoint probed for reachability before dialing.
	// When empty it is derived from ServerURL: the scheme becomes http(s)
	// and the path becomes /health.
	HealthURL string `env:"REALTIME_HEALTH_URL"`

	// AutoReconnect enables reconnection with exponential backoff after
	// abnormal closures and transport errors.
	AutoReconnect bool `env:"REALTIME_AUTO_RECONNECT" envDefault:"true"`

	// ReconnectBaseDelay is the delay before the first reconnect attempt;
	// each subsequent attempt doubles it.
	ReconnectBaseDelay time.Duration `env:"REALTIME_RECONNECT_BASE_DELAY" envDefault:"1s"`

	// MaxReconnectDelay caps the backoff growth.
	MaxReconnectDelay time.Duration `env:"REALTIME_MAX_RECONNECT_DELAY" envDefault:"30s"`

	// MaxReconnectAttempts bounds consecutive reconnect attempts before the
	// client gives up for the session.
	MaxReconnectAttempts int `env:"REALTIME_MAX_RECONNECT_ATTEMPTS" envDefault:"5"`

	// KeepaliveInterval is how often a ping frame is sent while connected.
	KeepaliveInterval time.Duration `env:"REALTIME_KEEPALIVE_INTERVAL" envDefault:"30s"`

	// ProbeTimeout bounds the reachability probe request.
	ProbeTimeout time.Duration `env:"REALTIME_PROBE_TIMEOUT" envDefault:"2s"`

	// QueueLimit caps the outbound queue; the oldest entry is dropped when
	// the limit is exceeded. Zero means unbounded.
	QueueLimit int `env:"REALTIME_QUEUE_LIMIT" envDefault:"256"`

	Logger logger.Logger `env:"-"`
}

// NewConfig creates a Config with defaults for the given server URL.
func NewConfig(serverURL string) *Config {
	cfg := &Config{
		ServerURL:     serverURL,
		AutoReconnect: true,
		QueueLimit:    256,
	}
	return cfg.withDefaults()
}

// withDefaults returns a copy with non-positive intervals and counts
// replaced by their defaults, so a Config built as a struct literal behaves
// like one from NewConfig. AutoReconnect and QueueLimit are left alone:
// false and zero are meaningful values for them.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.ReconnectBaseDelay <= 0 {
		out.ReconnectBaseDelay = time.Second
	}
	if out.MaxReconnectDelay <= 0 {
		out.MaxReconnectDelay = 30 * time.Second
	}
	if out.MaxReconnectAttempts <= 0 {
		out.MaxReconnectAttempts = 5
	}
	if out.KeepaliveInterval <= 0 {
		out.KeepaliveInterval = 30 * time.Second
	}
	if out.ProbeTimeout <= 0 {
		out.ProbeTimeout = 2 * time.Second
	}
	return &out
}

// FromEnv builds a Config from REALTIME_* environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse realtime config from environment: %w", err)
	}
	return cfg, nil
}

// healthURL returns the configured health endpoint, deriving one from the
// server URL when unset.
func (c *Config) healthURL() (string, error) {
	if c.HealthURL != "" {
		return c.HealthURL, nil
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = "/health"
	u.RawQuery = ""

	return u.String(), nil
}

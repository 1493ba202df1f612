package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// Config is the full configuration shared by the relay and the peer CLI.
type Config struct {
	Room  RoomSettings  `yaml:"room"`
	Relay RelaySettings `yaml:"relay"`
	Log   LogSettings   `yaml:"log"`
}

// RoomSettings governs room membership and the synchronizer.
type RoomSettings struct {
	CodeLength int `yaml:"codeLength"`
	MaxPlayers int `yaml:"maxPlayers"`

	// RequestTTL is the freshness window for press/reset intent records;
	// older records are dropped by the host.
	RequestTTL time.Duration `yaml:"requestTTL"`

	// BombHitResetDelay is how long the one-shot bombHit trigger stays
	// raised before the host clears it and republishes.
	BombHitResetDelay time.Duration `yaml:"bombHitResetDelay"`
}

// RelaySettings contains the relay server bind settings and the client
// side dial settings.
type RelaySettings struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port string `yaml:"port" envconfig:"PORT"`

	// URL is the websocket endpoint peers dial, e.g. ws://host:port/ws.
	URL string `yaml:"url" envconfig:"RELAY_URL"`

	// PublicURL is the base for shareable room links and QR codes.
	PublicURL string `yaml:"publicURL" envconfig:"PUBLIC_URL"`

	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 keeps websockets alive
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RequestTimeout bounds RelayStore once/list round trips.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit" envconfig:"RATE_LIMIT"`
	RateLimitBurst int     `yaml:"rateLimitBurst" envconfig:"RATE_LIMIT_BURST"`

	MaxMessageSize int64 `yaml:"maxMessageSize"`
	SendBuffer     int   `yaml:"sendBuffer"`
}

// LogSettings selects the zap logger profile.
type LogSettings struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"` // "json" or "console"
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Room: RoomSettings{
			CodeLength:        6,
			MaxPlayers:        4,
			RequestTTL:        5 * time.Second,
			BombHitResetDelay: 100 * time.Millisecond,
		},
		Relay: RelaySettings{
			Host:            "0.0.0.0",
			Port:            "8080",
			URL:             "ws://localhost:8080/ws",
			PublicURL:       "http://localhost:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  10 * time.Second,
			RateLimit:       10,
			RateLimitBurst:  20,
			MaxMessageSize:  1 << 16,
			SendBuffer:      32,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Room.CodeLength < 4 {
		return fmt.Errorf("room.codeLength must be at least 4")
	}
	if c.Room.MaxPlayers < 2 {
		return fmt.Errorf("room.maxPlayers must be at least 2")
	}
	if c.Room.RequestTTL <= 0 {
		return fmt.Errorf("room.requestTTL must be positive")
	}
	if c.Relay.Port == "" {
		return fmt.Errorf("relay.port must be set")
	}
	if c.Relay.URL == "" {
		return fmt.Errorf("relay.url must be set")
	}
	if c.Relay.RateLimit <= 0 {
		return fmt.Errorf("relay.rateLimit must be positive")
	}
	if c.Relay.MaxMessageSize < 1024 {
		return fmt.Errorf("relay.maxMessageSize must be at least 1024")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// YAML renders the configuration as a YAML document, the format
// LoadConfig reads back.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

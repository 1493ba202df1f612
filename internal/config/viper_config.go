package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("switchbomb")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/switchbomb")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables
	// These allow both SWITCHBOMB_RELAY_PORT and PORT to work
	v.BindEnv("relay.port", "PORT")
	v.BindEnv("relay.host", "HOST")
	v.BindEnv("relay.url", "RELAY_URL")
	v.BindEnv("relay.publicurl", "PUBLIC_URL")
	v.BindEnv("relay.ratelimit", "RATE_LIMIT")
	v.BindEnv("relay.ratelimitburst", "RATE_LIMIT_BURST")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// Room defaults
	v.SetDefault("room.codelength", 6)
	v.SetDefault("room.maxplayers", 4)
	v.SetDefault("room.requestttl", "5s")
	v.SetDefault("room.bombhitresetdelay", "100ms")

	// Relay defaults
	v.SetDefault("relay.host", "0.0.0.0")
	v.SetDefault("relay.port", "8080")
	v.SetDefault("relay.url", "ws://localhost:8080/ws")
	v.SetDefault("relay.publicurl", "http://localhost:8080")
	v.SetDefault("relay.readtimeout", "15s")
	v.SetDefault("relay.writetimeout", "15s")
	v.SetDefault("relay.idletimeout", "0s") // 0 keeps websockets alive
	v.SetDefault("relay.shutdowntimeout", "30s")
	v.SetDefault("relay.requesttimeout", "10s")
	v.SetDefault("relay.ratelimit", 10.0)
	v.SetDefault("relay.ratelimitburst", 20)
	v.SetDefault("relay.maxmessagesize", 65536)
	v.SetDefault("relay.sendbuffer", 32)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if strings.Contains(err.Error(), "no such file or directory") {
				// File doesn't exist, continue with defaults
			} else {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "github.com/DeadpoolYD/ev-charging-kiosk/libs/config"
)

// Config defines the kiosk configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"KIOSK_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"KIOSK_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr" env:"KIOSK_REDIS_ADDR"`
		Password   string `yaml:"password" env:"KIOSK_REDIS_PASSWORD"`
		DB         int    `yaml:"db" env:"KIOSK_REDIS_DB"`
		TTLSeconds int    `yaml:"ttlSeconds" env:"KIOSK_REDIS_TTL"`
	} `yaml:"redis"`
	Scan struct {
		WindowSeconds      int `yaml:"windowSeconds" env:"KIOSK_SCAN_WINDOW_SECONDS"`
		PollIntervalMillis int `yaml:"pollIntervalMillis" env:"KIOSK_SCAN_POLL_MILLIS"`
		LogPollLimit       int `yaml:"logPollLimit" env:"KIOSK_SCAN_LOG_LIMIT"`
	} `yaml:"scan"`
	Reader struct {
		PollIntervalMillis int `yaml:"pollIntervalMillis" env:"KIOSK_READER_POLL_MILLIS"`
		CooldownSeconds    int `yaml:"cooldownSeconds" env:"KIOSK_READER_COOLDOWN_SECONDS"`
	} `yaml:"reader"`
	Monitor struct {
		PollIntervalMillis int `yaml:"pollIntervalMillis" env:"KIOSK_MONITOR_POLL_MILLIS"`
	} `yaml:"monitor"`
	Pricing struct {
		// Price of a full 0% -> 100% charge, in minor currency units.
		FullChargeCostCents int64 `yaml:"fullChargeCostCents" env:"KIOSK_FULL_CHARGE_COST_CENTS"`
	} `yaml:"pricing"`
	Admin struct {
		Login           string `yaml:"login" env:"KIOSK_ADMIN_LOGIN"`
		PasswordHash    string `yaml:"passwordHash" env:"KIOSK_ADMIN_PASSWORD_HASH"`
		JWTSecret       string `yaml:"jwtSecret" env:"KIOSK_ADMIN_JWT_SECRET"`
		TokenTTLMinutes int    `yaml:"tokenTtlMinutes" env:"KIOSK_ADMIN_TOKEN_TTL_MINUTES"`
	} `yaml:"admin"`
}

// Load reads configuration via the shared helper and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTLSeconds = 86400
	cfg.Scan.WindowSeconds = 7
	cfg.Scan.PollIntervalMillis = 500
	cfg.Scan.LogPollLimit = 10
	cfg.Reader.PollIntervalMillis = 500
	cfg.Reader.CooldownSeconds = 2
	cfg.Monitor.PollIntervalMillis = 1000
	cfg.Admin.TokenTTLMinutes = 60

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	// A non-positive full-charge price would make the target calculation
	// divide by zero; reject it here rather than at charge time.
	if cfg.Pricing.FullChargeCostCents <= 0 {
		return nil, errors.New("config: fullChargeCostCents must be positive")
	}
	if cfg.Scan.WindowSeconds <= 0 {
		return nil, errors.New("config: scan windowSeconds must be positive")
	}
	if strings.TrimSpace(cfg.Admin.JWTSecret) == "" {
		return nil, errors.New("config: admin jwtSecret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ScanWindow returns the bounded scan window duration.
func (c *Config) ScanWindow() time.Duration {
	return time.Duration(c.Scan.WindowSeconds) * time.Second
}

// ScanPollInterval returns the presence/log poll interval.
func (c *Config) ScanPollInterval() time.Duration {
	if c.Scan.PollIntervalMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Scan.PollIntervalMillis) * time.Millisecond
}

// ReaderPollInterval returns the RFID reader poll interval.
func (c *Config) ReaderPollInterval() time.Duration {
	if c.Reader.PollIntervalMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Reader.PollIntervalMillis) * time.Millisecond
}

// ReaderCooldown returns the per-card dedup cooldown.
func (c *Config) ReaderCooldown() time.Duration {
	if c.Reader.CooldownSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Reader.CooldownSeconds) * time.Second
}

// MonitorPollInterval returns the telemetry poll interval for active sessions.
func (c *Config) MonitorPollInterval() time.Duration {
	if c.Monitor.PollIntervalMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.Monitor.PollIntervalMillis) * time.Millisecond
}

// ActiveSessionTTL returns the redis cache TTL.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// AdminTokenTTL returns the admin JWT lifetime.
func (c *Config) AdminTokenTTL() time.Duration {
	if c.Admin.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Admin.TokenTTLMinutes) * time.Minute
}

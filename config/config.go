package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultPort           = 3001
	DefaultProfileDir     = "./profile"
	DefaultPublicDir      = "./public"
	DefaultReconnectDelay = 5 * time.Second
)

// Config is the environment-driven service configuration.
type Config struct {
	Port           int
	ProfileDir     string
	DBDSN          string
	PublicDir      string
	ReconnectDelay time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
// Invalid values fall back rather than fail: a half-configured environment
// should still bring the service up.
func Load() Config {
	cfg := Config{
		Port:           DefaultPort,
		ProfileDir:     DefaultProfileDir,
		PublicDir:      DefaultPublicDir,
		ReconnectDelay: DefaultReconnectDelay,
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			cfg.Port = port
		}
	}

	if v := os.Getenv("WA_PROFILE_DIR"); v != "" {
		cfg.ProfileDir = v
	} else if v := os.Getenv("PUPPETEER_PROFILE_DIR"); v != "" {
		cfg.ProfileDir = v
	}

	if v := os.Getenv("PUBLIC_DIR"); v != "" {
		cfg.PublicDir = v
	}

	if v := os.Getenv("WA_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReconnectDelay = d
		}
	}

	// An explicit DSN wins; otherwise the store lives inside the profile
	// directory so one directory carries the whole session.
	if v := os.Getenv("WA_DB_DSN"); v != "" {
		cfg.DBDSN = v
	} else {
		cfg.DBDSN = ProfileDSN(cfg.ProfileDir)
	}

	return cfg
}

// ProfileDSN builds the sqlite DSN for a session store kept in dir.
func ProfileDSN(dir string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", filepath.Join(dir, "session.db"))
}

// Addr is the listen address for the HTTP facade.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

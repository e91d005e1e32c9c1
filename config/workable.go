package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	LockBackendDatabase = "database"
	LockBackendRedis    = "redis"
	LockBackendNone     = "none"
)

// WorkableConfig carries everything the candidate sync needs from the
// environment. It is built once and passed to the sync service.
type WorkableConfig struct {
	APIToken         string
	Subdomain        string
	BaseURL          string
	IncrementalPages int
	LockBackend      string
	RedisURL         string
	AlertRecipients  []string
}

// LoadWorkableConfig reads WORKABLE_* and sync settings from the environment.
func LoadWorkableConfig() WorkableConfig {
	cfg := WorkableConfig{
		APIToken:         strings.TrimSpace(os.Getenv("WORKABLE_API_TOKEN")),
		Subdomain:        strings.TrimSpace(os.Getenv("WORKABLE_SUBDOMAIN")),
		BaseURL:          strings.TrimRight(strings.TrimSpace(os.Getenv("WORKABLE_BASE_URL")), "/"),
		IncrementalPages: envInt("WORKABLE_INCREMENTAL_PAGES", 5),
		LockBackend:      strings.ToLower(strings.TrimSpace(os.Getenv("SYNC_LOCK_BACKEND"))),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		AlertRecipients:  splitList(os.Getenv("SYNC_ALERT_EMAILS")),
	}
	if cfg.LockBackend == "" {
		cfg.LockBackend = LockBackendDatabase
	}
	return cfg
}

// APIBaseURL returns the SPI v3 root for the configured account.
func (c WorkableConfig) APIBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s.workable.com/spi/v3", c.Subdomain)
}

// Missing lists the required keys that are not set.
func (c WorkableConfig) Missing() []string {
	var missing []string
	if c.APIToken == "" {
		missing = append(missing, "WORKABLE_API_TOKEN")
	}
	if c.Subdomain == "" && c.BaseURL == "" {
		missing = append(missing, "WORKABLE_SUBDOMAIN")
	}
	if c.LockBackend == LockBackendRedis && c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	return missing
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

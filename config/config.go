// Package config loads engine configuration from the environment. A .env
// file is honored when present so local runs match container deployments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the engine needs at startup. Business-rule
// tunables (suspension profile, LOS threshold) live here rather than as
// constants so operators can adjust them per deployment.
type Config struct {
	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string

	// ListenAddr is the webhook/API listen address.
	ListenAddr string

	// DeviceTimeout bounds each device connect or command round trip.
	DeviceTimeout time.Duration

	// WorkerLimit caps concurrent device sessions within one batch run.
	WorkerLimit int

	// IsolirProfile is the walled-garden PPPoE profile applied on
	// suspension. Tenants may override it row-by-row.
	IsolirProfile string

	// LOSThresholdDBm: receive power at or below this is a loss-of-signal
	// alarm. Zero means use the vendor profile default.
	LOSThresholdDBm float64

	// PollInterval is the SNMP ONU poller period. Zero disables polling.
	PollInterval time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseDSN:   os.Getenv("NETOPS_DB_DSN"),
		ListenAddr:    getEnv("NETOPS_LISTEN_ADDR", ":8080"),
		DeviceTimeout: getDuration("NETOPS_DEVICE_TIMEOUT", 5*time.Second),
		WorkerLimit:   getInt("NETOPS_WORKER_LIMIT", 4),
		IsolirProfile: getEnv("NETOPS_ISOLIR_PROFILE", "ISOLIR_PROFILE"),
		PollInterval:  getDuration("NETOPS_POLL_INTERVAL", 5*time.Minute),
		LogLevel:      getEnv("NETOPS_LOG_LEVEL", "info"),
		LogJSON:       getBool("NETOPS_LOG_JSON", false),
	}

	if v := os.Getenv("NETOPS_LOS_THRESHOLD_DBM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NETOPS_LOS_THRESHOLD_DBM %q: %w", v, err)
		}
		cfg.LOSThresholdDBm = f
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("NETOPS_DB_DSN is required")
	}
	if cfg.WorkerLimit < 1 {
		cfg.WorkerLimit = 1
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

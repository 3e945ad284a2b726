package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CacheVersion is the current cache generation tag. Bumping it retires
// every partition created under the previous tag on next activation.
const CacheVersion = "v4"

// Config is the flat pantry configuration, read from
// ~/.pantry/config.json with PANTRY_* environment overrides applied
// on top.
type Config struct {
	HomeDir string `json:"-"`

	// Gateway listeners.
	CustomerAddr string `json:"customer_addr"`
	AdminAddr    string `json:"admin_addr"`

	// Remote backend.
	BackendBaseURL string `json:"backend_base_url"`
	HealthPath     string `json:"health_path"`

	// Fetch timeout budgets, per resource class.
	NavigationTimeout Duration `json:"navigation_timeout"`
	APITimeout        Duration `json:"api_timeout"`

	// Sync engine.
	SyncInterval   Duration `json:"sync_interval"`
	BackoffBase    Duration `json:"backoff_base"`
	BackoffCap     Duration `json:"backoff_cap"`
	StaleInFlight  Duration `json:"stale_in_flight"`
	ProbeInterval  Duration `json:"probe_interval"`
	ProbeTimeout   Duration `json:"probe_timeout"`
	AssetRetention Duration `json:"asset_retention"`

	// Logging.
	LogLevel    string `json:"log_level"`
	LogEncoding string `json:"log_encoding"`
}

// Duration is a time.Duration that marshals as a human-readable string
// ("90s", "5m") in the config file.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		CustomerAddr:      ":8080",
		AdminAddr:         ":8081",
		BackendBaseURL:    "http://localhost:3000",
		HealthPath:        "/api/health",
		NavigationTimeout: Duration(3 * time.Second),
		APITimeout:        Duration(8 * time.Second),
		SyncInterval:      Duration(30 * time.Second),
		BackoffBase:       Duration(5 * time.Second),
		BackoffCap:        Duration(5 * time.Minute),
		StaleInFlight:     Duration(10 * time.Minute),
		ProbeInterval:     Duration(15 * time.Second),
		ProbeTimeout:      Duration(2 * time.Second),
		AssetRetention:    Duration(7 * 24 * time.Hour),
		LogLevel:          "info",
		LogEncoding:       "json",
	}
}

// Load reads config.json from the pantry home directory, falling back
// to defaults when the file is absent. Environment overrides are
// applied last so deployments can tweak single values without a file.
func Load() (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.HomeDir = home

	path := filepath.Join(home, "config.json")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes config.json to the pantry home directory.
func Save(cfg *Config) error {
	home, err := HomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create pantry dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(home, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// HomeDir resolves the pantry state directory: PANTRY_HOME if set,
// otherwise ~/.pantry.
func HomeDir() (string, error) {
	if dir := os.Getenv("PANTRY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pantry"), nil
}

func applyEnv(cfg *Config) {
	cfg.CustomerAddr = getEnv("PANTRY_CUSTOMER_ADDR", cfg.CustomerAddr)
	cfg.AdminAddr = getEnv("PANTRY_ADMIN_ADDR", cfg.AdminAddr)
	cfg.BackendBaseURL = getEnv("PANTRY_BACKEND_URL", cfg.BackendBaseURL)
	cfg.HealthPath = getEnv("PANTRY_HEALTH_PATH", cfg.HealthPath)
	cfg.LogLevel = getEnv("PANTRY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogEncoding = getEnv("PANTRY_LOG_ENCODING", cfg.LogEncoding)
	cfg.NavigationTimeout = getEnvDuration("PANTRY_NAVIGATION_TIMEOUT", cfg.NavigationTimeout)
	cfg.APITimeout = getEnvDuration("PANTRY_API_TIMEOUT", cfg.APITimeout)
	cfg.SyncInterval = getEnvDuration("PANTRY_SYNC_INTERVAL", cfg.SyncInterval)
	cfg.BackoffBase = getEnvDuration("PANTRY_BACKOFF_BASE", cfg.BackoffBase)
	cfg.BackoffCap = getEnvDuration("PANTRY_BACKOFF_CAP", cfg.BackoffCap)
	cfg.ProbeInterval = getEnvDuration("PANTRY_PROBE_INTERVAL", cfg.ProbeInterval)
	cfg.ProbeTimeout = getEnvDuration("PANTRY_PROBE_TIMEOUT", cfg.ProbeTimeout)
	cfg.AssetRetention = getEnvDuration("PANTRY_ASSET_RETENTION", cfg.AssetRetention)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback Duration) Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return Duration(d)
	}
	// Bare numbers are accepted as seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return Duration(time.Duration(n) * time.Second)
	}
	return fallback
}

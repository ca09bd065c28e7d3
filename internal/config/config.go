package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr          string
	DBPath        string
	FeedURL       string
	MaxResults    int
	FetchInterval time.Duration
	StartupDelay  time.Duration
	ClassifyBatch int
	APIKeyHash    string // bcrypt hash guarding export endpoints; empty disables the check
	Debug         bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("BSL_ADDR", ":8080")
	cfg.DBPath = getEnv("BSL_DB", getDefaultDBPath())
	cfg.FeedURL = getEnv("BSL_FEED_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0")
	cfg.MaxResults = getEnvInt("BSL_MAX_RESULTS", 100)
	cfg.FetchInterval = getEnvDuration("BSL_FETCH_INTERVAL", 6*time.Hour)
	cfg.StartupDelay = getEnvDuration("BSL_STARTUP_DELAY", 5*time.Minute)
	cfg.ClassifyBatch = getEnvInt("BSL_CLASSIFY_BATCH", 50)
	cfg.APIKeyHash = getEnv("BSL_API_KEY_HASH", "")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "Vulnerability feed base URL")
	flag.IntVar(&cfg.MaxResults, "max-results", cfg.MaxResults, "Max records per feed fetch")
	flag.DurationVar(&cfg.FetchInterval, "interval", cfg.FetchInterval, "Time between scheduled passes")
	flag.DurationVar(&cfg.StartupDelay, "startup-delay", cfg.StartupDelay, "Delay before the first scheduled pass")
	flag.IntVar(&cfg.ClassifyBatch, "classify-batch", cfg.ClassifyBatch, "Max records classified per pass")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "bioshield.db"
	}

	dir := filepath.Join(home, ".bioshield")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .bioshield directory, using current dir: %v", err)
		return "bioshield.db"
	}

	return filepath.Join(dir, "bioshield.db")
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hpungsan/glance/internal/logging"
)

// Defaults for tunable intervals.
const (
	DefaultIdleThresholdMin   = 5
	DefaultSummaryIntervalMin = 60
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultModel              = "gpt-4o-mini"
)

// Config holds all application configuration.
type Config struct {
	// DataDir is the base directory for partitions, screenshots and the
	// summary checkpoint. Defaults to ~/.glance.
	DataDir string

	// APIKey authenticates against the AI service. Empty disables AI calls.
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint root.
	BaseURL string

	// Model is the vision-capable model used for both description and synthesis.
	Model string

	// IdleThresholdMin is the idle time in minutes past which the user is AFK.
	IdleThresholdMin int

	// SummaryIntervalMin is how often a rolled-up summary is emitted.
	SummaryIntervalMin int

	// NoteName is the target note in the notes app. Empty disables the sink.
	NoteName string

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string
}

// LoadEnv loads a .env file if present. Missing files only warn; environment
// variables take over.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Debugf("no .env file loaded: %v", err)
	}
}

// Load builds configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		DataDir:            getEnv("GLANCE_DATA_DIR", ""),
		APIKey:             getEnv("GLANCE_API_KEY", ""),
		BaseURL:            getEnv("GLANCE_BASE_URL", DefaultBaseURL),
		Model:              getEnv("GLANCE_MODEL", DefaultModel),
		IdleThresholdMin:   getIntEnv("GLANCE_IDLE_THRESHOLD_MIN", DefaultIdleThresholdMin),
		SummaryIntervalMin: getIntEnv("GLANCE_SUMMARY_INTERVAL_MIN", DefaultSummaryIntervalMin),
		NoteName:           getEnv("GLANCE_NOTE_NAME", ""),
		LogLevel:           getEnv("GLANCE_LOG_LEVEL", "info"),
	}
}

// ResolveDataDir expands the data directory, falling back to ~/.glance when
// unset. The caller decides whether to create it.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".glance"), nil
}

// NotesEnabled reports whether the notes sink is configured.
func (c *Config) NotesEnabled() bool {
	return strings.TrimSpace(c.NoteName) != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		logging.Logger.Warnf("ignoring %s=%q: want a positive integer", key, v)
		return fallback
	}
	return n
}

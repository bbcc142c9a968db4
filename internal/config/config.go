package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = "8080"
	defaultSessionTTL    = 2 * time.Hour
	defaultSweepSchedule = "*/10 * * * *"
	defaultLogLevel      = "info"
	defaultEnv           = "dev"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Port           string
	SessionSecret  string
	SessionTTL     time.Duration
	SweepSchedule  string
	MasterSeedPath string
	LogLevel       string
	Env            string
}

// Load reads .env (when present) and the environment and returns a populated
// Config. Variables already set in the environment win over the file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := Config{
		Port:           getenv("PORT", defaultPort),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		SessionTTL:     defaultSessionTTL,
		SweepSchedule:  getenv("SESSION_SWEEP_SCHEDULE", defaultSweepSchedule),
		MasterSeedPath: os.Getenv("MASTER_SEED_PATH"),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", defaultLogLevel)),
		Env:            strings.ToLower(getenv("APP_ENV", defaultEnv)),
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Warnings lists settings that work but should be fixed outside development.
func (c Config) Warnings() []string {
	var warnings []string
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set; session cookies use an ephemeral key")
	}
	return warnings
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/boxhunt/internal/logger"
)

type Config struct {
	Addr                string
	DBPath              string
	LogLevel            string
	AutoSearchWorkers   int
	AutoSearchQueueSize int
	ClassicBoxCount     int
	LinearBoxCount      int
	BinaryBoxCount      int
	MaxBoxCount         int
	LinearStepDelay     time.Duration
	BinaryStepDelay     time.Duration
	CORSOrigins         []string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:boxhunt?mode=memory&cache=shared"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		AutoSearchWorkers:   envIntOr("AUTO_SEARCH_WORKERS", 4),
		AutoSearchQueueSize: envIntOr("AUTO_SEARCH_QUEUE_SIZE", 32),
		ClassicBoxCount:     envIntOr("CLASSIC_BOX_COUNT", 10),
		LinearBoxCount:      envIntOr("LINEAR_BOX_COUNT", 10),
		BinaryBoxCount:      envIntOr("BINARY_BOX_COUNT", 100),
		MaxBoxCount:         envIntOr("MAX_BOX_COUNT", 1000),
		LinearStepDelay:     envDurationOr("LINEAR_STEP_DELAY", 300*time.Millisecond),
		BinaryStepDelay:     envDurationOr("BINARY_STEP_DELAY", time.Second),
		CORSOrigins:         envListOr("CORS_ORIGINS", []string{"*"}),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if c.AutoSearchWorkers <= 0 {
		errs = append(errs, fmt.Errorf("AUTO_SEARCH_WORKERS must be positive (got %d)", c.AutoSearchWorkers))
	}
	if c.AutoSearchQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("AUTO_SEARCH_QUEUE_SIZE must be positive (got %d)", c.AutoSearchQueueSize))
	}
	if c.MaxBoxCount <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BOX_COUNT must be positive (got %d)", c.MaxBoxCount))
	}
	for _, bc := range []struct {
		key string
		n   int
	}{
		{"CLASSIC_BOX_COUNT", c.ClassicBoxCount},
		{"LINEAR_BOX_COUNT", c.LinearBoxCount},
		{"BINARY_BOX_COUNT", c.BinaryBoxCount},
	} {
		if bc.n <= 0 || (c.MaxBoxCount > 0 && bc.n > c.MaxBoxCount) {
			errs = append(errs, fmt.Errorf("%s must be between 1 and MAX_BOX_COUNT (got %d)", bc.key, bc.n))
		}
	}
	if c.LinearStepDelay < 0 {
		errs = append(errs, fmt.Errorf("LINEAR_STEP_DELAY cannot be negative (got %s)", c.LinearStepDelay))
	}
	if c.BinaryStepDelay < 0 {
		errs = append(errs, fmt.Errorf("BINARY_STEP_DELAY cannot be negative (got %s)", c.BinaryStepDelay))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

// envDurationOr accepts Go durations ("300ms") or a bare number of milliseconds.
func envDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

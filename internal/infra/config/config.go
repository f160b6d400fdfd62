package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultCycle is the two-year election period exported. It is not read from the environment.
	DefaultCycle = 2022

	DefaultAPIURL      = "https://api.open.fec.gov/v1/schedules/schedule_b/"
	DefaultOutputDir   = "data/raw"
	DefaultHTTPTimeout = 30 * time.Second
)

// Error reports a missing or invalid configuration variable.
type Error struct {
	Var    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Var, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Var, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// AppConfig holds all configuration for the application
type AppConfig struct {
	APIKey      string
	APIURL      string
	OutputDir   string
	Cycle       int
	HTTPTimeout time.Duration
	UTF8BOM     bool
	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env files.
// Without arguments a .env in the working directory is loaded if present; files named
// explicitly must exist. Existing environment variables are never overridden.
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, &Error{Var: strings.Join(envFiles, ", "), Reason: "could not be loaded", Err: err}
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &AppConfig{Cycle: DefaultCycle}
	var err error

	cfg.APIKey = os.Getenv("FEC_API_KEY")
	if cfg.APIKey == "" {
		return nil, &Error{Var: "FEC_API_KEY", Reason: "environment variable not set"}
	}

	cfg.APIURL = os.Getenv("FEC_API_URL")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	cfg.OutputDir = os.Getenv("OUTPUT_DIR")
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout, err = time.ParseDuration(v)
		if err != nil || cfg.HTTPTimeout <= 0 {
			return nil, &Error{Var: "HTTP_TIMEOUT", Reason: fmt.Sprintf("must be a positive duration, got %q", v)}
		}
	}

	if v := os.Getenv("EXPORT_UTF8_BOM"); v != "" {
		cfg.UTF8BOM, err = strconv.ParseBool(v)
		if err != nil {
			return nil, &Error{Var: "EXPORT_UTF8_BOM", Reason: fmt.Sprintf("must be a boolean, got %q", v)}
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

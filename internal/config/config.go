package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Identity
	AppID string `env:"NAVPANEL_APP_ID" default:"navpanel"`

	// Visualizer connection
	VisualizerHost string        `env:"VISUALIZER_HOST" default:"localhost"`
	VisualizerPort int           `env:"VISUALIZER_PORT" default:"31336"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" default:"5s"`
	OutboxSize     int           `env:"OUTBOX_SIZE" default:"256"`

	// Panel
	SchemaPath   string `env:"SCHEMA_PATH" default:"sliders.json"`
	PrefsBackend string `env:"PREFS_BACKEND" default:"file"`
	PrefsPath    string `env:"PREFS_PATH"`
	RememberHost bool   `env:"REMEMBER_HOST" default:"false"`

	// Logging
	LogLevel   string `env:"LOG_LEVEL" default:"info"`
	LogFormat  string `env:"LOG_FORMAT" default:"text"`
	LogFile    string `env:"LOG_FILE"`
	LogJournal bool   `env:"LOG_JOURNAL" default:"false"`

	// Visualizer daemon
	ListenAddr  string  `env:"LISTEN_ADDR" default:":31336"`
	StatusAddr  string  `env:"STATUS_ADDR"`
	ScriptPath  string  `env:"SCRIPT_PATH"`
	StartupCall string  `env:"STARTUP_CALL"`
	LineRate    float64 `env:"LINE_RATE" default:"200"`
	LineBurst   int     `env:"LINE_BURST" default:"400"`
}

// LoadConfig loads configuration from a .env file, if any, and the environment.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, the process environment still applies
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("env_file_unreadable", "error", err.Error())
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*Config, error) {
	config := &Config{}

	loadEnvString(&config.AppID, "NAVPANEL_APP_ID", "navpanel")

	// Visualizer connection
	loadEnvString(&config.VisualizerHost, "VISUALIZER_HOST", "localhost")
	if err := loadEnvInt(&config.VisualizerPort, "VISUALIZER_PORT", 31336); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ConnectTimeout, "CONNECT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.OutboxSize, "OUTBOX_SIZE", 256); err != nil {
		return nil, err
	}

	// Panel
	loadEnvString(&config.SchemaPath, "SCHEMA_PATH", "sliders.json")
	loadEnvString(&config.PrefsBackend, "PREFS_BACKEND", "file")
	loadEnvString(&config.PrefsPath, "PREFS_PATH", "")
	if err := loadEnvBool(&config.RememberHost, "REMEMBER_HOST", false); err != nil {
		return nil, err
	}

	// Logging
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "text")
	loadEnvString(&config.LogFile, "LOG_FILE", "")
	if err := loadEnvBool(&config.LogJournal, "LOG_JOURNAL", false); err != nil {
		return nil, err
	}

	// Visualizer daemon
	loadEnvString(&config.ListenAddr, "LISTEN_ADDR", ":31336")
	loadEnvString(&config.StatusAddr, "STATUS_ADDR", "")
	loadEnvString(&config.ScriptPath, "SCRIPT_PATH", "")
	loadEnvString(&config.StartupCall, "STARTUP_CALL", "")
	if err := loadEnvFloat(&config.LineRate, "LINE_RATE", 200); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.LineBurst, "LINE_BURST", 400); err != nil {
		return nil, err
	}

	return config, nil
}

// Helper functions for type conversion
func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.AppID == "" {
		errors = append(errors, "NAVPANEL_APP_ID must not be empty")
	}
	if c.VisualizerPort < 1 || c.VisualizerPort > 65535 {
		errors = append(errors, "VISUALIZER_PORT must be between 1 and 65535")
	}
	if c.ConnectTimeout < 0 {
		errors = append(errors, "CONNECT_TIMEOUT must not be negative")
	}
	if c.OutboxSize < 1 {
		errors = append(errors, "OUTBOX_SIZE must be at least 1")
	}

	validBackends := []string{"file", "sqlite"}
	if !contains(validBackends, c.PrefsBackend) {
		errors = append(errors, fmt.Sprintf("PREFS_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if c.StartupCall != "" && c.ScriptPath == "" {
		errors = append(errors, "STARTUP_CALL requires SCRIPT_PATH")
	}

	if c.LineRate <= 0 {
		errors = append(errors, "LINE_RATE must be positive")
	}
	if c.LineBurst < 1 {
		errors = append(errors, "LINE_BURST must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

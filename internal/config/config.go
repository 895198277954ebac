// Package config provides configuration loading for bioscope.
// Values resolve with CLI-flag > environment > .env file > default precedence,
// managed through viper so command flags can be bound directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bioscope/internal/logger"
)

// Config holds the resolved runtime configuration for the conversation core
// and its CLI consumer.
type Config struct {
	// APIURL is the base URL of the remote assistant service.
	APIURL string
	// HTTPTimeout bounds each gateway round trip.
	HTTPTimeout time.Duration
	// DataDir is where durable local state (session identity) lives.
	DataDir string
	// LogLevel and LogFile configure the logger.
	LogLevel string
	LogFile  string
	// TestMode switches ID and time generation to deterministic values.
	TestMode bool
}

// SetDefaults registers default values on the global viper instance. Called
// before flag binding so flags and env vars override the defaults.
func SetDefaults() {
	viper.SetDefault("api_url", "http://localhost:3000")
	viper.SetDefault("http_timeout", "30s")
	viper.SetDefault("data_dir", defaultDataDir())
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")
	viper.SetDefault("test_mode", false)
}

// Load resolves the configuration from .env files, environment variables and
// any flags already bound to viper. A missing .env or config file is not an
// error; a malformed value is.
func Load() (*Config, error) {
	// Local .env first so BIOSCOPE_* vars defined there are visible to viper.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Debug("No local .env loaded", "error", err)
	}

	viper.SetEnvPrefix("BIOSCOPE")
	viper.AutomaticEnv()

	viper.SetConfigName("bioscope")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(viper.GetString("data_dir"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(viper.GetString("http_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid http_timeout %q: %w", viper.GetString("http_timeout"), err)
	}

	cfg := &Config{
		APIURL:      viper.GetString("api_url"),
		HTTPTimeout: timeout,
		DataDir:     viper.GetString("data_dir"),
		LogLevel:    viper.GetString("log_level"),
		LogFile:     viper.GetString("log_file"),
		TestMode:    viper.GetBool("test_mode"),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url cannot be empty")
	}

	return cfg, nil
}

// defaultDataDir returns ~/.config/bioscope, falling back to a relative
// directory when the home directory cannot be resolved.
func defaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".bioscope"
	}
	return filepath.Join(configDir, "bioscope")
}

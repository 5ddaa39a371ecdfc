package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds the application configuration.
type Config struct {
	ServerPort       int           `yaml:"port"`
	DatabasePath     string        `yaml:"database_path"`
	JWTSecret        string        `yaml:"jwt_secret"`
	GeminiAPIKey     string        `yaml:"gemini_api_key"`
	GeminiModel      string        `yaml:"gemini_model"`
	GuideTimeout     time.Duration `yaml:"guide_timeout"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	LogLevel         string        `yaml:"log_level"`
	CountriesBaseURL string        `yaml:"countries_base_url"`
	HealthSchedule   string        `yaml:"health_schedule"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		ServerPort:       5000,
		DatabasePath:     "./grandline.db",
		GeminiModel:      "gemini-2.0-flash",
		GuideTimeout:     60 * time.Second,
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		LogLevel:         "info",
		CountriesBaseURL: "https://restcountries.com/v3.1",
		HealthSchedule:   "@every 5m",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if portStr := getEnv("PORT", ""); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		c.ServerPort = port
	}

	if timeoutStr := getEnv("GUIDE_TIMEOUT", ""); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid GUIDE_TIMEOUT %q: %w", timeoutStr, err)
		}
		c.GuideTimeout = timeout
	}

	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.CountriesBaseURL = getEnv("COUNTRIES_BASE_URL", c.CountriesBaseURL)
	c.HealthSchedule = getEnv("HEALTH_SCHEDULE", c.HealthSchedule)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

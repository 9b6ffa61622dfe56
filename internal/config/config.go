package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL = "http://localhost:8000"
	defaultWSURL      = "ws://localhost:8000/ws"
	defaultCity       = "长安"
	defaultRedisChan  = "city:events"
)

// Config holds the client-side settings for one session. All fields are
// optional; zero values fall back to the local development defaults.
type Config struct {
	APIBaseURL   string `yaml:"api_base_url"`
	WSURL        string `yaml:"ws_url"`
	RedisURL     string `yaml:"redis_url"`
	RedisChannel string `yaml:"redis_channel"`
	City         string `yaml:"city"`

	// RefreshSpec is an optional cron descriptor (e.g. "@every 30s") for
	// periodic overview refreshes. Empty disables the scheduler.
	RefreshSpec string `yaml:"refresh_spec"`
}

// Load reads the YAML config at path and applies environment overrides.
// A missing file is not an error when path was not set explicitly.
func Load(path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = "citydesk.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return Config{}, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CITYDESK_API_URL")); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CITYDESK_WS_URL")); v != "" {
		c.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CITYDESK_REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CITYDESK_CITY")); v != "" {
		c.City = v
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if strings.TrimSpace(c.WSURL) == "" {
		c.WSURL = defaultWSURL
	}
	if strings.TrimSpace(c.City) == "" {
		c.City = defaultCity
	}
	if strings.TrimSpace(c.RedisChannel) == "" {
		c.RedisChannel = defaultRedisChan
	}
}

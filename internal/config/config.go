// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"` // bearer token issued by the identity provider
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`       // attempts per request for retryable failures
	StrictFields bool          `yaml:"strict_fields"` // validate field configs client-side before commit
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // snapshot staleness window
}

type PollConfig struct {
	Interval         time.Duration `yaml:"interval"`
	StopWhenComplete *bool         `yaml:"stop_when_complete"` // unset means true
}

type WebConfig struct {
	Port int `yaml:"port"` // healthz/metrics listener
}

type ExportConfig struct {
	Dir   string `yaml:"dir"`
	Sheet string `yaml:"sheet"`
}

type Config struct {
	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
	Redis  RedisConfig  `yaml:"redis"`
	Poll   PollConfig   `yaml:"poll"`
	Web    WebConfig    `yaml:"web"`
	Export ExportConfig `yaml:"export"`

	Runtime RuntimeConfig `yaml:"-"`
}

func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.API.Retries <= 0 {
		cfg.API.Retries = 3
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 2 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 9090
	}
	if cfg.Export.Sheet == "" {
		cfg.Export.Sheet = "Results"
	}

	// Minimal validation
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// StopWhenCompleteValue resolves the tri-state yaml field; unset means true.
func (p PollConfig) StopWhenCompleteValue() bool {
	if p.StopWhenComplete == nil {
		return true
	}
	return *p.StopWhenComplete
}

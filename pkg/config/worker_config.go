// Package config provides configuration loading for the queue worker
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCandidatesQueue = "wfl:candidates"
	DefaultVerdictsQueue   = "wfl:verdicts"
	DefaultRedisAddr       = "localhost:6379"
	DefaultPollTimeout     = time.Second
)

// WorkerConfig represents the structure of the worker.yaml file
type WorkerConfig struct {
	Redis      RedisConfig      `yaml:"redis"`
	Queues     QueueConfig      `yaml:"queues"`
	Validation ValidationConfig `yaml:"validation"`
	// Concurrency is the number of parallel consumers.
	Concurrency int `yaml:"concurrency"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type QueueConfig struct {
	Candidates  string        `yaml:"candidates"`
	Verdicts    string        `yaml:"verdicts"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type ValidationConfig struct {
	StrictDates bool `yaml:"strict_dates"`
	SkipSchema  bool `yaml:"skip_schema"`
	CheckOnly   bool `yaml:"check_only"`
	Preview     int  `yaml:"preview"`
}

// LoadWorkerConfig loads worker configuration from a YAML file and fills defaults
func LoadWorkerConfig(filepath string) (WorkerConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return WorkerConfig{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var cfg WorkerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg.ApplyDefaults()

	return cfg, ValidateWorkerConfig(cfg)
}

// DefaultWorkerConfig is used when no file is given
func DefaultWorkerConfig() WorkerConfig {
	var cfg WorkerConfig

	cfg.ApplyDefaults()

	return cfg
}

func (c *WorkerConfig) ApplyDefaults() {
	if c.Redis.URL == "" && c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}

	if c.Queues.Candidates == "" {
		c.Queues.Candidates = DefaultCandidatesQueue
	}

	if c.Queues.Verdicts == "" {
		c.Queues.Verdicts = DefaultVerdictsQueue
	}

	if c.Queues.PollTimeout <= 0 {
		c.Queues.PollTimeout = DefaultPollTimeout
	}

	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
}

// ValidateWorkerConfig validates the worker configuration
func ValidateWorkerConfig(cfg WorkerConfig) error {
	if cfg.Queues.Candidates == cfg.Queues.Verdicts {
		return errors.New("candidates and verdicts queues must differ")
	}

	if cfg.Validation.Preview < 0 || cfg.Validation.Preview > 100 {
		return fmt.Errorf("preview must be between 0 and 100, got %d", cfg.Validation.Preview)
	}

	if cfg.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative, got %d", cfg.Redis.DB)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	DiscordToken  string `yaml:"discordToken"`
	DatabaseURL   string `yaml:"databaseURL"`
	LogLevel      string `yaml:"logLevel"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	CachePrefix   string `yaml:"cachePrefix"`
	AMQPURL       string `yaml:"amqpURL"`
	AuditExchange string `yaml:"auditExchange"`
	WordBatchSize int    `yaml:"wordBatchSize"`
	EventBuffer   int    `yaml:"eventBuffer"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.DiscordToken = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "shiritori"
	}
	if cfg.AuditExchange == "" {
		cfg.AuditExchange = "shiritori.turns"
	}
	if cfg.WordBatchSize <= 0 {
		cfg.WordBatchSize = 1000
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	return nil
}

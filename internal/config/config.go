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

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CronConfig struct {
	Secret            string        `yaml:"secret"`             // bearer credential for the cron endpoints
	RunTickers        bool          `yaml:"run_tickers"`        // also drive scheduler/worker from in-process tickers
	SchedulerInterval time.Duration `yaml:"scheduler_interval"` // ticker mode only
	WorkerInterval    time.Duration `yaml:"worker_interval"`    // ticker mode only
	WorkerBudget      time.Duration `yaml:"worker_budget"`      // wall-clock budget per worker pass
}

type GitHubConfig struct {
	BaseURL       string `yaml:"base_url"`
	DetailWorkers int    `yaml:"detail_workers"` // parallel per-commit detail fetches
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	Model           string `yaml:"model"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

type ImageConfig struct {
	GeminiKey string `yaml:"gemini_key"` // empty disables illustration
	Model     string `yaml:"model"`
	Dir       string `yaml:"dir"`      // where generated PNGs land
	BaseURL   string `yaml:"base_url"` // public prefix for stored images
}

type EmailConfig struct {
	ResendKey string `yaml:"resend_key"` // empty disables delivery
	From      string `yaml:"from"`
	BaseURL   string `yaml:"base_url"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type SecurityConfig struct {
	// EncryptionKey protects access tokens at rest (AES-128/192/256 by
	// length). Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key"`
}

type AdminConfig struct {
	APIKey        string        `yaml:"api_key"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cron     CronConfig     `yaml:"cron"`
	GitHub   GitHubConfig   `yaml:"github"`
	AI       AIConfig       `yaml:"ai"`
	Image    ImageConfig    `yaml:"image"`
	Email    EmailConfig    `yaml:"email"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Security SecurityConfig `yaml:"security"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Cron.SchedulerInterval <= 0 {
		cfg.Cron.SchedulerInterval = 15 * time.Minute
	}
	if cfg.Cron.WorkerInterval <= 0 {
		cfg.Cron.WorkerInterval = 2 * time.Minute
	}
	if cfg.Cron.WorkerBudget <= 0 {
		cfg.Cron.WorkerBudget = 4 * time.Minute
	}
	if cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = "https://api.github.com"
	}
	if cfg.GitHub.DetailWorkers <= 0 {
		cfg.GitHub.DetailWorkers = 4
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.MaxPromptTokens <= 0 {
		cfg.AI.MaxPromptTokens = 6000
	}
	if cfg.Image.Model == "" {
		cfg.Image.Model = "imagen-3.0-generate-002"
	}
	if cfg.Image.Dir == "" {
		cfg.Image.Dir = "artifacts"
	}
	if cfg.Email.BaseURL == "" {
		cfg.Email.BaseURL = "https://api.resend.com"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Cron.Secret == "" {
		return nil, errors.New("cron.secret is required")
	}
	if cfg.AI.OpenAIKey == "" && !dev {
		return nil, errors.New("ai.openai_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

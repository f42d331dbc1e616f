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

type ServerConfig struct {
	Port int `yaml:"port"`
	// BaseURL is the public origin used to build gateway callback and
	// redirect links, e.g. https://courses.example.com
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type IdentityConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AnalyticsConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

type MercadoPagoConfig struct {
	AccessToken string `yaml:"access_token"`
}

type WebpayConfig struct {
	CommerceCode string `yaml:"commerce_code"`
	APIKey       string `yaml:"api_key"`
	Sandbox      bool   `yaml:"sandbox"`
}

type PaymentConfig struct {
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
	Webpay      WebpayConfig      `yaml:"webpay"`
}

type OutboxConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Identity  IdentityConfig  `yaml:"identity"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Payment   PaymentConfig   `yaml:"payment"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Session   SessionConfig   `yaml:"session"`

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Outbox.Interval <= 0 {
		cfg.Outbox.Interval = time.Minute
	}
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 50
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

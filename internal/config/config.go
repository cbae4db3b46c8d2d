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

// Duration accepts human-readable values ("30m", "15s") as well as bare
// numbers, which are taken as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	MetricsPort int      `yaml:"metrics_port"`
	JWTSecret   string   `yaml:"jwt_secret"`
	SessionTTL  Duration `yaml:"session_ttl"`
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

type CardConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

type MobileMoneyConfig struct {
	BaseURL      string   `yaml:"base_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Country      string   `yaml:"country"`  // ISO alpha-2, e.g. "GA"
	Currency     string   `yaml:"currency"` // e.g. "XAF"
	Timeout      Duration `yaml:"timeout"`
	TokenMargin  Duration `yaml:"token_margin"` // subtracted from expires_in when caching
}

type ManualConfig struct {
	RecipientAccount string `yaml:"recipient_account"` // shown to payers for the transfer
}

type PaymentConfig struct {
	Card        CardConfig        `yaml:"card"`
	MobileMoney MobileMoneyConfig `yaml:"mobile_money"`
	Manual      ManualConfig      `yaml:"manual"`
}

type EntitlementConfig struct {
	Plan             string `yaml:"plan"`
	SubscriptionDays int    `yaml:"subscription_days"`
	BoostDays        int    `yaml:"boost_days"`
	Currency         string `yaml:"currency"`
}

type SchedulerConfig struct {
	ReconcileInterval Duration `yaml:"reconcile_interval"`
	StaleAfter        Duration `yaml:"stale_after"`
	ActivationRetry   Duration `yaml:"activation_retry"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Payment     PaymentConfig     `yaml:"payment"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`

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
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort <= 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = Duration(30 * time.Minute)
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Payment.MobileMoney.Timeout <= 0 {
		cfg.Payment.MobileMoney.Timeout = Duration(15 * time.Second)
	}
	if cfg.Payment.MobileMoney.TokenMargin <= 0 {
		cfg.Payment.MobileMoney.TokenMargin = Duration(time.Minute)
	}
	if cfg.Payment.MobileMoney.Country == "" {
		cfg.Payment.MobileMoney.Country = "GA"
	}
	if cfg.Payment.MobileMoney.Currency == "" {
		cfg.Payment.MobileMoney.Currency = "XAF"
	}
	if cfg.Entitlement.Plan == "" {
		cfg.Entitlement.Plan = "premium"
	}
	if cfg.Entitlement.SubscriptionDays <= 0 {
		cfg.Entitlement.SubscriptionDays = 30
	}
	if cfg.Entitlement.BoostDays <= 0 {
		cfg.Entitlement.BoostDays = 7
	}
	if cfg.Entitlement.Currency == "" {
		cfg.Entitlement.Currency = "XAF"
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = Duration(time.Minute)
	}
	if cfg.Scheduler.StaleAfter <= 0 {
		cfg.Scheduler.StaleAfter = Duration(10 * time.Minute)
	}
	if cfg.Scheduler.ActivationRetry <= 0 {
		cfg.Scheduler.ActivationRetry = Duration(time.Minute)
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, LogLevel string }
type DBCfg struct{ DSN string }

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type StripeCfg struct {
	SecretKey     string
	WebhookSecret string
	APIURL        string
}

type PaymentCfg struct {
	Currency        string
	ProviderTimeout time.Duration
}

type PollCfg struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
}

type Cfg struct {
	App          AppCfg
	StoreBackend string
	DB           DBCfg
	Redis        RedisCfg
	Stripe       StripeCfg
	Payment      PaymentCfg
	Poll         PollCfg
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "sandbox")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("PROVIDER_TIMEOUT", "20s")
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("POLL_TIMEOUT", "10m")
	v.SetDefault("POLL_MAX_ATTEMPTS", 0)
}

// Load reads .env (if present) and the process environment
func Load() (Cfg, error) {
	// Missing .env is fine; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Cfg, error) {
	cfg := Cfg{
		App: AppCfg{
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		StoreBackend: strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DB:           DBCfg{DSN: v.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Stripe: StripeCfg{
			SecretKey:     strings.TrimSpace(v.GetString("STRIPE_SECRET_KEY")),
			WebhookSecret: strings.TrimSpace(v.GetString("STRIPE_WEBHOOK_SECRET")),
			APIURL:        v.GetString("STRIPE_API_URL"),
		},
		Payment: PaymentCfg{
			Currency:        strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
			ProviderTimeout: v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Poll: PollCfg{
			Interval:    v.GetDuration("POLL_INTERVAL"),
			Timeout:     v.GetDuration("POLL_TIMEOUT"),
			MaxAttempts: v.GetInt("POLL_MAX_ATTEMPTS"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate fails fast on required settings
func (c Cfg) Validate() error {
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, redis or postgres, got %q", c.StoreBackend)
	}
	if c.Payment.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

// ClientCfg is what paycli needs; it does not require server secrets
type ClientCfg struct {
	BaseURL       string
	WebhookSecret string
	Poll          PollCfg
}

// LoadClient reads client-side settings with the same defaults as the server
func LoadClient() ClientCfg {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	v.SetDefault("PAYSYNC_URL", "http://localhost:"+v.GetString("APP_PORT"))

	return ClientCfg{
		BaseURL:       strings.TrimRight(v.GetString("PAYSYNC_URL"), "/"),
		WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Poll: PollCfg{
			Interval:    v.GetDuration("POLL_INTERVAL"),
			Timeout:     v.GetDuration("POLL_TIMEOUT"),
			MaxAttempts: v.GetInt("POLL_MAX_ATTEMPTS"),
		},
	}
}

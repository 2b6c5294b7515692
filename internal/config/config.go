package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"aprovacoes"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

// DSN – connection string in the format the gorm postgres driver expects
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s search_path=public",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode)
}

type Redis struct {
	Host     string        `env:"REDIS_HOST"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"POLICY_CACHE_TTL" envDefault:"10m"`
}

func (r Redis) Enabled() bool {
	return r.Host != ""
}

func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type Bot struct {
	Token  string `env:"VK_BOT_TOKEN"`
	APIURL string `env:"BOT_API_URL"`
}

type Kafka struct {
	Brokers        []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic          string        `env:"KAFKA_TOPIC" envDefault:"aprovacoes.transicoes"`
	PublishTimeout time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"5s"`
}

type Scheduler struct {
	Interval       time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	ReminderWindow time.Duration `env:"REMINDER_WINDOW" envDefault:"24h"`
}

type Config struct {
	Postgres  Postgres
	Redis     Redis
	Bot       Bot
	Kafka     Kafka
	Scheduler Scheduler

	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	ExecutorTimeout  time.Duration `env:"EXECUTOR_TIMEOUT" envDefault:"30s"`
	DomainInvokerURL string        `env:"DOMAIN_INVOKER_URL"`
	// ActionTypesFile – optional YAML catalog of action types, approvers and users applied at startup
	ActionTypesFile string `env:"ACTION_TYPES_FILE"`
	OpsAddr         string `env:"OPS_ADDR" envDefault:":9090"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load – reads .env (when present) and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)

	if cfg.Scheduler.Interval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", cfg.Scheduler.Interval)
	}
	if cfg.ExecutorTimeout <= 0 || cfg.NotifyTimeout <= 0 || cfg.Kafka.PublishTimeout <= 0 {
		return nil, errors.New("NOTIFY_TIMEOUT, EXECUTOR_TIMEOUT and KAFKA_PUBLISH_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// compact drops blanks left by a trailing or doubled separator
func compact(list []string) []string {
	var out []string
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

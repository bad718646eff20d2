// Package config предоставляет структуры и функции для загрузки конфигурации.
//
// Значения читаются из YAML-файла (CONFIG_PATH) и переменных окружения,
// переменные окружения имеют приоритет. Перед чтением подгружается файл
// .env.<APP_ENV>.local, если он существует.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ErrEmptySecret возвращается, если секрет подписи токенов не задан.
var ErrEmptySecret = errors.New("jwt secret key is empty")

// ErrBadSweepInterval возвращается, если включён планировщик с неположительным интервалом.
var ErrBadSweepInterval = errors.New("scheduler interval must be positive")

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DB_URI" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Admission               `yaml:"admission"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":5500"`
	TimeoutHTTP     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	UserTTL      time.Duration `yaml:"user_ttl" env:"REDIS_USER_TTL" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_EXPIRES_IN" env-default:"1h"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL    string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange       string `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"subscriptions"`
	ConnectRetries int    `yaml:"connect_retries" env:"RABBITMQ_CONNECT_RETRIES" env-default:"5"`
}

// Admission настройки фильтра входящих запросов.
type Admission struct {
	Refill            int           `yaml:"refill" env:"ADMISSION_REFILL" env-default:"5"`
	Interval          time.Duration `yaml:"interval" env:"ADMISSION_INTERVAL" env-default:"10s"`
	Capacity          int           `yaml:"capacity" env:"ADMISSION_CAPACITY" env-default:"10"`
	BlockedUserAgents []string      `yaml:"blocked_user_agents" env:"ADMISSION_BLOCKED_USER_AGENTS" env-separator:"," env-default:"scrapy,python-requests,headlesschrome,phantomjs,wget"`
	BlockedIPs        []string      `yaml:"blocked_ips" env:"ADMISSION_BLOCKED_IPS" env-separator:","`
	TrustedProxies    []string      `yaml:"trusted_proxies" env:"ADMISSION_TRUSTED_PROXIES" env-separator:","`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Scheduler настройки фоновой проверки сроков продления.
type Scheduler struct {
	SchedulerEnabled bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	SweepInterval    time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"12h"`
}

// Load читает конфигурацию и возвращает ошибку вместо завершения процесса.
func Load() (*Config, error) {
	const op = "config.Load"

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	if err := godotenv.Load(".env." + appEnv + ".local"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%s: file %s: %w", op, configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}
	if cfg.SchedulerEnabled && cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrBadSweepInterval)
	}
	return &cfg, nil
}

// MustLoad загружает конфигурацию и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"  UserTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  Exchange: %s\n"+
			"Admission:\n"+
			"  Capacity: %d\n"+
			"  Refill: %d per %s\n"+
			"Scheduler:\n"+
			"  Enabled: %t\n"+
			"  Interval: %s\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		c.UserTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		mask(c.RabbitMQURL),
		c.Exchange,
		c.Capacity,
		c.Refill,
		c.Interval,
		c.SchedulerEnabled,
		c.SweepInterval,
	)
}

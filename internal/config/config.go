package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Драйверы хранилища слотов
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Режимы аутентификации
const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

var (
	// ErrInvalidConfig возвращается при некорректной конфигурации
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Storage    StorageConfig    `toml:"storage"`
	Redis      RedisConfig      `toml:"redis"`
	RabbitMQ   RabbitMQConfig   `toml:"rabbitmq"`
	Auth       AuthConfig       `toml:"auth"`
	Notifier   NotifierConfig   `toml:"notifier"`
	Reconciler ReconcilerConfig `toml:"reconciler"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int      `toml:"http_port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	IdleTimeout     int      `toml:"idle_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	RequestTimeout  int      `toml:"request_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// DSN возвращает строку подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// StorageConfig выбор хранилища: postgres или memory
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// RedisConfig настройки Redis Pub/Sub для рассылки событий между инстансами
type RedisConfig struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	ChannelPrefix  string `toml:"channel_prefix"`
	RetryAttempts  int    `toml:"retry_attempts"`
	RetryInterval  int    `toml:"retry_interval"`
	ConnectTimeout int    `toml:"connect_timeout"`
}

// RabbitMQConfig настройки публикации событий бронирований
type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// AuthConfig настройки идентификации вызывающего
type AuthConfig struct {
	Mode      string `toml:"mode"`
	JWTSecret string `toml:"jwt_secret"`
}

// NotifierConfig настройки рассылки изменений слотов
type NotifierConfig struct {
	BufferSize       int `toml:"buffer_size"`
	HeartbeatSeconds int `toml:"heartbeat_seconds"`
}

// ReconcilerConfig настройки периодической сверки слотов и бронирований
type ReconcilerConfig struct {
	Enabled        bool   `toml:"enabled"`
	Schedule       string `toml:"schedule"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// Load загружает конфигурацию из TOML файла.
// Переменные из .env (если файл есть) и окружения переопределяют секреты.
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
			RequestTimeout:  10,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Redis: RedisConfig{
			URL:            "redis://localhost:6379/0",
			ChannelPrefix:  "parking:layout:",
			RetryAttempts:  3,
			RetryInterval:  5,
			ConnectTimeout: 30,
		},
		RabbitMQ: RabbitMQConfig{Exchange: "parking.bookings"},
		Auth:     AuthConfig{Mode: AuthModeJWT},
		Notifier: NotifierConfig{
			BufferSize:       64,
			HeartbeatSeconds: 15,
		},
		Reconciler: ReconcilerConfig{
			Schedule:       "@every 1m",
			TimeoutSeconds: 30,
		},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics", ServiceName: "smc_parking_service"},
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("%w: server.http_port must be positive", ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname are required for postgres storage", ErrInvalidConfig)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("%w: auth.jwt_secret is required in jwt mode", ErrInvalidConfig)
		}
	case AuthModeHeader:
	default:
		return fmt.Errorf("%w: unknown auth.mode %q", ErrInvalidConfig, c.Auth.Mode)
	}

	if c.Notifier.BufferSize <= 0 {
		return fmt.Errorf("%w: notifier.buffer_size must be positive", ErrInvalidConfig)
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("%w: redis.url is required when redis is enabled", ErrInvalidConfig)
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("%w: rabbitmq.url is required when rabbitmq is enabled", ErrInvalidConfig)
	}

	return nil
}

// applyEnv переопределяет секреты и адреса из переменных окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.RabbitMQ.URL = v
	}
}

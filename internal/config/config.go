// Package config предоставляет структуры и функции для загрузки конфигурации сервиса
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config общая структура для хранения настроек
type Config struct {
	Env               string          `yaml:"env" env:"ENV" env-default:"local"`
	GRPCHealthAddress string          `yaml:"grpc_health_address" env:"GRPC_HEALTH_ADDRESS"`
	Storage           Storage         `yaml:"storage"`
	HTTPServer        HTTPServer      `yaml:"http_server"`
	RedisConnection   RedisConnection `yaml:"redis_connection"`
	RabbitMQ          RabbitMQ        `yaml:"rabbitmq"`
	JWTToken          JWTToken        `yaml:"jwttoken"`
	Cache             Cache           `yaml:"cache"`
	SMTP              SMTP            `yaml:"smtp"`
}

// Storage настройки хранилища. Для MongoDB транзакции требуют replica set.
type Storage struct {
	Driver         string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo"`
	MongoURI       string `yaml:"mongo_uri" env:"MONGODB_URI"`
	MongoDatabase  string `yaml:"mongo_database" env:"MONGODB_DATABASE" env-default:"student_records"`
	PostgresDSN    string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":5000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// AuthRateLimit: допустимое число запросов в минуту на /auth/register и /auth/login с одного IP.
	AuthRateLimit int `yaml:"auth_rate_limit" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis. Пустой адрес отключает кэш.
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"students"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	SecretKey      string        `yaml:"secret_key" env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"JWT_EXPIRE" env-default:"168h"`
	Issuer         string        `yaml:"issuer" env-default:"student-records"`
	RevokeOnLogout bool          `yaml:"revoke_on_logout"`
}

// Cache настройки кэширования.
type Cache struct {
	StatsTTL time.Duration `yaml:"stats_ttl" env-default:"1m"`
}

// SMTP настройки почтового сервера для рассыльщика уведомлений.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	// From: адрес отправителя; по умолчанию совпадает с User.
	From string `yaml:"from" env:"SMTP_FROM"`
}

// Load читает конфиг из файла path; переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.JWTToken.SecretKey == "" {
		return errors.New("jwttoken.secret_key is required")
	}
	if c.JWTToken.TokenTTL <= 0 {
		return errors.New("jwttoken.token_ttl must be positive")
	}
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("storage.mongo_uri is required for mongo driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// String выводит конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  MongoDatabase: %s\n"+
			"  MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  AuthRateLimit: %d\n"+
			"GRPCHealthAddress: %s\n"+
			"Redis: %s (db %d)\n"+
			"RabbitMQ exchange: %s (enabled: %t)\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"  Issuer: %s\n"+
			"  RevokeOnLogout: %t\n"+
			"Cache:\n"+
			"  StatsTTL: %s\n"+
			"SMTP: %s:%s\n",
		c.Env,
		c.Storage.Driver,
		c.Storage.MongoDatabase,
		c.Storage.MigrationsPath,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.HTTPServer.IdleTimeout,
		c.HTTPServer.AuthRateLimit,
		c.GRPCHealthAddress,
		c.RedisConnection.Address,
		c.RedisConnection.DB,
		c.RabbitMQ.Exchange,
		c.RabbitMQ.URL != "",
		c.JWTToken.TokenTTL,
		c.JWTToken.Issuer,
		c.JWTToken.RevokeOnLogout,
		c.Cache.StatsTTL,
		c.SMTP.Host,
		c.SMTP.Port,
	)
}

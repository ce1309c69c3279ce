// Package config reads service settings from environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/sirupsen/logrus"
)

// Customer store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Upload storage drivers
const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

type HTTPCfg struct {
	Port            int           `env:"HTTP_PORT" envDefault:"3000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type PostgresCfg struct {
	User           string        `env:"POSTGRES_USER" envDefault:"intake"`
	Password       string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Host           string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port           int           `env:"POSTGRES_PORT" envDefault:"5432"`
	Database       string        `env:"POSTGRES_DB" envDefault:"intake"`
	SslMode        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PoolMaxConn    int           `env:"POSTGRES_POOL_MAX_CONN" envDefault:"20"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"5s"`
}

// DSN builds connection string accepted both by pgxpool and goose, pool size is applied separately
func (c PostgresCfg) DSN() string {
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userInfo(c.User, c.Password), c.Host, c.Port, c.Database, c.SslMode,
	)
}

type MongoCfg struct {
	User           string        `env:"MONGO_USER" envDefault:"intake"`
	Password       string        `env:"MONGO_PASSWORD" envDefault:""`
	Host           string        `env:"MONGO_HOST" envDefault:"localhost"`
	Port           int           `env:"MONGO_PORT" envDefault:"27017"`
	Database       string        `env:"MONGO_DB" envDefault:"intake"`
	MaxPoolSize    int           `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"5s"`
}

func (c MongoCfg) URI() string {
	return fmt.Sprintf(
		"mongodb://%s@%s:%d/?maxPoolSize=%d",
		userInfo(c.User, c.Password), c.Host, c.Port, c.MaxPoolSize,
	)
}

// RedisCfg is optional, if address is empty tokens are kept in memory and customers are not cached
type RedisCfg struct {
	Addr           string        `env:"REDIS_ADDR" envDefault:""`
	Password       string        `env:"REDIS_PASSWORD" envDefault:""`
	DB             int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL       time.Duration `env:"REDIS_CUSTOMER_CACHE_TTL" envDefault:"10m"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"3s"`
}

func (c RedisCfg) Enabled() bool {
	return c.Addr != ""
}

type StorageCfg struct {
	Driver         string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalDir       string `env:"STORAGE_LOCAL_DIR" envDefault:"uploads"`
	MinioEndpoint  string `env:"STORAGE_MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioAccessKey string `env:"STORAGE_MINIO_ACCESS_KEY" envDefault:""`
	MinioSecretKey string `env:"STORAGE_MINIO_SECRET_KEY" envDefault:""`
	MinioBucket    string `env:"STORAGE_MINIO_BUCKET" envDefault:"customer-images"`
	MinioUseSSL    bool   `env:"STORAGE_MINIO_USE_SSL" envDefault:"false"`
}

type SessionCfg struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"intake_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	TimeToLive   time.Duration `env:"SESSION_TIME_TO_LIVE" envDefault:"2h"`
}

type LogCfg struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type Config struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	HTTPCfg     HTTPCfg
	PostgresCfg PostgresCfg
	MongoCfg    MongoCfg
	RedisCfg    RedisCfg
	StorageCfg  StorageCfg
	SessionCfg  SessionCfg
	LogCfg      LogCfg
}

func userInfo(user, password string) string {
	if password == "" {
		return url.User(user).String()
	}
	return url.UserPassword(user, password).String()
}

func Build() (Config, error) {
	var cfg Config
	opts := env.Options{RequiredIfNoDef: true}

	if err := env.Parse(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to parse environment variables - %w", err)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return cfg, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	switch cfg.StorageCfg.Driver {
	case StorageDriverLocal, StorageDriverMinio:
	default:
		return cfg, fmt.Errorf("unknown storage driver %q", cfg.StorageCfg.Driver)
	}

	if _, err := logrus.ParseLevel(cfg.LogCfg.Level); err != nil {
		return cfg, fmt.Errorf("invalid log level - %w", err)
	}

	return cfg, nil
}

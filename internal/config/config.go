package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	Redis  RedisConfig
	Minio  MinioConfig
	Batch  BatchConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinioConfig holds object storage settings.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// BatchConfig holds invoice batch pipeline settings.
type BatchConfig struct {
	Workers           int `mapstructure:"workers"`
	RenderTimeoutSecs int `mapstructure:"render_timeout_secs"`
	RetentionDays     int `mapstructure:"retention_days"`
}

// RenderTimeout returns the per-invoice render timeout as a duration.
func (b *BatchConfig) RenderTimeout() time.Duration {
	return time.Duration(b.RenderTimeoutSecs) * time.Second
}

// Load reads configuration from environment variables with the INVOICEKIT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoicekit")
	v.SetDefault("db.password", "invoicekit_secret")
	v.SetDefault("db.name", "invoicekit_db")
	v.SetDefault("db.sslmode", "disable")

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "invoicekit")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Minio defaults
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "invoicekit-batches")

	// Batch defaults
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.render_timeout_secs", 30)
	v.SetDefault("batch.retention_days", 90)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "INVOICEKIT_SERVER_PORT",
		"server.read_timeout":       "INVOICEKIT_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "INVOICEKIT_SERVER_WRITE_TIMEOUT",
		"server.environment":        "INVOICEKIT_SERVER_ENVIRONMENT",
		"db.host":                   "INVOICEKIT_DB_HOST",
		"db.port":                   "INVOICEKIT_DB_PORT",
		"db.user":                   "INVOICEKIT_DB_USER",
		"db.password":               "INVOICEKIT_DB_PASSWORD",
		"db.name":                   "INVOICEKIT_DB_NAME",
		"db.sslmode":                "INVOICEKIT_DB_SSLMODE",
		"jwt.secret":                "INVOICEKIT_JWT_SECRET",
		"jwt.issuer":                "INVOICEKIT_JWT_ISSUER",
		"redis.addr":                "INVOICEKIT_REDIS_ADDR",
		"redis.password":            "INVOICEKIT_REDIS_PASSWORD",
		"redis.db":                  "INVOICEKIT_REDIS_DB",
		"minio.endpoint":            "INVOICEKIT_MINIO_ENDPOINT",
		"minio.access_key":          "INVOICEKIT_MINIO_ACCESS_KEY",
		"minio.secret_key":          "INVOICEKIT_MINIO_SECRET_KEY",
		"minio.use_ssl":             "INVOICEKIT_MINIO_USE_SSL",
		"minio.bucket":              "INVOICEKIT_MINIO_BUCKET",
		"batch.workers":             "INVOICEKIT_BATCH_WORKERS",
		"batch.render_timeout_secs": "INVOICEKIT_BATCH_RENDER_TIMEOUT_SECS",
		"batch.retention_days":      "INVOICEKIT_BATCH_RETENTION_DAYS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEKIT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEKIT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.Redis = RedisConfig{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
	cfg.Minio = MinioConfig{
		Endpoint:  v.GetString("minio.endpoint"),
		AccessKey: v.GetString("minio.access_key"),
		SecretKey: v.GetString("minio.secret_key"),
		UseSSL:    v.GetBool("minio.use_ssl"),
		Bucket:    v.GetString("minio.bucket"),
	}
	cfg.Batch = BatchConfig{
		Workers:           v.GetInt("batch.workers"),
		RenderTimeoutSecs: v.GetInt("batch.render_timeout_secs"),
		RetentionDays:     v.GetInt("batch.retention_days"),
	}

	return cfg, nil
}

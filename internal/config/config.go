package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	AppPort string
	AppEnv  string

	DBDriver         string // postgres | sqlite
	DatabaseDSN      string
	DBConnectRetries int

	TokenTTL       time.Duration // 0 disables expiry
	TokenRateLimit float64
	TokenRateBurst int

	StorageDriver string // local | s3
	MediaRoot     string
	MediaURL      string
	S3            S3Config

	RabbitMQURL string

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string
}

// S3Config holds object storage settings for recipe images.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

const devDatabaseDSN = "host=127.0.0.1 user=postgres password=postgres dbname=recipebox port=5432 sslmode=disable"

// Load reads configuration from an optional .env file, the environment and defaults.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_CONNECT_RETRIES", 10)
	v.SetDefault("TOKEN_TTL", "0s")
	v.SetDefault("TOKEN_RATE_LIMIT", 5.0)
	v.SetDefault("TOKEN_RATE_BURST", 10)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_URL", "/media")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:          v.GetString("APP_PORT"),
		AppEnv:           v.GetString("APP_ENV"),
		DBDriver:         normalizeDriver(v.GetString("DB_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		DBConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		TokenRateLimit:   v.GetFloat64("TOKEN_RATE_LIMIT"),
		TokenRateBurst:   v.GetInt("TOKEN_RATE_BURST"),
		StorageDriver:    normalizeDriver(v.GetString("STORAGE_DRIVER")),
		MediaRoot:        v.GetString("MEDIA_ROOT"),
		MediaURL:         v.GetString("MEDIA_URL"),
		S3: S3Config{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			Region:    v.GetString("S3_REGION"),
			Bucket:    v.GetString("S3_BUCKET"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
		},
		RabbitMQURL:   v.GetString("RABBITMQ_URL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}

	if cfg.DatabaseDSN == "" && cfg.AppEnv != "production" {
		cfg.DatabaseDSN = devDatabaseDSN
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalizeDriver makes driver names case-insensitive; later code compares lowercase values.
func normalizeDriver(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must be set in production")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative")
	}
	return nil
}

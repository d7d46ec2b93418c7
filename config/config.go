package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config is the runtime configuration. Values come from an optional YAML
// file, then SITEBOOK_* environment variables (a .env file is loaded first).
type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	DB struct {
		DSN          string
		MaxOpenConns int `mapstructure:"max_open_conns"`
	} `mapstructure:"db"`

	Log LogConfig `mapstructure:"log"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Blob BlobConfig `mapstructure:"blob"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Telegram struct {
		Token  string
		ChatID int64 `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Notify struct {
		FeedSize int `mapstructure:"feed_size"`
	} `mapstructure:"notify"`
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

type BlobConfig struct {
	Driver          string // gcs | local
	Bucket          string
	CredentialsFile string `mapstructure:"credentials_file"`
	Dir             string
	BaseURL         string `mapstructure:"base_url"`
	MaxFiles        int    `mapstructure:"max_files"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "Asia/Bangkok")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("blob.driver", "local")
	v.SetDefault("blob.dir", "./uploads")
	v.SetDefault("blob.base_url", "/uploads")
	v.SetDefault("blob.max_files", 5)
	v.SetDefault("notify.feed_size", 50)
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment apply.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SITEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"db.dsn", "auth.jwt_secret", "telegram.token", "telegram.chat_id", "blob.bucket", "blob.credentials_file", "log.file"} {
		_ = v.BindEnv(key)
	}

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		// A missing file leaves defaults and environment in charge.
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if c.DB.DSN == "" {
		return c, errors.New("db.dsn is required (SITEBOOK_DB_DSN)")
	}
	return c, nil
}

// Location resolves App.Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Connect opens the Postgres pool and runs migrations.
func Connect(c Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(c.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(c.DB.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := Migrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/search"
	pkgconfig "github.com/Skotchmaster/freshcart/pkg/config"
	"github.com/Skotchmaster/freshcart/pkg/db"
)

type Config struct {
	Port     string
	LogLevel string

	DBDriver     string
	DatabaseURL  string
	PGDriverName string
	AutoMigrate  bool

	JWTSecret []byte
	TokenTTL  time.Duration

	OtpTTL          time.Duration
	OtpResendLimit  int
	OtpResendPeriod time.Duration
	WhatsappEnabled bool

	KafkaBrokers []string
	NotifyTopic  string

	SMTP notify.SMTPConfig

	ES      search.Config
	ESIndex string

	CORSOrigins []string
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: .env not loaded (%v), using process environment", err)
	}

	cfg := &Config{
		Port:     pkgconfig.EnvDefault("SERVER_PORT", "8080"),
		LogLevel: pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:     pkgconfig.EnvDefault("DB_DRIVER", db.DriverPostgres),
		DatabaseURL:  pkgconfig.EnvDefault("DATABASE_URL", ""),
		PGDriverName: pkgconfig.EnvDefault("PG_DRIVER_NAME", "pgx"),
		AutoMigrate:  pkgconfig.EnvBoolDefault("AUTO_MIGRATE", true),

		JWTSecret: []byte(pkgconfig.EnvDefault("JWT_SECRET", "")),
		TokenTTL:  pkgconfig.EnvDurationDefault("TOKEN_TTL", 7*24*time.Hour),

		OtpTTL:          pkgconfig.EnvDurationDefault("OTP_TTL", 10*time.Minute),
		OtpResendLimit:  pkgconfig.EnvIntDefault("OTP_RESEND_LIMIT", 3),
		OtpResendPeriod: pkgconfig.EnvDurationDefault("OTP_RESEND_PERIOD", 10*time.Minute),
		WhatsappEnabled: pkgconfig.EnvBoolDefault("WHATSAPP_ENABLED", true),

		KafkaBrokers: pkgconfig.CSV(pkgconfig.EnvDefault("KAFKA_BROKERS", "")),
		NotifyTopic:  pkgconfig.EnvDefault("NOTIFY_TOPIC", mykafka.TopicNotifications),

		SMTP: notify.SMTPConfig{
			Host:     pkgconfig.EnvDefault("SMTP_HOST", ""),
			Port:     pkgconfig.EnvIntDefault("SMTP_PORT", 587),
			Username: pkgconfig.EnvDefault("SMTP_USERNAME", ""),
			Password: pkgconfig.EnvDefault("SMTP_PASSWORD", ""),
			From:     pkgconfig.EnvDefault("SMTP_FROM", ""),
		},

		ES: search.Config{
			URL:      pkgconfig.EnvDefault("ES_URL", ""),
			User:     pkgconfig.EnvDefault("ES_USER", ""),
			Password: pkgconfig.EnvDefault("ES_PASSWORD", ""),
		},
		ESIndex: pkgconfig.EnvDefault("ES_INDEX", search.DefaultIndex),

		CORSOrigins: pkgconfig.CSV(pkgconfig.EnvDefault("CORS_ORIGINS", "*")),
	}

	pkgconfig.MustNonEmpty(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   string(cfg.JWTSecret),
	})
	return cfg
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

// InitDB opens the configured store and, unless disabled, migrates the schema.
func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseURL,
		PGDriverName: cfg.PGDriverName,
		LogLevel:     gormLogLevel(cfg.LogLevel),
	})
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := models.AutoMigrate(gdb); err != nil {
			_ = db.Close(gdb)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return gdb, nil
}

package app

import (
	"fmt"
	"strings"
	"time"
	// Zone names resolve even on images without system tzdata.
	_ "time/tzdata"

	"github.com/yungbote/payledger/internal/data/db"
	"github.com/yungbote/payledger/internal/modules/payments/intake"
	"github.com/yungbote/payledger/internal/observability"
	"github.com/yungbote/payledger/internal/platform/envutil"
	"github.com/yungbote/payledger/internal/platform/logger"
	"github.com/yungbote/payledger/internal/realtime/bus"
)

const defaultTimezone = "America/Argentina/Buenos_Aires"

type Config struct {
	Port    string
	LogMode string

	DBDriver   string
	Postgres   db.PostgresConfig
	SQLitePath string

	// Location reads day-first timestamps that carry no zone.
	Location             *time.Location
	DefaultOCRConfidence float64

	RedisAddr    string
	RedisChannel string

	MetricsEnabled bool
	MetricsAddr    string
	Tracing        observability.TracingConfig

	CORSOrigins     []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) (Config, error) {
	tzName := envutil.String("PAYMENTS_TIMEZONE", defaultTimezone, log)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("PAYMENTS_TIMEZONE %q: %w", tzName, err)
	}

	driver := strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres, log))
	if driver != db.DriverPostgres && driver != db.DriverSQLite {
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, driver)
	}

	return Config{
		Port:     envutil.String("PORT", "8080", log),
		LogMode:  envutil.String("LOG_MODE", "development", nil),
		DBDriver: driver,
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost", log),
			Port:     envutil.String("POSTGRES_PORT", "5432", log),
			User:     envutil.String("POSTGRES_USER", "postgres", log),
			Password: envutil.String("POSTGRES_PASSWORD", "", nil),
			Name:     envutil.String("POSTGRES_NAME", "payledger", log),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			Pool: db.PoolConfig{
				MaxOpenConns:    envutil.Int("DB_MAX_OPEN_CONNS", 20),
				MaxIdleConns:    envutil.Int("DB_MAX_IDLE_CONNS", 10),
				ConnMaxLifetime: envutil.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			},
		},
		SQLitePath:           envutil.String("SQLITE_PATH", "payledger.db", log),
		Location:             loc,
		DefaultOCRConfidence: envutil.Float("PAYMENTS_DEFAULT_OCR_CONFIDENCE", intake.DefaultOCRConfidence),
		RedisAddr:            envutil.String("REDIS_ADDR", "", log),
		RedisChannel:         envutil.String("REDIS_CHANNEL", bus.DefaultChannel, log),
		MetricsEnabled:       observability.Enabled(),
		MetricsAddr:          envutil.String("METRICS_ADDR", ":9090", log),
		Tracing:              observability.TracingConfigFromEnv(log),
		CORSOrigins:          envutil.List("CORS_ALLOWED_ORIGINS", nil),
		RequestTimeout:       envutil.Duration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:      envutil.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

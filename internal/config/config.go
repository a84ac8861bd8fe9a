package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBDSN             string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime time.Duration

	SongDataDir string
	LogDataDir  string

	LogLevel  string
	LogFormat string

	PushgatewayURL string
	MetricsJob     string

	TracingEnabled  bool
	TracingEndpoint string
	TracingProtocol string

	// ConfirmReset allows destructive schema resets without an interactive flag.
	ConfirmReset bool
}

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

var ErrInvalidDialect = errors.New("invalid_database_type")

// Module provides Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads configuration from .env, an optional sparkify.yml and SPARKIFY_* environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("sparkify")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/sparkify")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPARKIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sparkify")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("database.type", DialectPostgres)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "sparkifydb")
	v.SetDefault("database.user", "student")
	v.SetDefault("database.password", "student")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conn", 2)
	v.SetDefault("database.max_open_conn", 4)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("data.song_dir", "data/song_data")
	v.SetDefault("data.log_dir", "data/log_data")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "sparkify_etl")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.protocol", "grpc")

	v.SetDefault("reset.confirm", false)
}

func fromViper(v *viper.Viper) (Config, error) {
	dialect, err := NormalizeDialect(v.GetString("database.type"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           strings.TrimSpace(v.GetString("app.name")),
		AppVersion:        strings.TrimSpace(v.GetString("app.version")),
		Environment:       strings.TrimSpace(v.GetString("app.environment")),
		DBType:            dialect,
		DBHost:            strings.TrimSpace(v.GetString("database.host")),
		DBPort:            strings.TrimSpace(v.GetString("database.port")),
		DBName:            strings.TrimSpace(v.GetString("database.name")),
		DBUser:            v.GetString("database.user"),
		DBPassword:        v.GetString("database.password"),
		DBSSLMode:         strings.TrimSpace(v.GetString("database.sslmode")),
		DBDSN:             strings.TrimSpace(v.GetString("database.dsn")),
		DBMaxIdleConn:     v.GetInt("database.max_idle_conn"),
		DBMaxOpenConn:     v.GetInt("database.max_open_conn"),
		DBConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		SongDataDir:       strings.TrimSpace(v.GetString("data.song_dir")),
		LogDataDir:        strings.TrimSpace(v.GetString("data.log_dir")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(v.GetString("log.format"))),
		PushgatewayURL:    strings.TrimSpace(v.GetString("metrics.pushgateway_url")),
		MetricsJob:        strings.TrimSpace(v.GetString("metrics.job")),
		TracingEnabled:    v.GetBool("tracing.enabled"),
		TracingEndpoint:   strings.TrimSpace(v.GetString("tracing.endpoint")),
		TracingProtocol:   strings.ToLower(strings.TrimSpace(v.GetString("tracing.protocol"))),
		ConfirmReset:      v.GetBool("reset.confirm"),
	}

	return cfg, nil
}

// NormalizeDialect maps accepted database type aliases to a dialect name.
func NormalizeDialect(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case DialectPostgres, "postgresql", "pg":
		return DialectPostgres, nil
	case DialectMySQL:
		return DialectMySQL, nil
	case DialectSQLite, "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDialect, raw)
	}
}

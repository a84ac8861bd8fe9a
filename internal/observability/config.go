package observability

import (
	"strings"

	"github.com/smallbiznis/sparkify/internal/config"
)

// Config holds observability settings derived from the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	PushgatewayURL string
	MetricsJob     string

	TracingEnabled  bool
	TracingEndpoint string
	TracingProtocol string
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "sparkify"
	}
	return Config{
		ServiceName:     serviceName,
		Environment:     cfg.Environment,
		Version:         cfg.AppVersion,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		PushgatewayURL:  cfg.PushgatewayURL,
		MetricsJob:      cfg.MetricsJob,
		TracingEnabled:  cfg.TracingEnabled,
		TracingEndpoint: cfg.TracingEndpoint,
		TracingProtocol: cfg.TracingProtocol,
	}
}

func (c Config) Debug() bool {
	return strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug")
}

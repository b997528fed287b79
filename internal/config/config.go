package config

import (
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
)

// DBAuthMode selects how database connections authenticate.
type DBAuthMode string

const (
	// AuthPassword uses the static password from configuration.
	AuthPassword DBAuthMode = "password"
	// AuthAAD fetches Azure AD access tokens and uses them as the password.
	AuthAAD DBAuthMode = "aad"
)

// Config holds the application configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" env-default:"todo-api"`
	ServerPort  string `env:"SERVER_PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`

	// Database settings
	DatabaseHost     string     `env:"DATABASE_HOST" env-default:"localhost"`
	DatabasePort     int        `env:"DATABASE_PORT" env-default:"5432"`
	DatabaseUser     string     `env:"DATABASE_USER" env-default:"todo_user"`
	DatabasePassword string     `env:"DATABASE_PASSWORD" env-default:"todo_pass"`
	DatabaseName     string     `env:"DATABASE_NAME" env-default:"todo_db"`
	DatabaseURL      string     `env:"DATABASE_URL"`
	DBAuthMode       DBAuthMode `env:"DB_AUTH_MODE" env-default:"password"`

	// Azure Managed Identity settings (for AAD auth)
	AzureClientID string `env:"AZURE_CLIENT_ID"`

	// OpenTelemetry settings. An empty endpoint disables exporting;
	// tracing still runs on a local no-exporter provider.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.DBAuthMode != AuthPassword && cfg.DBAuthMode != AuthAAD {
		return nil, fmt.Errorf("invalid DB_AUTH_MODE %q: must be %q or %q", cfg.DBAuthMode, AuthPassword, AuthAAD)
	}
	return &cfg, nil
}

// DSN returns the Postgres connection string. DATABASE_URL wins when set.
// In AAD mode no password is embedded; it is injected per connection.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.DatabaseHost, c.DatabasePort),
		Path:   "/" + c.DatabaseName,
	}
	if c.DBAuthMode == AuthAAD {
		u.User = url.User(c.DatabaseUser)
		u.RawQuery = "sslmode=require"
	} else {
		u.User = url.UserPassword(c.DatabaseUser, c.DatabasePassword)
	}
	return u.String()
}

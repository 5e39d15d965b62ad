package config

import (
	"github.com/caarlos0/env/v11"

	"theme-ads/internal/config/configs"
)

// Config aggregates all configuration sections for the service. Fields are
// populated from environment variables using the caarlos0/env library. The
// nested structs are tagged with envPrefix so their fields are parsed with
// the given prefix. See the individual types in the configs package for
// default values and options. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the HTTP server, from HTTP_* variables.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger, from LOG_* variables.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection, from PSQL_* variables.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Engine configures the slot engine, from ENGINE_* variables.
	Engine configs.Engine `envPrefix:"ENGINE_"`
}

// Load reads configuration from environment variables into a Config. If
// parsing fails, an error is returned. All fields are loaded with their
// specified defaults when no environment variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

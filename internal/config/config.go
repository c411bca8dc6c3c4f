package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Port     string `env:"PORT" envDefault:"3000"`
	GRPCPort string `env:"GRPC_PORT" envDefault:"50051"`

	// DBDriver is memory, sqlite or postgres.
	DBDriver    string `env:"DB_DRIVER" envDefault:"memory"`
	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"dev.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`

	NATSURL     string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"draft.events"`
	// NATSStoreDir keeps embedded JetStream data on disk when set.
	NATSStoreDir string `env:"NATS_STORE_DIR"`

	ClickHouse ClickHouseConfig `envPrefix:"CLICKHOUSE_"`
	Authentik  AuthentikConfig  `envPrefix:"AUTHENTIK_"`

	AdminPassword      string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	DraftRounds        int           `env:"DRAFT_ROUNDS" envDefault:"5"`
	RatingSyncInterval time.Duration `env:"RATING_SYNC_INTERVAL" envDefault:"5m"`
}

type ClickHouseConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:9000"`
	Database string `env:"DB" envDefault:"default"`
	User     string `env:"USER" envDefault:"default"`
	Password string `env:"PASSWORD"`
}

type AuthentikConfig struct {
	BaseURL      string `env:"BASE_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL" envDefault:"http://localhost:3000/auth/callback"`
	Slug         string `env:"SLUG" envDefault:"psl-draft"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	return loadFrom(env.ToMap(os.Environ()))
}

func loadFrom(environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether local stand-ins (embedded NATS, mock auth,
// mock rating feed) should be used.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" && !c.IsDevelopment() {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q (valid: memory, sqlite, postgres)", c.DBDriver))
	}

	if c.DraftRounds <= 0 {
		errs = append(errs, fmt.Errorf("DRAFT_ROUNDS must be positive, got %d", c.DraftRounds))
	}
	if c.RatingSyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("RATING_SYNC_INTERVAL must be positive, got %s", c.RatingSyncInterval))
	}

	if !c.IsDevelopment() {
		a := c.Authentik
		if a.BaseURL == "" || a.ClientID == "" || a.ClientSecret == "" {
			errs = append(errs, errors.New("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID and AUTHENTIK_CLIENT_SECRET are required outside development"))
		}
	}

	return errors.Join(errs...)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Addr           string   `toml:"addr" validate:"required"`
		AllowedOrigins []string `toml:"allowed_origins"`
		// TrustedProxies lists IPs or CIDRs allowed to set forwarding headers.
		TrustedProxies []string `toml:"trusted_proxies" validate:"dive,cidr|ip"`
	} `toml:"server"`

	Database struct {
		DSN         string `toml:"dsn" validate:"required"`
		AutoMigrate bool   `toml:"auto_migrate"`
		Seed        bool   `toml:"seed"`
	} `toml:"database"`

	Auth struct {
		Enabled   bool   `toml:"enabled"`
		JWTSecret string `toml:"jwt_secret" validate:"required_if=Enabled true"`
	} `toml:"auth"`

	Elastic struct {
		Enabled bool   `toml:"enabled"`
		URL     string `toml:"url" validate:"required_if=Enabled true"`
	} `toml:"elastic"`

	Notify struct {
		Driver   string `toml:"driver" validate:"oneof=log nats redis"`
		NATSURL  string `toml:"nats_url" validate:"required_if=Driver nats"`
		Subject  string `toml:"subject"`
		RedisURL string `toml:"redis_url" validate:"required_if=Driver redis"`
		Stream   string `toml:"stream"`
	} `toml:"notify"`

	Workers struct {
		OutboxInterval Duration `toml:"outbox_interval"`
		OutboxBatch    int      `toml:"outbox_batch" validate:"min=1"`
		DLQInterval    Duration `toml:"dlq_interval"`
		DLQBatch       int      `toml:"dlq_batch" validate:"min=1"`
	} `toml:"workers"`

	Assignment struct {
		EnrolledOnly bool    `toml:"enrolled_only"`
		RandomSeed   *uint64 `toml:"random_seed"`
	} `toml:"assignment"`
}

// Duration reads TOML strings such as "1s" or "500ms".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	c.Database.DSN = "file:hackathon.db?_busy_timeout=5000"
	c.Database.AutoMigrate = true
	c.Notify.Driver = "log"
	c.Workers.OutboxInterval = Duration{time.Second}
	c.Workers.OutboxBatch = 200
	c.Workers.DLQInterval = Duration{30 * time.Second}
	c.Workers.DLQBatch = 50
	return &c
}

// Load reads path over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info.Printf("config file %s not found, using defaults and env", path)
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Debug.Printf("Loaded config: addr=%s notify=%s elastic=%t auth=%t",
		cfg.Server.Addr, cfg.Notify.Driver, cfg.Elastic.Enabled, cfg.Auth.Enabled)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set("SERVER_ADDR", &cfg.Server.Addr)
	set("POSTGRES_DSN", &cfg.Database.DSN)
	set("NOTIFY_DRIVER", &cfg.Notify.Driver)
	set("NATS_URL", &cfg.Notify.NATSURL)
	set("REDIS_URL", &cfg.Notify.RedisURL)

	if v := os.Getenv("ELASTIC_URL"); v != "" {
		cfg.Elastic.URL = v
		cfg.Elastic.Enabled = true
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("ASSIGNMENT_RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ASSIGNMENT_RANDOM_SEED: %w", err)
		}
		cfg.Assignment.RandomSeed = &seed
	}
	return nil
}

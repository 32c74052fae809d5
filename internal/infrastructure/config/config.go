package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// Store selects the persistence backend: memory, mongo, postgres or mysql.
	Store string `env:"STORE, default=memory"`

	Token TokenConfig
	Sales SalesConfig
	Mongo MongoConfig
	SQL   SQLConfig
	Redis RedisConfig
}

type TokenConfig struct {
	// Format is "opaque" (random hex key) or "jwt" (HS256 signed key).
	Format string `env:"TOKEN_FORMAT, default=opaque"`
	Secret string `env:"TOKEN_SECRET"`
	// TTL of zero keeps tokens valid until logout.
	TTL time.Duration `env:"TOKEN_TTL, default=0s"`
}

type SalesConfig struct {
	EnforceProductLines  bool `env:"SALES_ENFORCE_PRODUCT_LINES,  default=false"`
	EnforceDiscountRange bool `env:"SALES_ENFORCE_DISCOUNT_RANGE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sales"`
}

type SQLConfig struct {
	DSN          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS, default=10"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE,   default=true"`
}

type RedisConfig struct {
	// Addr enables the token cache and login lock when set.
	Addr     string        `env:"REDIS_ADDR"`
	DB       int           `env:"REDIS_DB,        default=0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL, default=10m"`
	LockTTL  time.Duration `env:"REDIS_LOCK_TTL,  default=5s"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves the configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreMongo:
	case StorePostgres, StoreMySQL:
		if c.SQL.DSN == "" {
			return fmt.Errorf("config: DATABASE_URL is required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}

	switch c.Token.Format {
	case "opaque":
	case "jwt":
		if c.Token.Secret == "" {
			return errors.New("config: TOKEN_SECRET is required when TOKEN_FORMAT=jwt")
		}
	default:
		return fmt.Errorf("config: unknown TOKEN_FORMAT %q", c.Token.Format)
	}

	if c.Token.TTL < 0 {
		return errors.New("config: TOKEN_TTL must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

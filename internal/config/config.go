package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"quorum-lending/internal/domain/platform"
	"quorum-lending/pkg/principal"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`

	MySQLHost string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB   string `env:"MYSQL_DB" envDefault:"lending"`
	MySQLUser string `env:"MYSQL_USER" envDefault:"lending"`
	MySQLPass string `env:"MYSQL_PASS" envDefault:"lending"`

	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"quorum-lending.db"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	IdempTTLSecs int `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	// Platform bootstrap; only used when the settings row does not exist yet.
	OwnerPrincipal   string `env:"OWNER_PRINCIPAL"`
	VotingPeriodSecs int64  `env:"VOTING_PERIOD_SECONDS" envDefault:"259200"`
	RequiredVotes    uint64 `env:"REQUIRED_VOTES" envDefault:"3"`

	PoolPrincipal string `env:"POOL_PRINCIPAL" envDefault:"00000000000000000000000000000001"`
	PoolAsset     string `env:"POOL_ASSET" envDefault:"QLT"`

	EventChannelPrefix string `env:"EVENT_CHANNEL_PREFIX" envDefault:"lending"`
	OutboxIntervalSecs int    `env:"OUTBOX_INTERVAL_SECONDS" envDefault:"2"`
	OutboxBatchSize    int    `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if !principal.Valid(c.OwnerPrincipal) {
		return errors.New("OWNER_PRINCIPAL must be 32-char lowercase hex")
	}
	if !principal.Valid(c.PoolPrincipal) {
		return errors.New("POOL_PRINCIPAL must be 32-char lowercase hex")
	}
	if c.PoolAsset == "" {
		return errors.New("missing POOL_ASSET")
	}
	if err := platform.ValidateVotingPeriod(c.VotingPeriod()); err != nil {
		return fmt.Errorf("VOTING_PERIOD_SECONDS: %w", err)
	}
	if err := platform.ValidateThreshold(c.RequiredVotes); err != nil {
		return fmt.Errorf("REQUIRED_VOTES: %w", err)
	}
	return nil
}

func (c *Config) VotingPeriod() time.Duration {
	return time.Duration(c.VotingPeriodSecs) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) OutboxInterval() time.Duration {
	if c.OutboxIntervalSecs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.OutboxIntervalSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// Package config loads the application configuration from a yaml file with
// environment overrides, and builds the database connections the stores run
// on (pgx pool, sql.DB or sqlx.DB, whichever the caller prefers).
package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultMaxOpenConnections = 50
	defaultMaxIdleConnections = 10
	defaultMaxConnLifetime    = time.Hour
	defaultMaxConnIdleTime    = time.Minute * 5
)

// Config is the application configuration.
type Config struct {
	Env   string      `yaml:"env" env:"ENV" env-default:"local"`
	DB    DBConfig    `yaml:"db"`
	Stats StatsConfig `yaml:"stats"`
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"ewm"`
	User     string `yaml:"user" env:"DB_USER" env-default:"ewm"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"ewm"`
	SSLMode  string `yaml:"sslMode" env:"DB_SSLMODE" env-default:"disable"`
}

// StatsConfig holds the visit aggregator client settings.
type StatsConfig struct {
	BaseURL string        `yaml:"baseUrl" env:"STATS_BASE_URL" env-default:"http://localhost:9090"`
	Timeout time.Duration `yaml:"timeout" env:"STATS_TIMEOUT" env-default:"5s"`
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv builds the configuration from environment variables alone.
func LoadFromEnv() (Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading config from environment: %w", err)
	}

	return cfg, nil
}

// DSN renders the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// NewPGXPool creates a configured pgx pool and verifies the connection.
func NewPGXPool(ctx context.Context, c DBConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening pgx pool: %w", err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("pinging database: %w", pingErr)
	}

	return pool, nil
}

// NewSQLDB creates a configured sql.DB and verifies the connection.
func NewSQLDB(ctx context.Context, c DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	tunePool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("pinging database: %w", pingErr)
	}

	return db, nil
}

// NewSQLX creates a configured sqlx.DB and verifies the connection.
func NewSQLX(ctx context.Context, c DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	tunePool(db.DB)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("pinging database: %w", pingErr)
	}

	return db, nil
}

func tunePool(db *sql.DB) {
	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

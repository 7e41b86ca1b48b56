package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// LoadConfig reads .env (if present) and then the YAML config. An empty path
// falls back to $CONFIG_PATH and then config.yaml.
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	return config.LoadConfig(path)
}

// OpenStore connects the configured backend and applies the schema when asked to.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	var store repository.Store
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store = repository.NewPGStore(pool)
	case config.DriverMySQL:
		db, err := repository.OpenMySQL(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		store = repository.NewMySQLStore(db)
	case config.DriverMemory:
		log.Printf("using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Printf("%s schema applied", cfg.Driver)
	}
	return store, nil
}

package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"authfort-cli/internal/domain"
	"authfort-cli/internal/repository/filestore"
	"authfort-cli/internal/repository/sqlstore"
	"authfort-cli/internal/security"
)

// NewSQLConnection opens a connection pool for the given token store kind
func NewSQLConnection(kind, dsn string) (*sql.DB, error) {
	driver := "postgres"
	if kind == StoreSQLite {
		driver = "sqlite"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	if kind == StoreSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewTokenRepository opens the token repository selected by cfg.
// The returned close function releases any database resources.
func NewTokenRepository(ctx context.Context, cfg *Config) (domain.TokenRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenStore {
	case StoreFile:
		var sealer filestore.Sealer
		if cfg.StorePassphrase != "" {
			s, err := security.NewSealer(cfg.StorePassphrase)
			if err != nil {
				return nil, noop, err
			}
			sealer = s
		}
		return filestore.NewTokenRepository(cfg.TokenPath, sealer), noop, nil

	case StoreSQLite, StorePostgres:
		db, err := NewSQLConnection(cfg.TokenStore, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to %s token store: %w", cfg.TokenStore, err)
		}
		repo, err := sqlstore.NewTokenRepository(ctx, db, sqlstore.DefaultTokenName)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return repo, func() error {
			repo.Close()
			return db.Close()
		}, nil
	}

	return nil, noop, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}

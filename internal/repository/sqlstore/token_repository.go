// Package sqlstore keeps bearer tokens in a SQL table. The statements are
// portable between PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authfort-cli/internal/domain"
)

// DefaultTokenName is the key the token is stored under
const DefaultTokenName = "token"

const schema = `
		CREATE TABLE IF NOT EXISTS client_tokens (
			name       TEXT PRIMARY KEY,
			token      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`

type TokenRepository struct {
	db         *sql.DB
	name       string
	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewTokenRepository ensures the table exists and prepares statements.
// name selects the row, so several clients can share one database.
func NewTokenRepository(ctx context.Context, db *sql.DB, name string) (*TokenRepository, error) {
	if name == "" {
		name = DefaultTokenName
	}
	repo := &TokenRepository{db: db, name: name}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create client_tokens table: %w", err)
	}

	var err error
	repo.getStmt, err = db.PrepareContext(ctx, `SELECT token FROM client_tokens WHERE name = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare get statement: %w", err)
	}

	repo.upsertStmt, err = db.PrepareContext(ctx, `
		INSERT INTO client_tokens (name, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	repo.deleteStmt, err = db.PrepareContext(ctx, `DELETE FROM client_tokens WHERE name = $1`)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return repo, nil
}

func (r *TokenRepository) Get(ctx context.Context) (string, error) {
	var token string
	err := r.getStmt.QueryRowContext(ctx, r.name).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

func (r *TokenRepository) Set(ctx context.Context, token string) error {
	if token == "" {
		return r.Remove(ctx)
	}
	if _, err := r.upsertStmt.ExecContext(ctx, r.name, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Remove(ctx context.Context) error {
	if _, err := r.deleteStmt.ExecContext(ctx, r.name); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close releases the prepared statements
func (r *TokenRepository) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{r.getStmt, r.upsertStmt, r.deleteStmt} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	return errors.Join(errs...)
}

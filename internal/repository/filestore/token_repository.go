// Package filestore keeps the bearer token in a YAML file under the user's home.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"authfort-cli/internal/domain"
)

// Sealer encrypts the token before it touches disk
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type credentialsFile struct {
	Token  string `yaml:"token"`
	Sealed bool   `yaml:"sealed,omitempty"`
}

type TokenRepository struct {
	path   string
	sealer Sealer
}

// NewTokenRepository creates a file-backed token repository.
// sealer may be nil, in which case the token is stored as-is.
func NewTokenRepository(path string, sealer Sealer) *TokenRepository {
	return &TokenRepository{path: path, sealer: sealer}
}

func (r *TokenRepository) Get(ctx context.Context) (string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentialsFile
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if creds.Token == "" {
		return "", domain.ErrTokenNotFound
	}

	if !creds.Sealed {
		return creds.Token, nil
	}
	if r.sealer == nil {
		return "", fmt.Errorf("credentials file is sealed but no passphrase is configured")
	}
	token, err := r.sealer.Open(creds.Token)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}
	return token, nil
}

func (r *TokenRepository) Set(ctx context.Context, token string) error {
	if token == "" {
		return r.Remove(ctx)
	}

	creds := credentialsFile{Token: token}
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
		creds = credentialsFile{Token: sealed, Sealed: true}
	}

	data, err := yaml.Marshal(&creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

func (r *TokenRepository) Remove(ctx context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

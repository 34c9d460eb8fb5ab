// Package credentials persists provider secrets in the database so the
// worker can pick up an LLM API key without a process restart.
package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ProviderLLM = "llm"
)

// Executor is the slice of pgx a Store needs.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type Store struct {
	db Executor
}

func NewStore(db Executor) *Store {
	return &Store{db: db}
}

// LLMAPIKey returns the stored LLM API key, or "" when none is configured.
func (s *Store) LLMAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderLLM)
}

// Token returns the stored token for a provider, or "" when absent.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.db.QueryRow(ctx, `
SELECT token FROM integration_tokens WHERE provider = $1;
`, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetLLMAPIKey stores or replaces the LLM API key.
func (s *Store) SetLLMAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("llm api key is required")
	}
	return s.upsert(ctx, ProviderLLM, key)
}

func (s *Store) upsert(ctx context.Context, provider, token string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO integration_tokens (provider, token, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (provider) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW();
`, provider, token)
	return err
}

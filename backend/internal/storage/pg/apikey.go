package pg

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// HasAccess evaluates has_access(): 0 authorized, 1 forbidden, 2 invalid key.
func (s *Storage) HasAccess(ctx context.Context, keyHash []byte, scope string) (int, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var code int
	if err := s.db.QueryRowContext(ctx, "SELECT has_access($1, $2)", keyHash, scope).Scan(&code); err != nil {
		return 0, fmt.Errorf("failed to check api key: %w", err)
	}
	return code, nil
}

func (s *Storage) SaveAPIKey(ctx context.Context, keyHash []byte, scopes []string) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO api_keys(key_hash, scopes) VALUES ($1, $2)
        ON CONFLICT (key_hash) DO UPDATE SET scopes = EXCLUDED.scopes, revoked = FALSE`,
		keyHash, pq.Array(scopes),
	)
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

func (s *Storage) RevokeAPIKey(ctx context.Context, keyHash []byte) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked = TRUE WHERE key_hash = $1", keyHash)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return requireRows(result, "API key")
}

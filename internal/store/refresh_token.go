package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// Usable reports whether the token can still be exchanged at now.
func (rt *RefreshToken) Usable(now time.Time) bool {
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
		id, userID, tokenHash, expiresAt,
	)
	return id, wrap("create refresh token", err)
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	rt := &RefreshToken{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked, replaced_by, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedBy, &rt.CreatedAt)
	if err != nil {
		return nil, wrap("refresh token by hash", err)
	}
	return rt, nil
}

// RotateRefreshToken revokes oldID and inserts its replacement in one
// transaction. A token that was already revoked is not rotated again, so a
// replayed token loses the race with ErrNotFound.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error) {
	newID := uuid.New().String()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1,$2,$3,$4)`,
			newID, userID, newHash, newExpiry,
		); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = true, replaced_by = $1
			 WHERE id = $2 AND revoked = false`,
			newID, oldID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return "", wrap("rotate refresh token", err)
	}
	return newID, nil
}

// RevokeAllRefreshTokens runs on logout and when a revoked token is replayed.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`,
		userID,
	)
	return wrap("revoke refresh tokens", err)
}

// PruneRefreshTokens deletes tokens that expired before cutoff.
func (s *Store) PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, wrap("prune refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoshop/storefront/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Save(ctx context.Context, session models.AuthSession) error {
	const query = `
		INSERT INTO auth_sessions (
			id, user_id, refresh_token_hash, created_at, last_seen_at, expires_at
		) VALUES (
			$1, $2, $3, NOW(), NOW(), $4
		)
		ON CONFLICT (id)
		DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			last_seen_at = NOW(),
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.ExpiresAt,
	)
	return err
}

func (r *SessionRepository) FindByRefreshHash(ctx context.Context, userID string, refreshHash []byte) (models.AuthSession, error) {
	const query = `
		SELECT id, user_id, refresh_token_hash, created_at, last_seen_at, expires_at
		FROM auth_sessions
		WHERE user_id = $1 AND refresh_token_hash = $2
	`

	row := r.pool.QueryRow(ctx, query, userID, refreshHash)
	var session models.AuthSession
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuthSession{}, ErrSessionNotFound
		}
		return models.AuthSession{}, err
	}
	return session, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM auth_sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoshop/storefront/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, profile models.Profile) error {
	const query = `
		INSERT INTO profiles (
			id, email, password_hash, role, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
	)
	return err
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (models.Profile, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM profiles WHERE email = $1
	`

	row := r.pool.QueryRow(ctx, query, email)
	var profile models.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (models.Profile, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM profiles WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var profile models.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

// RoleByID is the per-identity role lookup the session manager hydrates
// with. Callers treat any failure as the default "user" role.
func (r *ProfileRepository) RoleByID(ctx context.Context, id string) (models.Role, error) {
	const query = `SELECT role FROM profiles WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	var role models.Role
	if err := row.Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return role, nil
}

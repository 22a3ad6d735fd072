package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Nombres de constraints del schema (migrations/postgres).
const (
	constraintIdentity = "app_user_platform_identity_key"
	constraintUsername = "app_user_platform_username_key"
)

func (s *Store) FindUserByPlatformID(ctx context.Context, platform core.Platform, platformUserID string) (*core.User, error) {
	const q = `
SELECT id, platform, platform_user_id, username, is_admin, created_at, last_login
FROM app_user
WHERE platform=$1 AND platform_user_id=$2
LIMIT 1`
	var u core.User
	err := s.pool.QueryRow(ctx, q, platform, platformUserID).Scan(
		&u.ID, &u.Platform, &u.PlatformUserID, &u.Username, &u.IsAdmin, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	const q = `
INSERT INTO app_user (id, platform, platform_user_id, username, is_admin, created_at, last_login)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.pool.Exec(ctx, q, u.ID, u.Platform, u.PlatformUserID, u.Username, u.IsAdmin, u.CreatedAt, u.LastLogin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if strings.Contains(pgErr.ConstraintName, "username") {
				return core.ErrDuplicateUsername
			}
			if pgErr.ConstraintName == constraintIdentity || strings.Contains(pgErr.ConstraintName, "identity") {
				return core.ErrDuplicateIdentity
			}
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE app_user SET last_login=$2 WHERE id=$1`, userID, at)
	return err
}

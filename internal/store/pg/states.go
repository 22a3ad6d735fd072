package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

func (s *Store) InsertOAuthState(ctx context.Context, st *core.OAuthState) error {
	const q = `INSERT INTO oauth_state (state, platform, expires_at) VALUES ($1,$2,$3)`
	_, err := s.pool.Exec(ctx, q, st.State, st.Platform, st.ExpiresAt)
	return err
}

// ConsumeOAuthState: DELETE ... RETURNING hace el check-and-delete en una
// sola sentencia, así un callback replay nunca valida dos veces.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string, platform core.Platform, now time.Time) (*core.OAuthState, error) {
	const q = `
DELETE FROM oauth_state
WHERE state=$1 AND platform=$2
RETURNING state, platform, expires_at`
	var st core.OAuthState
	err := s.pool.QueryRow(ctx, q, state, platform).Scan(&st.State, &st.Platform, &st.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if !st.ExpiresAt.After(now) {
		return nil, core.ErrExpired
	}
	return &st, nil
}

func (s *Store) SweepExpiredStates(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM oauth_state WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

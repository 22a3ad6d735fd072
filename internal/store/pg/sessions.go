package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

// ReplaceSessionsForUser hace delete-then-insert en una transacción:
// la semántica relacional serializa logins concurrentes del mismo user
// (last write wins, a lo sumo una fila sobrevive).
func (s *Store) ReplaceSessionsForUser(ctx context.Context, sess *core.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM session WHERE user_id=$1`, sess.UserID); err != nil {
		return err
	}
	const q = `
INSERT INTO session (token_hash, user_id, platform, platform_user_id, platform_session_id,
                     username, is_admin, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	if _, err := tx.Exec(ctx, q,
		sess.TokenHash, sess.UserID, sess.Platform, sess.PlatformUserID, sess.PlatformSessionID,
		sess.Username, sess.IsAdmin, sess.CreatedAt, sess.ExpiresAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*core.Session, error) {
	const q = `
SELECT token_hash, user_id, platform, platform_user_id, platform_session_id,
       username, is_admin, created_at, expires_at
FROM session
WHERE token_hash=$1 AND expires_at > $2
LIMIT 1`
	var sess core.Session
	err := s.pool.QueryRow(ctx, q, tokenHash, now).Scan(
		&sess.TokenHash, &sess.UserID, &sess.Platform, &sess.PlatformUserID, &sess.PlatformSessionID,
		&sess.Username, &sess.IsAdmin, &sess.CreatedAt, &sess.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session WHERE token_hash=$1`, tokenHash)
	return err
}

func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session WHERE user_id=$1`, userID)
	return err
}

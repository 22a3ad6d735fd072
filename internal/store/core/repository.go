package core

import (
	"context"
	"time"
)

// Repository es el contrato de persistencia que consume el core de auth.
// Las implementaciones viven en store/pg (durable) y store/memory (dev/tests).
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// ------- Users -------

	// FindUserByPlatformID busca por (platform, platform_user_id).
	// Retorna ErrNotFound si no existe.
	FindUserByPlatformID(ctx context.Context, platform Platform, platformUserID string) (*User, error)

	// CreateUser inserta un user nuevo. Colisiones de unicidad retornan
	// ErrDuplicateIdentity o ErrDuplicateUsername según el constraint.
	CreateUser(ctx context.Context, u *User) error

	// TouchLastLogin actualiza last_login.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// ------- Sessions -------

	// ReplaceSessionsForUser borra las sesiones previas del user e inserta
	// s, como unidad lógica (last-login-wins).
	ReplaceSessionsForUser(ctx context.Context, s *Session) error

	// FindActiveSession busca por hash de token, filtrando expiradas:
	// una fila vencida es indistinguible de una ausente (ErrNotFound).
	FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*Session, error)

	// DeleteSession es idempotente.
	DeleteSession(ctx context.Context, tokenHash string) error

	DeleteSessionsForUser(ctx context.Context, userID string) error

	// ------- OAuth state -------

	InsertOAuthState(ctx context.Context, st *OAuthState) error

	// ConsumeOAuthState hace check-and-delete atómico. Un state repetido
	// nunca valida dos veces. Retorna ErrNotFound si no existe y
	// ErrExpired si existía pero ya venció (también lo borra).
	ConsumeOAuthState(ctx context.Context, state string, platform Platform, now time.Time) (*OAuthState, error)

	// SweepExpiredStates borra states vencidos y retorna cuántos.
	SweepExpiredStates(ctx context.Context, now time.Time) (int, error)
}

// CharacterFinder es el colaborador externo que resuelve el character de un
// user para GET /v2/auth/me. La implementación real vive en el módulo plaza.
type CharacterFinder interface {
	FindCharacterByUserID(ctx context.Context, userID string) (*Character, error)
}

// Package session emite, valida y revoca los bearer tokens propios de la
// aplicación. Una sesión por user: cada login nuevo reemplaza la anterior.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/plazita/internal/observability/logger"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// DefaultTTL es la vida de una sesión, fija al crearla (no sliding).
const DefaultTTL = 7 * 24 * time.Hour

// Spec describe la sesión a crear.
type Spec struct {
	UserID         string
	Platform       core.Platform
	PlatformUserID string
	// PlatformSessionID es el token nativo del provider, cuando soporta
	// re-validación posterior (legacy-session, itch).
	PlatformSessionID string
	Username          string
	IsAdmin           bool
}

type Manager struct {
	store core.Repository
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store core.Repository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Create genera un token opaco nuevo y lo persiste, borrando antes
// cualquier sesión previa del user (una sesión activa por user, last
// login wins). Retorna el token crudo; en DB solo queda su hash.
func (m *Manager) Create(ctx context.Context, spec Spec) (string, error) {
	raw, err := tokens.GenerateToken()
	if err != nil {
		return "", err
	}
	now := m.now()
	sess := &core.Session{
		TokenHash:         tokens.SHA256Hex(raw),
		UserID:            spec.UserID,
		Platform:          spec.Platform,
		PlatformUserID:    spec.PlatformUserID,
		PlatformSessionID: spec.PlatformSessionID,
		Username:          spec.Username,
		IsAdmin:           spec.IsAdmin,
		CreatedAt:         now,
		ExpiresAt:         now.Add(m.ttl),
	}
	if err := m.store.ReplaceSessionsForUser(ctx, sess); err != nil {
		return "", err
	}
	logger.From(ctx).Info("session issued",
		logger.UserID(spec.UserID),
		logger.Platform(spec.Platform.String()),
	)
	return raw, nil
}

// Validate busca la sesión del token. Input vacío retorna nil sin tocar
// storage; una fila vencida es idéntica a una ausente.
func (m *Manager) Validate(ctx context.Context, raw string) (*core.Session, error) {
	if raw == "" {
		return nil, nil
	}
	sess, err := m.store.FindActiveSession(ctx, tokens.SHA256Hex(raw), m.now())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// Delete revoca la sesión. Idempotente: borrar una inexistente no es error.
func (m *Manager) Delete(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, tokens.SHA256Hex(raw))
}

// SetNowForTests reemplaza el reloj del manager.
func (m *Manager) SetNowForTests(now func() time.Time) { m.now = now }

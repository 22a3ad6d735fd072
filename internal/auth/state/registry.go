package state

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Registry emite y consume states contra el Repository, scoped por
// plataforma. Single-use: ValidateAndConsume borra el registro al validar.
type Registry struct {
	store core.Repository
	ttl   time.Duration

	// now es inyectable para tests de expiración.
	now func() time.Time
}

func NewRegistry(store core.Repository, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Registry{store: store, ttl: ttl, now: time.Now}
}

// Issue genera un state nuevo para platform y lo registra. Si pollID no es
// vacío queda embebido en el valor para que el callback lo recupere sin
// otra ida y vuelta.
func (r *Registry) Issue(ctx context.Context, platform core.Platform, pollID string) (string, time.Time, error) {
	nonce, err := tokens.GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	st := Payload{Nonce: nonce, PollID: pollID}.Encode()
	expiresAt := r.now().Add(r.ttl)

	if err := r.store.InsertOAuthState(ctx, &core.OAuthState{
		State:     st,
		Platform:  platform,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, err
	}
	return st, expiresAt, nil
}

// ValidateAndConsume valida y quema un state. Retorna auth.ErrInvalidState
// (KindInvalidState) tanto para ausente/consumido como para vencido; el
// detalle queda en la causa para logs.
func (r *Registry) ValidateAndConsume(ctx context.Context, st string, platform core.Platform) error {
	if st == "" {
		return auth.ErrInvalidState(platform, nil)
	}
	_, err := r.store.ConsumeOAuthState(ctx, st, platform, r.now())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrExpired) {
			return auth.ErrInvalidState(platform, err)
		}
		return err
	}
	return nil
}

// SweepExpired borra states vencidos nunca consumidos.
func (r *Registry) SweepExpired(ctx context.Context) (int, error) {
	n, err := r.store.SweepExpiredStates(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Named("state").Debug("swept expired states", logger.Count(n))
	}
	return n, nil
}

// SetNowForTests reemplaza el reloj del registry.
func (r *Registry) SetNowForTests(now func() time.Time) { r.now = now }

// Package identity mapea identidades externas verificadas a users locales,
// creándolos al primer login (find-or-create).
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

type Resolver struct {
	store core.Repository
	now   func() time.Time
}

func NewResolver(store core.Repository) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve busca el user por (platform, externalID); si existe actualiza
// last_login y lo retorna tal cual: el username local es sticky, el drift
// del provider no se sincroniza. Si no existe lo crea.
//
// Dos callbacks simultáneos para la misma identidad pueden chocar en el
// insert; ese duplicate se recupera re-buscando (retry idempotente), nunca
// se le muestra un error a un login legítimo. Una colisión de username de
// otra identidad sí propaga KindUsernameTaken.
func (r *Resolver) Resolve(ctx context.Context, platform core.Platform, externalID, username string) (*core.User, error) {
	u, err := r.store.FindUserByPlatformID(ctx, platform, externalID)
	if err == nil {
		return r.touch(ctx, u)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	now := r.now()
	nu := &core.User{
		ID:             uuid.NewString(),
		Platform:       platform,
		PlatformUserID: externalID,
		Username:       username,
		IsAdmin:        false,
		CreatedAt:      now,
		LastLogin:      now,
	}
	err = r.store.CreateUser(ctx, nu)
	if err == nil {
		logger.From(ctx).Info("user created",
			logger.UserID(nu.ID),
			logger.Platform(platform.String()),
			logger.Username(username),
		)
		return nu, nil
	}

	switch {
	case errors.Is(err, core.ErrDuplicateIdentity):
		// Carrera: otro callback insertó la misma identidad primero.
		// Proceder como si la hubiéramos encontrado de entrada.
		u, err2 := r.store.FindUserByPlatformID(ctx, platform, externalID)
		if err2 != nil {
			return nil, auth.E(auth.KindAccountExists, platform, "account already exists", err2)
		}
		return r.touch(ctx, u)
	case errors.Is(err, core.ErrDuplicateUsername):
		return nil, auth.E(auth.KindUsernameTaken, platform, "username already taken", err)
	default:
		return nil, err
	}
}

func (r *Resolver) touch(ctx context.Context, u *core.User) (*core.User, error) {
	now := r.now()
	if err := r.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = now
	return u, nil
}

// SetNowForTests reemplaza el reloj del resolver.
func (r *Resolver) SetNowForTests(now func() time.Time) { r.now = now }

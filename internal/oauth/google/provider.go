// Package google implementa el login con Google vía OIDC authorization-code.
// El id_token se verifica localmente contra las JWKS de Google; nunca se
// confía en el access_token para identidad.
package google

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/config"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

type Provider struct {
	cfg  config.GoogleProvider
	deps oauth.Deps

	// OIDC es exportado para que los tests apunten DiscoveryURL a un
	// servidor local.
	OIDC *OIDC
}

func New(cfg config.GoogleProvider, deps oauth.Deps) *Provider {
	return &Provider{
		cfg:  cfg,
		deps: deps,
		OIDC: NewOIDC(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.Scopes),
	}
}

func (p *Provider) Platform() core.Platform { return core.PlatformGoogle }

// RequiresRelay: el callback de Google vuelve por redirect a nuestro
// backend, misma ventana, no hace falta relay.
func (p *Provider) RequiresRelay() bool { return false }

func (p *Provider) GenerateAuthURL(ctx context.Context, pollID string) (*oauth.AuthRequest, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformGoogle, missing)
	}
	st, expiresAt, err := p.deps.States.Issue(ctx, core.PlatformGoogle, pollID)
	if err != nil {
		return nil, err
	}
	// El state hace de nonce también: single-use y server-tracked, liga el
	// id_token a este intento de login.
	u, err := p.OIDC.AuthURL(ctx, st, st)
	if err != nil {
		return nil, p.classify(err)
	}
	return &oauth.AuthRequest{AuthURL: u, State: st, ExpiresAt: expiresAt}, nil
}

// Authenticate consume el state ANTES de cualquier llamada a Google: un
// state quemado no gasta ni un intercambio.
func (p *Provider) Authenticate(ctx context.Context, code, st string) (*oauth.LoginResult, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformGoogle, missing)
	}
	if err := p.deps.States.ValidateAndConsume(ctx, st, core.PlatformGoogle); err != nil {
		return nil, err
	}

	tok, err := p.OIDC.ExchangeCode(ctx, code)
	if err != nil {
		return nil, p.classify(err)
	}
	claims, err := p.OIDC.VerifyIDToken(ctx, tok.IDToken, st)
	if err != nil {
		return nil, p.classify(err)
	}

	username := claims.Name
	if username == "" {
		// Sin display name: la parte local del email.
		username = claims.Email
		if i := strings.IndexByte(username, '@'); i > 0 {
			username = username[:i]
		}
	}

	user, err := p.deps.Identity.Resolve(ctx, core.PlatformGoogle, claims.Sub, username)
	if err != nil {
		return nil, err
	}
	sid, err := p.deps.Sessions.Create(ctx, session.Spec{
		UserID:         user.ID,
		Platform:       core.PlatformGoogle,
		PlatformUserID: user.PlatformUserID,
		Username:       user.Username,
		IsAdmin:        user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("google login ok", logger.UserID(user.ID), logger.Username(user.Username))
	return &oauth.LoginResult{SessionID: sid, User: user}, nil
}

// ValidateSession: Google no soporta re-validación posterior (no guardamos
// token nativo); la sesión local es la autoridad.
func (p *Provider) ValidateSession(ctx context.Context, sess *core.Session) (*core.User, error) {
	u, err := p.deps.Store.FindUserByPlatformID(ctx, core.PlatformGoogle, sess.PlatformUserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.E(auth.KindUserNotFound, core.PlatformGoogle, "session user not found", err)
		}
		return nil, err
	}
	return u, nil
}

// classify mapea errores del cliente OIDC a la taxonomía.
func (p *Provider) classify(err error) error {
	var te *transportError
	if errors.As(err, &te) {
		return auth.ErrNetwork(core.PlatformGoogle, err)
	}
	var se *statusError
	if errors.As(err, &se) {
		if se.status == 400 || se.status == 401 {
			return auth.ErrInvalidToken(core.PlatformGoogle, err)
		}
		return auth.E(auth.KindAuth, core.PlatformGoogle, "provider error", err)
	}
	// Verificación local fallida (firma, iss, aud, nonce, exp).
	return auth.ErrInvalidToken(core.PlatformGoogle, err)
}

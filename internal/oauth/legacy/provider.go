// Package legacy autentica contra el servicio de sesiones histórico de la
// plaza: el cliente ya tiene un session-token de ese servicio y nosotros lo
// confirmamos server-to-server. No hay redirect OAuth real, por lo tanto
// tampoco state server-side ni relay.
package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/config"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

type Provider struct {
	cfg  config.LegacyProvider
	deps oauth.Deps
	http *http.Client
}

func New(cfg config.LegacyProvider, deps oauth.Deps) *Provider {
	return &Provider{
		cfg:  cfg,
		deps: deps,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Provider) Platform() core.Platform { return core.PlatformLegacy }

func (p *Provider) RequiresRelay() bool { return false }

// GenerateAuthURL: no hay flujo de autorización, solo la página de login
// del servicio legacy. Sin state: el session-token mismo es la credencial.
func (p *Provider) GenerateAuthURL(ctx context.Context, _ string) (*oauth.AuthRequest, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformLegacy, missing)
	}
	return &oauth.AuthRequest{AuthURL: p.cfg.LoginURL}, nil
}

// verifyResponse es lo que responde el servicio legacy al confirmar un token.
type verifyResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// verify confirma el session-token contra el servicio legacy. Retorna
// (nil, status, nil) cuando el servicio lo rechazó explícitamente.
func (p *Provider) verify(ctx context.Context, sessionToken string) (*verifyResponse, int, error) {
	body, _ := json.Marshal(map[string]string{"session_id": sessionToken})
	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, 0, auth.ErrNetwork(core.PlatformLegacy, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil, resp.StatusCode, nil
	default:
		return nil, resp.StatusCode, auth.ErrNetwork(core.PlatformLegacy,
			fmt.Errorf("legacy verify http %d", resp.StatusCode))
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("legacy: decode verify: %w", err)
	}
	if !vr.Valid || vr.UserID == "" {
		return nil, http.StatusUnauthorized, nil
	}
	return &vr, resp.StatusCode, nil
}

// Authenticate confirma el session-token legacy y emite una sesión propia.
// El parámetro state se ignora: este provider no lo trackea.
func (p *Provider) Authenticate(ctx context.Context, sessionToken, _ string) (*oauth.LoginResult, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformLegacy, missing)
	}
	if sessionToken == "" {
		return nil, auth.ErrInvalidToken(core.PlatformLegacy, errors.New("empty session token"))
	}

	vr, status, err := p.verify(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if vr == nil {
		return nil, auth.ErrInvalidToken(core.PlatformLegacy, fmt.Errorf("legacy verify http %d", status))
	}

	user, err := p.deps.Identity.Resolve(ctx, core.PlatformLegacy, vr.UserID, vr.Username)
	if err != nil {
		return nil, err
	}
	sid, err := p.deps.Sessions.Create(ctx, session.Spec{
		UserID:         user.ID,
		Platform:       core.PlatformLegacy,
		PlatformUserID: user.PlatformUserID,
		// El token legacy queda guardado para re-confirmar la sesión.
		PlatformSessionID: sessionToken,
		Username:          user.Username,
		IsAdmin:           user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("legacy login ok", logger.UserID(user.ID), logger.Username(user.Username))
	return &oauth.LoginResult{SessionID: sid, User: user}, nil
}

// ValidateSession re-confirma el token legacy. Rechazo explícito retorna
// (nil, nil); si el servicio está caído propaga KindNetwork para que el
// caller siga confiando en la sesión local (fail-open).
func (p *Provider) ValidateSession(ctx context.Context, sess *core.Session) (*core.User, error) {
	if sess.PlatformSessionID == "" {
		return nil, nil
	}
	vr, _, err := p.verify(ctx, sess.PlatformSessionID)
	if err != nil {
		return nil, err
	}
	if vr == nil || vr.UserID != sess.PlatformUserID {
		return nil, nil
	}
	u, err := p.deps.Store.FindUserByPlatformID(ctx, core.PlatformLegacy, sess.PlatformUserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.E(auth.KindUserNotFound, core.PlatformLegacy, "session user not found", err)
		}
		return nil, err
	}
	return u, nil
}

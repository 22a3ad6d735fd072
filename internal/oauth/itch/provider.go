// Package itch implementa el login con Itch.io. Itch usa el flujo implicit
// (response_type=token): el access_token llega en el fragment de la URL del
// callback, así que lo extrae el JS del popup y lo postea al backend junto
// con el state. Por eso este provider requiere el relay cross-window.
package itch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/config"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

const (
	defaultAuthorizeURL = "https://itch.io/user/oauth"
	defaultAPIBaseURL   = "https://itch.io/api/1"
)

type Provider struct {
	cfg  config.ItchProvider
	deps oauth.Deps

	// AuthorizeURL y APIBaseURL son sobreescribibles en tests.
	AuthorizeURL string
	APIBaseURL   string

	http *http.Client
}

func New(cfg config.ItchProvider, deps oauth.Deps) *Provider {
	return &Provider{
		cfg:          cfg,
		deps:         deps,
		AuthorizeURL: defaultAuthorizeURL,
		APIBaseURL:   defaultAPIBaseURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Provider) Platform() core.Platform { return core.PlatformItch }

// RequiresRelay: el token viene en el fragment, solo visible en la ventana
// del callback; el resultado vuelve a la ventana original por el relay.
func (p *Provider) RequiresRelay() bool { return true }

func (p *Provider) GenerateAuthURL(ctx context.Context, pollID string) (*oauth.AuthRequest, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformItch, missing)
	}
	st, expiresAt, err := p.deps.States.Issue(ctx, core.PlatformItch, pollID)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(p.AuthorizeURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "token")
	q.Set("scope", "profile:me")
	q.Set("state", st)
	u.RawQuery = q.Encode()
	return &oauth.AuthRequest{AuthURL: u.String(), State: st, ExpiresAt: expiresAt}, nil
}

// meResponse es la respuesta de GET /key/me.
type meResponse struct {
	User struct {
		ID          int64  `json:"id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		CoverURL    string `json:"cover_url"`
	} `json:"user"`
	Errors []string `json:"errors"`
}

func (p *Provider) fetchMe(ctx context.Context, accessToken string) (*meResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.APIBaseURL+"/key/me", nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, 0, auth.ErrNetwork(core.PlatformItch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("itch: decode /key/me: %w", err)
	}
	// Itch a veces responde 200 con errors en el body.
	if len(me.Errors) > 0 || me.User.ID == 0 {
		return nil, http.StatusUnauthorized, nil
	}
	return &me, resp.StatusCode, nil
}

// Authenticate consume el state antes de tocar la API de Itch, después
// confirma el access_token contra /key/me.
func (p *Provider) Authenticate(ctx context.Context, accessToken, st string) (*oauth.LoginResult, error) {
	if missing := p.cfg.Missing(); len(missing) > 0 {
		return nil, auth.ErrConfiguration(core.PlatformItch, missing)
	}
	if err := p.deps.States.ValidateAndConsume(ctx, st, core.PlatformItch); err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, auth.ErrInvalidToken(core.PlatformItch, errors.New("empty access token"))
	}

	me, status, err := p.fetchMe(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if me == nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, auth.ErrInvalidToken(core.PlatformItch, fmt.Errorf("itch /key/me http %d", status))
		}
		return nil, auth.E(auth.KindAuth, core.PlatformItch, "provider error", fmt.Errorf("itch /key/me http %d", status))
	}

	username := me.User.Username
	if username == "" {
		username = me.User.DisplayName
	}
	externalID := strconv.FormatInt(me.User.ID, 10)

	user, err := p.deps.Identity.Resolve(ctx, core.PlatformItch, externalID, username)
	if err != nil {
		return nil, err
	}
	sid, err := p.deps.Sessions.Create(ctx, session.Spec{
		UserID:         user.ID,
		Platform:       core.PlatformItch,
		PlatformUserID: user.PlatformUserID,
		// Guardamos el token de Itch para poder re-confirmar la sesión.
		PlatformSessionID: accessToken,
		Username:          user.Username,
		IsAdmin:           user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("itch login ok", logger.UserID(user.ID), logger.Username(user.Username))
	return &oauth.LoginResult{SessionID: sid, User: user}, nil
}

// ValidateSession re-confirma el token de Itch contra /key/me. Rechazo
// explícito (401/403, o el user ya no coincide) retorna (nil, nil);
// un fallo de transporte propaga KindNetwork y el caller decide.
func (p *Provider) ValidateSession(ctx context.Context, sess *core.Session) (*core.User, error) {
	if sess.PlatformSessionID == "" {
		return nil, nil
	}
	me, status, err := p.fetchMe(ctx, sess.PlatformSessionID)
	if err != nil {
		return nil, err
	}
	if me == nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, nil
		}
		return nil, auth.ErrNetwork(core.PlatformItch, fmt.Errorf("itch /key/me http %d", status))
	}
	if strconv.FormatInt(me.User.ID, 10) != sess.PlatformUserID {
		return nil, nil
	}
	u, err := p.deps.Store.FindUserByPlatformID(ctx, core.PlatformItch, sess.PlatformUserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.E(auth.KindUserNotFound, core.PlatformItch, "session user not found", err)
		}
		return nil, err
	}
	return u, nil
}

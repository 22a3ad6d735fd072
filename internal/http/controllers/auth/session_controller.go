package auth

import (
	"errors"
	"net/http"

	authcore "github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	httperrors "github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/http/helpers"
	"github.com/dropDatabas3/plazita/internal/http/middlewares"
	"github.com/dropDatabas3/plazita/internal/metrics"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// SessionController maneja verificación, perfil y logout de sesiones.
type SessionController struct {
	registry   *oauth.Registry
	sessions   *session.Manager
	characters core.CharacterFinder
	cookie     CookieSpec
}

func NewSessionController(
	registry *oauth.Registry,
	sessions *session.Manager,
	characters core.CharacterFinder,
	cookie CookieSpec,
) *SessionController {
	return &SessionController{registry: registry, sessions: sessions, characters: characters, cookie: cookie}
}

type verifyResponse struct {
	Valid bool      `json:"valid"`
	User  *userView `json:"user,omitempty"`
}

// Verify maneja POST /v2/auth/session/verify
//
// Además de chequear la sesión local, re-confirma contra el proveedor
// cuando este lo soporta: un rechazo explícito revoca la sesión acá; si el
// proveedor está caído seguimos confiando en la sesión local (fail-open).
func (c *SessionController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Verify"))

	raw := middlewares.ExtractSessionToken(r, c.cookie.Name)
	sess, err := c.sessions.Validate(ctx, raw)
	if err != nil {
		metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
		log.Error("session lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	if sess == nil {
		metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
		helpers.WriteJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}

	user := viewOfSession(sess)
	if p := c.registry.Get(sess.Platform); p != nil {
		u, err := p.ValidateSession(ctx, sess)
		switch {
		case err == nil && u == nil:
			// El proveedor la rechazó: la sesión local muere con ella.
			log.Info("provider revoked session", logger.UserID(sess.UserID), logger.Platform(sess.Platform.String()))
			_ = c.sessions.Delete(ctx, raw)
			metrics.SessionValidationsTotal.WithLabelValues("invalid").Inc()
			helpers.WriteJSON(w, http.StatusOK, verifyResponse{Valid: false})
			return
		case err != nil && authcore.IsKind(err, authcore.KindNetwork):
			// No se pudo confirmar: fail-open con la sesión local.
			log.Warn("provider unreachable, trusting local session",
				logger.Platform(sess.Platform.String()), logger.Err(err))
		case err != nil:
			metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
			log.Error("session revalidation failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.FromAuthError(err))
			return
		default:
			user = viewOfUser(u)
		}
	}

	metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
	helpers.WriteJSON(w, http.StatusOK, verifyResponse{Valid: true, User: user})
}

type meResponse struct {
	User         *userView       `json:"user"`
	Character    *core.Character `json:"character"`
	HasCharacter bool            `json:"has_character"`
}

// Me maneja GET /v2/auth/session/me (requiere sesión; ver RequireSession).
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Me"))

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrSessionExpired)
		return
	}

	resp := meResponse{User: viewOfSession(sess)}
	if c.characters != nil {
		ch, err := c.characters.FindCharacterByUserID(ctx, sess.UserID)
		switch {
		case err == nil:
			resp.Character = ch
			resp.HasCharacter = ch != nil
		case errors.Is(err, core.ErrNotFound):
			// sin character todavía
		default:
			log.Error("character lookup failed", logger.UserID(sess.UserID), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Logout maneja DELETE /v2/auth/session — idempotente.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Logout"))

	raw := middlewares.ExtractSessionToken(r, c.cookie.Name)
	if err := c.sessions.Delete(ctx, raw); err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	http.SetCookie(w, helpers.BuildDeletionCookie(c.cookie.Name, c.cookie.Domain, c.cookie.SameSite, c.cookie.Secure))
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

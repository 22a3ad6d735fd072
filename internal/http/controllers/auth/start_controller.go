package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/http/helpers"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// StartController arma las URLs de autorización.
type StartController struct {
	registry *oauth.Registry
}

func NewStartController(registry *oauth.Registry) *StartController {
	return &StartController{registry: registry}
}

// AuthorizationURL maneja GET /v2/auth/{provider}/authorization-url
func (c *StartController) AuthorizationURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.AuthorizationURL"))

	platform := core.Platform(chi.URLParam(r, "provider"))
	p := c.registry.Get(platform)
	if p == nil {
		log.Warn("unknown provider", logger.Platform(platform.String()))
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
		return
	}

	pollID := strings.TrimSpace(r.URL.Query().Get("relay_poll_id"))
	if pollID != "" && !tokens.IsToken(pollID) {
		log.Warn("malformed relay_poll_id")
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("relay_poll_id must be a 64-hex token"))
		return
	}

	req, err := p.GenerateAuthURL(ctx, pollID)
	if err != nil {
		log.Error("authorization url failed", logger.Platform(platform.String()), logger.Err(err))
		httperrors.WriteError(w, httperrors.FromAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, req)
}

// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/plazita/internal/auth/session"
	authctrl "github.com/dropDatabas3/plazita/internal/http/controllers/auth"
	httperrors "github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/http/helpers"
	mw "github.com/dropDatabas3/plazita/internal/http/middlewares"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Deps son las dependencias del router.
type Deps struct {
	AuthControllers *authctrl.Controllers
	Sessions        *session.Manager
	Store           core.Repository

	SessionCookieName  string
	CORSAllowedOrigins []string
}

// New construye el handler raíz con la cadena de middlewares estándar.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Observabilidad sin middlewares de auth ni no-store.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.Store.Ping(req.Context()); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	ac := deps.AuthControllers
	r.Route("/v2/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.Get("/providers", ac.Providers.List)

		r.Get("/{provider}/authorization-url", ac.Start.AuthorizationURL)
		r.Get("/{provider}/callback", ac.Callback.Callback)
		r.Post("/{provider}/callback", ac.Callback.Callback)

		r.Post("/relay/poll-id", ac.Relay.CreatePollID)
		r.Get("/relay/poll/{pollID}", ac.Relay.Poll)
		r.Post("/relay/store/{pollID}", ac.Relay.StoreResult)

		r.Post("/session/verify", ac.Session.Verify)
		r.Delete("/session", ac.Session.Logout)

		r.Group(func(r chi.Router) {
			r.Use(mw.WithSession(deps.Sessions, deps.SessionCookieName))
			r.Use(mw.RequireSession())
			r.Get("/session/me", ac.Session.Me)
		})
	})

	// Cadena externa: recover primero en interceptar, logging con el request
	// id ya puesto.
	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	)
}

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authcore "github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/relay"
	"github.com/dropDatabas3/plazita/internal/auth/state"
	httperrors "github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/http/helpers"
	"github.com/dropDatabas3/plazita/internal/metrics"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// CallbackController procesa la vuelta del proveedor: valida state,
// intercambia la credencial y emite la sesión. Si el state trae un poll id
// embebido, el resultado (éxito o fracaso) también se deposita en el relay
// para la ventana original.
type CallbackController struct {
	registry *oauth.Registry
	relay    *relay.Store
	cookie   CookieSpec
}

func NewCallbackController(registry *oauth.Registry, relayStore *relay.Store, cookie CookieSpec) *CallbackController {
	return &CallbackController{registry: registry, relay: relayStore, cookie: cookie}
}

// callbackParams acepta los parámetros por query string (GET redirect) o
// por body JSON (POST desde la página del popup).
type callbackParams struct {
	Code             string `json:"code"`
	AccessToken      string `json:"access_token"`
	State            string `json:"state"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (p *callbackParams) fromQuery(r *http.Request) {
	q := r.URL.Query()
	if p.Code == "" {
		p.Code = strings.TrimSpace(q.Get("code"))
	}
	if p.AccessToken == "" {
		p.AccessToken = strings.TrimSpace(q.Get("access_token"))
	}
	if p.State == "" {
		p.State = strings.TrimSpace(q.Get("state"))
	}
	if p.Error == "" {
		p.Error = strings.TrimSpace(q.Get("error"))
	}
	if p.ErrorDescription == "" {
		p.ErrorDescription = strings.TrimSpace(q.Get("error_description"))
	}
}

type callbackResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"session_id,omitempty"`
	User      *userView `json:"user,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Callback maneja POST|GET /v2/auth/{provider}/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	platform := core.Platform(chi.URLParam(r, "provider"))
	p := c.registry.Get(platform)
	if p == nil {
		log.Warn("unknown provider", logger.Platform(platform.String()))
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
		return
	}

	var params callbackParams
	if r.Method == http.MethodPost && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if !helpers.ReadJSON(w, r, &params) {
			return
		}
	}
	params.fromQuery(r)

	// Poll id embebido en el state, si el flujo vino por el relay. Un state
	// ilegible se trata como sin poll id; el adapter lo va a rechazar igual.
	pollID := ""
	if pl, err := state.Decode(params.State); err == nil {
		pollID = pl.PollID
	}

	// El proveedor canceló/rechazó antes de darnos credencial.
	if params.Error != "" {
		log.Warn("provider denied",
			logger.Platform(platform.String()),
			logger.String("error", params.Error),
			logger.String("description", params.ErrorDescription),
		)
		metrics.LoginsTotal.WithLabelValues(platform.String(), "denied").Inc()
		appErr := httperrors.ErrProviderDenied.WithDetail(params.Error)
		c.writeFailure(w, r, pollID, appErr)
		return
	}

	credential := params.Code
	if credential == "" {
		credential = params.AccessToken
	}
	if credential == "" {
		metrics.LoginsTotal.WithLabelValues(platform.String(), "failure").Inc()
		c.writeFailure(w, r, pollID, httperrors.ErrMissingFields.WithDetail("code or access_token required"))
		return
	}

	start := time.Now()
	res, err := p.Authenticate(ctx, credential, params.State)
	metrics.ProviderLatency.WithLabelValues(platform.String()).Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		log.Error("authentication failed", logger.Platform(platform.String()), logger.Err(err))
		if authcore.IsKind(err, authcore.KindInvalidState) {
			metrics.StateFailuresTotal.WithLabelValues(platform.String()).Inc()
		}
		metrics.LoginsTotal.WithLabelValues(platform.String(), "failure").Inc()
		c.writeFailure(w, r, pollID, httperrors.FromAuthError(err))
		return
	}

	metrics.LoginsTotal.WithLabelValues(platform.String(), "success").Inc()

	if pollID != "" {
		c.deposit(r, pollID, relay.Result{
			Success:   true,
			SessionID: res.SessionID,
			User:      res.User,
		})
	}

	http.SetCookie(w, helpers.BuildSessionCookie(
		c.cookie.Name, res.SessionID, c.cookie.Domain, c.cookie.SameSite, c.cookie.Secure, c.cookie.TTL,
	))
	helpers.WriteJSON(w, http.StatusOK, callbackResponse{
		Success:   true,
		SessionID: res.SessionID,
		User:      viewOfUser(res.User),
	})
}

// writeFailure responde el fracaso al caller y, si hay poll id, se lo deja
// también a la ventana original.
func (c *CallbackController) writeFailure(w http.ResponseWriter, r *http.Request, pollID string, appErr *httperrors.AppError) {
	code := strings.ToLower(appErr.Code)
	if pollID != "" {
		c.deposit(r, pollID, relay.Result{
			Success: false,
			Error:   code,
			Message: appErr.Message,
		})
	}
	helpers.WriteJSON(w, appErr.HTTPStatus, callbackResponse{
		Success: false,
		Error:   code,
		Message: appErr.Message,
	})
}

func (c *CallbackController) deposit(r *http.Request, pollID string, res relay.Result) {
	if err := c.relay.Put(r.Context(), pollID, res); err != nil {
		logger.From(r.Context()).Error("relay deposit failed", logger.PollID(pollID), logger.Err(err))
		return
	}
	metrics.RelayResultsStored.Inc()
}

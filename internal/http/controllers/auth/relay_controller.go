package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/plazita/internal/auth/relay"
	httperrors "github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/http/helpers"
	"github.com/dropDatabas3/plazita/internal/metrics"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
)

// RelayController expone el handoff cross-window: la ventana original pide
// un poll id, la ventana del callback deposita el resultado, la original
// lo levanta por polling.
type RelayController struct {
	relay *relay.Store
}

func NewRelayController(relayStore *relay.Store) *RelayController {
	return &RelayController{relay: relayStore}
}

// CreatePollID maneja POST /v2/auth/relay/poll-id
func (c *RelayController) CreatePollID(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("RelayController.CreatePollID"))

	id, expiresAt, err := c.relay.GeneratePollID()
	if err != nil {
		log.Error("poll id generation failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"poll_id":    id,
		"expires_at": expiresAt,
	})
}

type pollResponse struct {
	Status string `json:"status"` // pending | completed
	*relay.Result
}

// Poll maneja GET /v2/auth/relay/poll/{pollID}
//
// Un poll id desconocido o vencido responde pending con 200: el cliente
// sigue intentando hasta su propio deadline, nunca ve la diferencia entre
// "todavía no" y "nunca va a llegar".
func (c *RelayController) Poll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RelayController.Poll"))

	pollID := chi.URLParam(r, "pollID")
	res, err := c.relay.Get(ctx, pollID)
	if err != nil {
		log.Error("relay read failed", logger.PollID(pollID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	if res == nil {
		metrics.RelayPollsTotal.WithLabelValues("pending").Inc()
		helpers.WriteJSON(w, http.StatusOK, pollResponse{Status: "pending"})
		return
	}
	metrics.RelayPollsTotal.WithLabelValues("completed").Inc()
	helpers.WriteJSON(w, http.StatusOK, pollResponse{Status: "completed", Result: res})
}

// StoreResult maneja POST /v2/auth/relay/store/{pollID}
//
// Lo llama la página del callback cuando ella misma terminó el flujo (en
// vez del depósito automático que hace CallbackController).
func (c *RelayController) StoreResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RelayController.StoreResult"))

	pollID := chi.URLParam(r, "pollID")
	if !tokens.IsToken(pollID) {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("poll id must be a 64-hex token"))
		return
	}

	var res relay.Result
	if !helpers.ReadJSON(w, r, &res) {
		return
	}
	if err := c.relay.Put(ctx, pollID, res); err != nil {
		log.Error("relay store failed", logger.PollID(pollID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	metrics.RelayResultsStored.Inc()
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

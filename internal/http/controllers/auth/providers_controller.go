package auth

import (
	"net/http"

	"github.com/dropDatabas3/plazita/internal/http/helpers"
	"github.com/dropDatabas3/plazita/internal/oauth"
)

// ProvidersController lista las plataformas de login habilitadas.
type ProvidersController struct {
	registry *oauth.Registry
}

func NewProvidersController(registry *oauth.Registry) *ProvidersController {
	return &ProvidersController{registry: registry}
}

type providerView struct {
	Platform      string `json:"platform"`
	RequiresRelay bool   `json:"requires_relay"`
}

// List maneja GET /v2/auth/providers
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	out := make([]providerView, 0)
	for _, platform := range c.registry.Platforms() {
		p := c.registry.Get(platform)
		out = append(out, providerView{
			Platform:      platform.String(),
			RequiresRelay: p.RequiresRelay(),
		})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"providers": out})
}

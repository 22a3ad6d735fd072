package oauth

import (
	"sort"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Registry selecciona el Provider por nombre de plataforma.
type Registry struct {
	providers map[core.Platform]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	m := make(map[core.Platform]Provider, len(ps))
	for _, p := range ps {
		m[p.Platform()] = p
	}
	return &Registry{providers: m}
}

// Get retorna el provider para platform, o nil si no está habilitado.
func (r *Registry) Get(platform core.Platform) Provider {
	return r.providers[platform]
}

// Platforms lista las plataformas habilitadas, ordenadas.
func (r *Registry) Platforms() []core.Platform {
	out := make([]core.Platform, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

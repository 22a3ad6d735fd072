// Package app es la raíz de composición: arma el grafo de dependencias a
// partir de la config y expone el handler HTTP listo para servir.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth/identity"
	"github.com/dropDatabas3/plazita/internal/auth/relay"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/auth/state"
	"github.com/dropDatabas3/plazita/internal/cache"
	"github.com/dropDatabas3/plazita/internal/config"
	authctrl "github.com/dropDatabas3/plazita/internal/http/controllers/auth"
	"github.com/dropDatabas3/plazita/internal/http/router"
	"github.com/dropDatabas3/plazita/internal/metrics"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/oauth/google"
	"github.com/dropDatabas3/plazita/internal/oauth/itch"
	"github.com/dropDatabas3/plazita/internal/oauth/legacy"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
	"github.com/dropDatabas3/plazita/internal/store/core"
	"github.com/dropDatabas3/plazita/internal/store/memory"
	"github.com/dropDatabas3/plazita/internal/store/pg"
)

// Container agrupa las piezas vivas del servicio.
type Container struct {
	Cfg *config.Config

	Store    core.Repository
	Cache    cache.Client
	Relay    *relay.Store
	States   *state.Registry
	Sessions *session.Manager
	Identity *identity.Resolver
	Registry *oauth.Registry

	Handler http.Handler
}

// New arma el container completo. characters puede ser nil (el lookup de
// character queda deshabilitado en /v2/auth/session/me).
func New(ctx context.Context, cfg *config.Config, characters core.CharacterFinder) (*Container, error) {
	c := &Container{Cfg: cfg}

	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.Tuning{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("app: postgres store: %w", err)
		}
		c.Store = st
	case "memory":
		c.Store = memory.New()
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
	}

	cc, err := cache.New(cache.Config{
		Kind:          cfg.Cache.Kind,
		Addr:          cfg.Cache.Redis.Addr,
		Password:      cfg.Cache.Redis.Password,
		DB:            cfg.Cache.Redis.DB,
		Prefix:        cfg.Cache.Redis.Prefix,
		DefaultTTL:    cfg.Auth.RelayTTL,
		SweepInterval: cfg.Auth.RelaySweep,
	})
	if err != nil {
		c.Store.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}
	c.Cache = cc

	c.Relay = relay.New(cc, cfg.Auth.RelayTTL)
	c.States = state.NewRegistry(c.Store, cfg.Auth.StateTTL)
	c.Sessions = session.NewManager(c.Store, cfg.Auth.Session.TTL)
	c.Identity = identity.NewResolver(c.Store)

	deps := oauth.Deps{
		Store:    c.Store,
		States:   c.States,
		Identity: c.Identity,
		Sessions: c.Sessions,
	}
	var providers []oauth.Provider
	if cfg.Providers.Google.Enabled {
		providers = append(providers, google.New(cfg.Providers.Google, deps))
	}
	if cfg.Providers.Itch.Enabled {
		providers = append(providers, itch.New(cfg.Providers.Itch, deps))
	}
	if cfg.Providers.Legacy.Enabled {
		providers = append(providers, legacy.New(cfg.Providers.Legacy, deps))
	}
	c.Registry = oauth.NewRegistry(providers...)

	if err := metrics.RegisterAuth(nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	cookie := authctrl.CookieSpec{
		Name:     cfg.Auth.Session.CookieName,
		Domain:   cfg.Auth.Session.Domain,
		SameSite: cfg.Auth.Session.SameSite,
		Secure:   cfg.Auth.Session.Secure,
		TTL:      cfg.Auth.Session.TTL,
	}
	controllers := authctrl.New(c.Registry, c.Relay, c.Sessions, characters, cookie)

	c.Handler = router.New(router.Deps{
		AuthControllers:    controllers,
		Sessions:           c.Sessions,
		Store:              c.Store,
		SessionCookieName:  cfg.Auth.Session.CookieName,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	return c, nil
}

// RunSweeper barre states vencidos a intervalo fijo hasta que ctx muera.
// El relay no necesita sweeper propio: su cache trae janitor.
func (c *Container) RunSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := c.States.SweepExpired(ctx); err != nil {
				logger.Named("app").Warn("state sweep failed", logger.Err(err))
			}
		}
	}
}

// Close libera store y cache (incluye el janitor del relay).
func (c *Container) Close() {
	if c.Relay != nil {
		_ = c.Relay.Close()
	} else if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Store != nil {
		c.Store.Close()
	}
}

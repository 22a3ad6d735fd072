// Package oauth define el contrato común de los providers de identidad.
//
// Los tres providers difieren en exactamente dos ejes: si la respuesta de
// autorización es un redirect con code (intercambio server-side) o un token
// en el fragment de la URL (extracción client-side vía relay), y si el
// state se trackea server-side o no. Un solo contrato con internals por
// adapter evita que esas rarezas se filtren al orquestador.
package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth/identity"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/auth/state"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Identity es la forma canónica de una identidad externa verificada.
type Identity struct {
	ExternalID string
	Username   string
	Email      string
	AvatarURL  string
}

// AuthRequest es el resultado de GenerateAuthURL.
type AuthRequest struct {
	AuthURL   string    `json:"auth_url"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResult es el resultado de un Authenticate exitoso: nunca hay sesión
// parcial, o viene completa con su user resuelto o no viene.
type LoginResult struct {
	SessionID string     `json:"session_id"`
	User      *core.User `json:"user"`
}

// Provider es el capability set común de los adapters.
type Provider interface {
	Platform() core.Platform

	// RequiresRelay reporta si el callback del provider corre en un
	// contexto de browser separado y necesita el relay cross-window.
	RequiresRelay() bool

	// GenerateAuthURL arma la URL de autorización con un state fresco.
	// Si pollID no es vacío queda embebido en el state. Un provider mal
	// configurado falla con KindConfiguration enumerando las variables
	// que faltan; nunca emite una URL a medio armar.
	GenerateAuthURL(ctx context.Context, pollID string) (*AuthRequest, error)

	// Authenticate valida-y-consume el state (si el provider lo trackea
	// server-side, SIEMPRE antes de cualquier llamada de red), intercambia
	// la credencial por la identidad, resuelve el user local y emite la
	// sesión.
	Authenticate(ctx context.Context, credential, st string) (*LoginResult, error)

	// ValidateSession re-confirma la sesión contra el provider donde se
	// soporte. (nil, nil) = el provider la rechazó explícitamente (tratar
	// como logout); error KindNetwork = no se pudo confirmar, el caller
	// decide (fail-open). Providers sin re-validación retornan el user
	// local tal cual.
	ValidateSession(ctx context.Context, sess *core.Session) (*core.User, error)
}

// Deps son los colaboradores que todo adapter comparte.
type Deps struct {
	Store    core.Repository
	States   *state.Registry
	Identity *identity.Resolver
	Sessions *session.Manager
}

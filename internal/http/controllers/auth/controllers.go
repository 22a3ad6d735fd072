// Package auth contiene los controllers HTTP del flujo de login y sesión.
// Los controllers solo parsean/serializan; la lógica vive en los adapters
// y en el core de auth.
package auth

import (
	"time"

	"github.com/dropDatabas3/plazita/internal/auth/relay"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/oauth"
	"github.com/dropDatabas3/plazita/internal/store/core"
)

// CookieSpec describe la cookie de sesión que emiten login y logout.
type CookieSpec struct {
	Name     string
	Domain   string
	SameSite string
	Secure   bool
	TTL      time.Duration
}

// Controllers agrupa los controllers del módulo auth.
type Controllers struct {
	Providers *ProvidersController
	Start     *StartController
	Callback  *CallbackController
	Relay     *RelayController
	Session   *SessionController
}

// New arma los controllers con sus colaboradores compartidos.
func New(
	registry *oauth.Registry,
	relayStore *relay.Store,
	sessions *session.Manager,
	characters core.CharacterFinder,
	cookie CookieSpec,
) *Controllers {
	return &Controllers{
		Providers: NewProvidersController(registry),
		Start:     NewStartController(registry),
		Callback:  NewCallbackController(registry, relayStore, cookie),
		Relay:     NewRelayController(relayStore),
		Session:   NewSessionController(registry, sessions, characters, cookie),
	}
}

// userView es la proyección del user que viaja en las respuestas de auth.
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Platform string `json:"platform"`
	IsAdmin  bool   `json:"is_admin"`
}

func viewOfUser(u *core.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:       u.ID,
		Username: u.Username,
		Platform: u.Platform.String(),
		IsAdmin:  u.IsAdmin,
	}
}

func viewOfSession(s *core.Session) *userView {
	return &userView{
		ID:       s.UserID,
		Username: s.Username,
		Platform: s.Platform.String(),
		IsAdmin:  s.IsAdmin,
	}
}

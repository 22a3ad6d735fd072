package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/http/errors"
	"github.com/dropDatabas3/plazita/internal/observability/logger"
)

// ExtractSessionToken saca el token de sesión del request: primero el header
// Authorization: Bearer, después la cookie. Retorna "" si no hay ninguno.
func ExtractSessionToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

// WithSession valida el token de sesión (si vino) y deja la sesión en el
// contexto. No rechaza requests anónimos: eso lo decide cada handler.
func WithSession(sessions *session.Manager, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractSessionToken(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.Validate(r.Context(), raw)
			if err != nil {
				logger.From(r.Context()).Error("session lookup failed", logger.Err(err))
				errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
				return
			}
			if sess == nil {
				// Token presente pero inválido/vencido: request sigue anónimo.
				next.ServeHTTP(w, r)
				return
			}
			ctx := SetSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession corta con 401 si el request no trae sesión válida.
// Debe correr después de WithSession.
func RequireSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetSession(r.Context()) == nil {
				errors.WriteError(w, errors.ErrSessionExpired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

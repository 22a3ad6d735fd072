// Package auth define la taxonomía de errores del core de autenticación.
//
// Cada fallo del flujo (configuración, state, intercambio, resolución de
// identidad) se clasifica en un Kind cerrado; la capa HTTP mapea Kind →
// status sin inspeccionar mensajes. Los cuerpos de error crudos del
// proveedor nunca llegan al cliente: viajan solo en Err para logs.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

// Kind clasifica un fallo de autenticación.
type Kind int

const (
	// KindConfiguration: faltan credenciales del provider. Fatal al momento
	// de la llamada, no al arranque: un provider mal configurado no bloquea
	// a los demás.
	KindConfiguration Kind = iota + 1

	// KindAuth: fallo genérico de autenticación contra el provider.
	KindAuth

	// KindInvalidState: state ausente, vencido o ya consumido. Siempre se
	// chequea antes de cualquier llamada de red.
	KindInvalidState

	// KindInvalidToken: el provider rechazó la credencial (ej: HTTP 401).
	// Recuperable con re-login, a diferencia de KindConfiguration.
	KindInvalidToken

	// KindNetwork: fallo de transporte/timeout hablando con el provider.
	// Distinto del rechazo: el caller puede reintentar.
	KindNetwork

	// KindAccountExists: colisión de (platform, platform_user_id) al crear.
	KindAccountExists

	// KindUsernameTaken: colisión de username dentro de la plataforma.
	KindUsernameTaken

	// KindUserNotFound: una sesión referencia un user que no existe.
	// Señala un bug interno, no un error del usuario.
	KindUserNotFound
)

// Error es un fallo clasificado del core de auth.
type Error struct {
	Kind     Kind
	Platform core.Platform
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("%s: %s", e.Platform, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E construye un *Error.
func E(kind Kind, platform core.Platform, message string, cause error) *Error {
	return &Error{Kind: kind, Platform: platform, Message: message, Err: cause}
}

// ErrConfiguration arma un KindConfiguration enumerando exactamente qué
// variables faltan.
func ErrConfiguration(platform core.Platform, missing []string) *Error {
	return &Error{
		Kind:     KindConfiguration,
		Platform: platform,
		Message:  "provider not configured, missing: " + strings.Join(missing, ", "),
	}
}

// ErrInvalidState arma el KindInvalidState estándar.
func ErrInvalidState(platform core.Platform, cause error) *Error {
	return &Error{Kind: KindInvalidState, Platform: platform, Message: "invalid or expired state", Err: cause}
}

// ErrInvalidToken arma el KindInvalidToken estándar.
func ErrInvalidToken(platform core.Platform, cause error) *Error {
	return &Error{Kind: KindInvalidToken, Platform: platform, Message: "expired or invalid token", Err: cause}
}

// ErrNetwork arma un KindNetwork.
func ErrNetwork(platform core.Platform, cause error) *Error {
	return &Error{Kind: KindNetwork, Platform: platform, Message: "provider unreachable", Err: cause}
}

// KindOf extrae el Kind de err, o 0 si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reporta si err es un *Error del kind dado.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/plazita/internal/auth"
)

// errorResponse estructura interna para la serialización JSON.
// Controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromAuthError mapea la taxonomía del core de auth a AppErrors HTTP. El
// cuerpo crudo del proveedor nunca se expone: solo viaja en la causa.
func FromAuthError(err error) *AppError {
	switch auth.KindOf(err) {
	case auth.KindConfiguration:
		return ErrProviderNotConfigured.WithCause(err)
	case auth.KindInvalidState:
		return ErrInvalidState.WithCause(err)
	case auth.KindInvalidToken:
		return ErrTokenExpired.WithCause(err)
	case auth.KindAuth:
		// Fallo del lado del proveedor sin clasificar (ej: un 5xx suyo).
		// No es un rechazo de la credencial: nada de 401.
		return ErrProviderError.WithCause(err)
	case auth.KindNetwork:
		return ErrNetworkError.WithCause(err)
	case auth.KindAccountExists:
		return ErrAccountExists.WithCause(err)
	case auth.KindUsernameTaken:
		return ErrUsernameTaken.WithCause(err)
	case auth.KindUserNotFound:
		return ErrInternalServerError.WithCause(err)
	default:
		return FromError(err)
	}
}

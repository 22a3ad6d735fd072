// Package state emite y valida los tokens anti-CSRF de los flujos OAuth.
//
// El valor de state es un nonce de alta entropía, opcionalmente con un
// poll id del relay embebido. Encode/Decode son el único punto donde se
// arma y se parsea ese formato.
package state

import (
	"errors"
	"strings"

	tokens "github.com/dropDatabas3/plazita/internal/security/token"
)

// pollSep separa nonce y poll id en el wire format. Ambos lados son hex
// puro de largo fijo, así el separador no puede colisionar con contenido.
const pollSep = "_pollid_"

var ErrMalformed = errors.New("state: malformed payload")

// Payload es el contenido estructurado de un state.
type Payload struct {
	Nonce  string
	PollID string // vacío si el flujo no usa el relay
}

// Encode serializa el payload al wire format:
// "<nonce>" o "<nonce>_pollid_<pollid>".
func (p Payload) Encode() string {
	if p.PollID == "" {
		return p.Nonce
	}
	return p.Nonce + pollSep + p.PollID
}

// Decode parsea un state recibido en el callback. Rechaza payloads cuyo
// nonce o poll id no tengan forma de token (64 hex).
func Decode(s string) (Payload, error) {
	nonce, pollID, found := strings.Cut(s, pollSep)
	if !tokens.IsToken(nonce) {
		return Payload{}, ErrMalformed
	}
	if found && !tokens.IsToken(pollID) {
		return Payload{}, ErrMalformed
	}
	return Payload{Nonce: nonce, PollID: pollID}, nil
}

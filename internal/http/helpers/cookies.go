package helpers

import (
	"net/http"
	"strings"
	"time"
)

// ParseSameSite mapea el string de config a http.SameSite (default Lax).
func ParseSameSite(s string) http.SameSite {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// BuildSessionCookie arma la cookie HttpOnly que transporta el token de
// sesión para clientes browser (los no-browser usan Authorization: Bearer).
func BuildSessionCookie(name, value, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

// BuildDeletionCookie arma la cookie que borra la de sesión en el logout.
func BuildDeletionCookie(name, domain, sameSite string, secure bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	return ck
}

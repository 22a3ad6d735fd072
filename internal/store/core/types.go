package core

import "time"

// Platform identifica el proveedor de identidad de origen.
type Platform string

const (
	PlatformGoogle Platform = "google"
	PlatformItch   Platform = "itch"
	PlatformLegacy Platform = "legacy-session"
)

// Valid reporta si p es una plataforma conocida.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogle, PlatformItch, PlatformLegacy:
		return true
	}
	return false
}

func (p Platform) String() string { return string(p) }

// User es la cuenta local ligada a una identidad externa.
// (platform, platform_user_id) es único; username es único por plataforma.
// Este subsistema nunca lo borra físicamente.
type User struct {
	ID             string    `json:"id"`
	Platform       Platform  `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	Username       string    `json:"username"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
	LastLogin      time.Time `json:"last_login"`
}

// Session es la credencial bearer propia de la aplicación.
// TokenHash guarda sha256(token); el token crudo solo viaja al cliente.
// Invariante: a lo sumo una sesión viva por user_id.
type Session struct {
	TokenHash         string    `json:"-"`
	UserID            string    `json:"user_id"`
	Platform          Platform  `json:"platform"`
	PlatformUserID    string    `json:"platform_user_id"`
	PlatformSessionID string    `json:"-"`
	Username          string    `json:"username"`
	IsAdmin           bool      `json:"is_admin"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// OAuthState es el registro anti-CSRF de un flujo en curso.
// Single-use: se borra al validarse o al expirar.
type OAuthState struct {
	State     string
	Platform  Platform
	ExpiresAt time.Time
}

// Character es el documento de avatar del usuario. Su edición y validación
// viven fuera de este subsistema; aquí solo se consulta su existencia.
type Character struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

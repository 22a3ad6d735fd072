package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrExpired  = errors.New("expired")

	// ErrDuplicateIdentity: ya existe un user con ese (platform, platform_user_id).
	ErrDuplicateIdentity = fmt.Errorf("duplicate identity: %w", ErrConflict)

	// ErrDuplicateUsername: el username ya está tomado dentro de la plataforma.
	ErrDuplicateUsername = fmt.Errorf("duplicate username: %w", ErrConflict)
)

// Package cache provee un cache TTL con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, default; el janitor barre entradas vencidas)
//   - Redis (distribuido, para deploys multi-nodo)
//
// El consumidor principal es el relay cross-window (auth/relay), que
// necesita semántica read-once: ver Take.
package cache

import (
	"context"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL. ttl <= 0 usa el default del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. Idempotente.
	Delete(ctx context.Context, key string) error

	// Take obtiene y elimina atómicamente: dos lectores concurrentes de la
	// misma key nunca reciben ambos el valor.
	Take(ctx context.Context, key string) ([]byte, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos (detiene el janitor en memory).
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind     string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string

	// DefaultTTL aplica cuando Set recibe ttl <= 0.
	DefaultTTL time.Duration
	// SweepInterval es el período del janitor del backend memory.
	SweepInterval time.Duration
}

// Errores de cache.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg), nil
	}
}

package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }

// Campos estándar de negocio.

// Platform identifica el proveedor de identidad (google|itch|legacy-session).
func Platform(v string) zap.Field { return zap.String("platform", v) }
func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func Username(v string) zap.Field { return zap.String("username", v) }

// PollID identifica un handoff del relay cross-window.
func PollID(v string) zap.Field { return zap.String("poll_id", v) }

// Campos estándar de sistema.

// Op es la operación actual (ej: "SessionManager.Create").
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer es la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }
func Count(v int) zap.Field   { return zap.Int("count", v) }

// Genéricos.

func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

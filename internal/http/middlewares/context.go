package middlewares

import (
	"context"

	"github.com/dropDatabas3/plazita/internal/store/core"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySession
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID retorna el request id del contexto, o "" si no hay.
func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ctxKeyRequestID).(string)
	return rid
}

// SetSession inyecta la sesión validada en el contexto.
func SetSession(ctx context.Context, sess *core.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

// GetSession retorna la sesión del contexto, o nil si el request es anónimo.
func GetSession(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(ctxKeySession).(*core.Session)
	return sess
}

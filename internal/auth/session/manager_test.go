package session

import (
	"context"
	"testing"
	"time"

	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
	"github.com/dropDatabas3/plazita/internal/store/memory"
)

var testSpec = Spec{
	UserID:         "u-1",
	Platform:       core.PlatformGoogle,
	PlatformUserID: "g-123",
	Username:       "copito",
}

func newManager(t *testing.T) (*Manager, time.Time) {
	t.Helper()
	m := NewManager(memory.New(), DefaultTTL)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.SetNowForTests(func() time.Time { return t0 })
	return m, t0
}

func TestCreate_TokenOpacoYValidacion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, t0 := newManager(t)

	raw, err := m.Create(ctx, testSpec)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if !tokens.IsToken(raw) {
		t.Fatalf("token no es 64-hex: %q", raw)
	}

	sess, err := m.Validate(ctx, raw)
	if err != nil {
		t.Fatalf("Validate err: %v", err)
	}
	if sess == nil {
		t.Fatal("sesión recién creada no valida")
	}
	if sess.UserID != "u-1" || sess.Username != "copito" {
		t.Fatalf("sesión inesperada: %+v", sess)
	}
	if want := t0.Add(DefaultTTL); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	// El hash, no el crudo, es lo que queda guardado.
	if sess.TokenHash != tokens.SHA256Hex(raw) {
		t.Fatal("TokenHash no es sha256 del token crudo")
	}
}

func TestCreate_UnaSesionPorUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	first, err := m.Create(ctx, testSpec)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	second, err := m.Create(ctx, testSpec)
	if err != nil {
		t.Fatalf("segundo Create err: %v", err)
	}

	// El login nuevo mata la sesión anterior: last login wins.
	if sess, _ := m.Validate(ctx, first); sess != nil {
		t.Fatal("la primera sesión sigue viva")
	}
	if sess, _ := m.Validate(ctx, second); sess == nil {
		t.Fatal("la segunda sesión no valida")
	}
}

func TestValidate_BordeDeExpiracion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, t0 := newManager(t)

	raw, _ := m.Create(ctx, testSpec)

	m.SetNowForTests(func() time.Time { return t0.Add(DefaultTTL - time.Second) })
	if sess, _ := m.Validate(ctx, raw); sess == nil {
		t.Fatal("sesión inválida un segundo antes de vencer")
	}

	m.SetNowForTests(func() time.Time { return t0.Add(DefaultTTL + time.Second) })
	sess, err := m.Validate(ctx, raw)
	if err != nil {
		t.Fatalf("Validate err: %v", err)
	}
	if sess != nil {
		t.Fatal("sesión vencida sigue validando")
	}
}

func TestValidate_InputVacioYDesconocido(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	if sess, err := m.Validate(ctx, ""); err != nil || sess != nil {
		t.Fatalf("Validate(\"\") = (%v, %v), want (nil, nil)", sess, err)
	}
	unknown, _ := tokens.GenerateToken()
	if sess, err := m.Validate(ctx, unknown); err != nil || sess != nil {
		t.Fatalf("Validate(desconocido) = (%v, %v), want (nil, nil)", sess, err)
	}
}

func TestDelete_Idempotente(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _ := newManager(t)

	raw, _ := m.Create(ctx, testSpec)
	if err := m.Delete(ctx, raw); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if sess, _ := m.Validate(ctx, raw); sess != nil {
		t.Fatal("sesión borrada sigue validando")
	}
	// Borrar de nuevo (o borrar nada) no es error.
	if err := m.Delete(ctx, raw); err != nil {
		t.Fatalf("segundo Delete err: %v", err)
	}
	if err := m.Delete(ctx, ""); err != nil {
		t.Fatalf("Delete(\"\") err: %v", err)
	}
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/store/core"
	"github.com/dropDatabas3/plazita/internal/store/memory"
)

func TestResolve_CreaAlPrimerLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(memory.New())
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.SetNowForTests(func() time.Time { return t0 })

	u, err := r.Resolve(ctx, core.PlatformGoogle, "g-1", "copito")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if u.ID == "" {
		t.Fatal("user sin id")
	}
	if u.Username != "copito" || u.Platform != core.PlatformGoogle || u.IsAdmin {
		t.Fatalf("user inesperado: %+v", u)
	}
	if !u.CreatedAt.Equal(t0) || !u.LastLogin.Equal(t0) {
		t.Fatalf("timestamps: created=%v last=%v, want %v", u.CreatedAt, u.LastLogin, t0)
	}
}

func TestResolve_ReLoginTocaLastLoginYUsernameEsSticky(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(memory.New())
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.SetNowForTests(func() time.Time { return t0 })

	first, err := r.Resolve(ctx, core.PlatformItch, "42", "copito")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}

	// El provider renombró al user; el username local no se sincroniza.
	t1 := t0.Add(48 * time.Hour)
	r.SetNowForTests(func() time.Time { return t1 })
	second, err := r.Resolve(ctx, core.PlatformItch, "42", "copito-renombrado")
	if err != nil {
		t.Fatalf("segundo Resolve err: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("ids distintos: %q vs %q", second.ID, first.ID)
	}
	if second.Username != "copito" {
		t.Fatalf("username = %q, want sticky %q", second.Username, "copito")
	}
	if !second.LastLogin.Equal(t1) {
		t.Fatalf("LastLogin = %v, want %v", second.LastLogin, t1)
	}
}

func TestResolve_UsernameTomado(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(memory.New())

	if _, err := r.Resolve(ctx, core.PlatformGoogle, "g-1", "copito"); err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	// Otra identidad de la misma plataforma con el mismo username.
	_, err := r.Resolve(ctx, core.PlatformGoogle, "g-2", "copito")
	if !auth.IsKind(err, auth.KindUsernameTaken) {
		t.Fatalf("err = %v, want KindUsernameTaken", err)
	}
}

func TestResolve_MismoUsernameEnOtraPlataforma(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewResolver(memory.New())

	a, err := r.Resolve(ctx, core.PlatformGoogle, "g-1", "copito")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	// Username único por plataforma, no global.
	b, err := r.Resolve(ctx, core.PlatformItch, "42", "copito")
	if err != nil {
		t.Fatalf("Resolve itch err: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("identidades de plataformas distintas compartieron user")
	}
}

// racingStore fuerza la carrera del insert: el primer CreateUser responde
// duplicate identity como si otro callback hubiera ganado.
type racingStore struct {
	*memory.Store
	raced bool
}

func (s *racingStore) CreateUser(ctx context.Context, u *core.User) error {
	if !s.raced {
		s.raced = true
		// El otro callback inserta primero.
		other := *u
		other.ID = "winner"
		if err := s.Store.CreateUser(ctx, &other); err != nil {
			return err
		}
		return core.ErrDuplicateIdentity
	}
	return s.Store.CreateUser(ctx, u)
}

func TestResolve_RecuperaCarreraDeIdentidad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rs := &racingStore{Store: memory.New()}
	r := NewResolver(rs)

	u, err := r.Resolve(ctx, core.PlatformGoogle, "g-1", "copito")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	// Retry idempotente: el login usa la fila del ganador, sin error.
	if u.ID != "winner" {
		t.Fatalf("user.ID = %q, want %q", u.ID, "winner")
	}
}

func TestResolve_ConcurrenciaUnSoloUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()

	const n = 8
	ids := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			u, err := NewResolver(store).Resolve(ctx, core.PlatformGoogle, "g-racy", "copito")
			if err != nil {
				errs <- err
				return
			}
			ids <- u.ID
		}()
	}

	var first string
	for i := 0; i < n; i++ {
		select {
		case err := <-errs:
			t.Fatalf("Resolve concurrente err: %v", err)
		case id := <-ids:
			if first == "" {
				first = id
			} else if id != first {
				t.Fatalf("ids divergentes: %q vs %q", id, first)
			}
		}
	}
}

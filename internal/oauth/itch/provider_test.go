package itch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/plazita/internal/auth"
	"github.com/dropDatabas3/plazita/internal/auth/identity"
	"github.com/dropDatabas3/plazita/internal/auth/session"
	"github.com/dropDatabas3/plazita/internal/auth/state"
	"github.com/dropDatabas3/plazita/internal/config"
	"github.com/dropDatabas3/plazita/internal/oauth"
	tokens "github.com/dropDatabas3/plazita/internal/security/token"
	"github.com/dropDatabas3/plazita/internal/store/core"
	"github.com/dropDatabas3/plazita/internal/store/memory"
)

// fakeItch sirve /key/me: responde según el token del header Authorization.
type fakeItch struct {
	srv *httptest.Server

	mu     sync.Mutex
	userID int64
	status int // 0 = 200 con user
	calls  int
}

func newFakeItch(t *testing.T) *fakeItch {
	t.Helper()
	f := &fakeItch{userID: 42}
	mux := http.NewServeMux()
	mux.HandleFunc("/key/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		status, userID := f.status, f.userID
		f.mu.Unlock()

		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"errors": []string{"invalid key"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{
				"id":           userID,
				"username":     "copito",
				"display_name": "Copito",
			},
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestProvider(t *testing.T, api *fakeItch) (*Provider, oauth.Deps) {
	t.Helper()
	store := memory.New()
	deps := oauth.Deps{
		Store:    store,
		States:   state.NewRegistry(store, 10*time.Minute),
		Identity: identity.NewResolver(store),
		Sessions: session.NewManager(store, session.DefaultTTL),
	}
	cfg := config.ItchProvider{
		Enabled:     true,
		ClientID:    "itch-cid",
		RedirectURI: "https://plaza.example/v2/auth/itch/callback",
	}
	p := New(cfg, deps)
	p.APIBaseURL = api.srv.URL
	return p, deps
}

func TestGenerateAuthURL_FlujoImplicit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestProvider(t, newFakeItch(t))

	pollID, _ := tokens.GenerateToken()
	req, err := p.GenerateAuthURL(ctx, pollID)
	if err != nil {
		t.Fatalf("GenerateAuthURL err: %v", err)
	}
	u, err := url.Parse(req.AuthURL)
	if err != nil {
		t.Fatalf("auth_url no parsea: %v", err)
	}
	q := u.Query()
	if q.Get("response_type") != "token" {
		t.Fatalf("response_type = %q, want token", q.Get("response_type"))
	}
	if q.Get("client_id") != "itch-cid" || q.Get("scope") != "profile:me" {
		t.Fatalf("query inesperada: %v", q)
	}
	// El poll id viaja embebido en el state para que el callback lo recupere.
	pl, err := state.Decode(q.Get("state"))
	if err != nil {
		t.Fatalf("state no decodifica: %v", err)
	}
	if pl.PollID != pollID {
		t.Fatalf("pollID = %q, want %q", pl.PollID, pollID)
	}
	if !p.RequiresRelay() {
		t.Fatal("itch debería requerir relay")
	}
}

func TestAuthenticate_TokenValido(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, deps := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	res, err := p.Authenticate(ctx, "tok-abc", req.State)
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	u := res.User
	if u.Platform != core.PlatformItch || u.PlatformUserID != "42" {
		t.Fatalf("identidad inesperada: %+v", u)
	}
	if u.Username != "copito" {
		t.Fatalf("username = %q", u.Username)
	}

	// La sesión guarda el token de Itch para re-validar después.
	sess, err := deps.Sessions.Validate(ctx, res.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("sesión no valida: (%v, %v)", sess, err)
	}
	if sess.PlatformSessionID != "tok-abc" {
		t.Fatalf("PlatformSessionID = %q, want el access token", sess.PlatformSessionID)
	}
}

func TestAuthenticate_StateQuemadoNoLlamaALaAPI(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, _ := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	if _, err := p.Authenticate(ctx, "tok-abc", req.State); err != nil {
		t.Fatalf("primer Authenticate err: %v", err)
	}
	api.mu.Lock()
	before := api.calls
	api.mu.Unlock()

	_, err := p.Authenticate(ctx, "tok-abc", req.State)
	if !auth.IsKind(err, auth.KindInvalidState) {
		t.Fatalf("err = %v, want KindInvalidState", err)
	}
	api.mu.Lock()
	after := api.calls
	api.mu.Unlock()
	if after != before {
		t.Fatalf("/key/me llamado tras replay: %d → %d", before, after)
	}
}

func TestAuthenticate_TokenVacio(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestProvider(t, newFakeItch(t))

	req, _ := p.GenerateAuthURL(ctx, "")
	_, err := p.Authenticate(ctx, "", req.State)
	if !auth.IsKind(err, auth.KindInvalidToken) {
		t.Fatalf("err = %v, want KindInvalidToken", err)
	}
}

func TestAuthenticate_TokenRechazado(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, _ := newTestProvider(t, api)
	api.mu.Lock()
	api.status = http.StatusUnauthorized
	api.mu.Unlock()

	req, _ := p.GenerateAuthURL(ctx, "")
	_, err := p.Authenticate(ctx, "tok-vencido", req.State)
	if !auth.IsKind(err, auth.KindInvalidToken) {
		t.Fatalf("err = %v, want KindInvalidToken", err)
	}
}

func TestAuthenticate_APICaida(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, _ := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	api.srv.Close()

	_, err := p.Authenticate(ctx, "tok-abc", req.State)
	if !auth.IsKind(err, auth.KindNetwork) {
		t.Fatalf("err = %v, want KindNetwork", err)
	}
}

func TestValidateSession_ReConfirmaYRechaza(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, deps := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	res, err := p.Authenticate(ctx, "tok-abc", req.State)
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	sess, _ := deps.Sessions.Validate(ctx, res.SessionID)

	// Token todavía válido en Itch: devuelve el user local.
	u, err := p.ValidateSession(ctx, sess)
	if err != nil || u == nil {
		t.Fatalf("ValidateSession = (%v, %v)", u, err)
	}
	if u.ID != res.User.ID {
		t.Fatalf("user distinto: %q vs %q", u.ID, res.User.ID)
	}

	// Itch revocó el token: rechazo explícito, (nil, nil).
	api.mu.Lock()
	api.status = http.StatusUnauthorized
	api.mu.Unlock()
	u, err = p.ValidateSession(ctx, sess)
	if err != nil || u != nil {
		t.Fatalf("tras revocación = (%v, %v), want (nil, nil)", u, err)
	}
}

func TestValidateSession_UserCambiadoEsRechazo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, deps := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	res, _ := p.Authenticate(ctx, "tok-abc", req.State)
	sess, _ := deps.Sessions.Validate(ctx, res.SessionID)

	// El token ahora resuelve a otro user de Itch: la sesión no es de él.
	api.mu.Lock()
	api.userID = 999
	api.mu.Unlock()
	u, err := p.ValidateSession(ctx, sess)
	if err != nil || u != nil {
		t.Fatalf("mismatch de user = (%v, %v), want (nil, nil)", u, err)
	}
}

func TestValidateSession_TransporteFalla(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeItch(t)
	p, deps := newTestProvider(t, api)

	req, _ := p.GenerateAuthURL(ctx, "")
	res, _ := p.Authenticate(ctx, "tok-abc", req.State)
	sess, _ := deps.Sessions.Validate(ctx, res.SessionID)

	api.srv.Close()
	_, err := p.ValidateSession(ctx, sess)
	// No se pudo confirmar: el caller decide fail-open.
	if !auth.IsKind(err, auth.KindNetwork) {
		t.Fatalf("err = %v, want KindNetwork", err)
	}
}

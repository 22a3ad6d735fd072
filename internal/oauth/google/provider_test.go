package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

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

const testIssuer = "https://idp.test"

// fakeIDP monta discovery, token endpoint y JWKS sobre httptest, firmando
// id_tokens con una clave RSA efímera.
type fakeIDP struct {
	key *rsa.PrivateKey
	srv *httptest.Server

	mu          sync.Mutex
	nonce       string // nonce a firmar en el próximo id_token
	sub         string
	tokenCalls  int
	tokenStatus int // 0 = ok
}

func newFakeIDP(t *testing.T) *fakeIDP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey err: %v", err)
	}
	idp := &fakeIDP{key: key, sub: "g-123"}

	mux := http.NewServeMux()
	mux.HandleFunc("/disc", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 testIssuer,
			"authorization_endpoint": idp.srv.URL + "/auth",
			"token_endpoint":         idp.srv.URL + "/token",
			"jwks_uri":               idp.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		idp.mu.Lock()
		idp.tokenCalls++
		status, nonce, sub := idp.tokenStatus, idp.nonce, idp.sub
		idp.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		now := time.Now()
		claims := jwtv5.MapClaims{
			"iss":            testIssuer,
			"aud":            "cid",
			"sub":            sub,
			"email":          "copito@example.com",
			"email_verified": true,
			"name":           "Copito",
			"iat":            now.Unix(),
			"exp":            now.Add(time.Hour).Unix(),
		}
		if nonce != "" {
			claims["nonce"] = nonce
		}
		tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
		tok.Header["kid"] = "k1"
		signed, err := tok.SignedString(key)
		if err != nil {
			w.WriteHeader(500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"id_token":     signed,
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

func (f *fakeIDP) setNonce(n string) {
	f.mu.Lock()
	f.nonce = n
	f.mu.Unlock()
}

func (f *fakeIDP) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func newTestProvider(t *testing.T, idp *fakeIDP) (*Provider, oauth.Deps) {
	t.Helper()
	store := memory.New()
	deps := oauth.Deps{
		Store:    store,
		States:   state.NewRegistry(store, 10*time.Minute),
		Identity: identity.NewResolver(store),
		Sessions: session.NewManager(store, session.DefaultTTL),
	}
	cfg := config.GoogleProvider{
		Enabled:      true,
		ClientID:     "cid",
		ClientSecret: "secreto",
		RedirectURI:  "https://plaza.example/v2/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
	}
	p := New(cfg, deps)
	p.OIDC.DiscoveryURL = idp.srv.URL + "/disc"
	p.OIDC.Issuers = []string{testIssuer}
	return p, deps
}

func TestGenerateAuthURL_ParametrosYState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, deps := newTestProvider(t, idp)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	deps.States.SetNowForTests(func() time.Time { return t0 })

	req, err := p.GenerateAuthURL(ctx, "")
	if err != nil {
		t.Fatalf("GenerateAuthURL err: %v", err)
	}
	if !tokens.IsToken(req.State) {
		t.Fatalf("state no es 64-hex: %q", req.State)
	}
	if want := t0.Add(10 * time.Minute); !req.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", req.ExpiresAt, want)
	}

	u, err := url.Parse(req.AuthURL)
	if err != nil {
		t.Fatalf("auth_url no parsea: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "cid" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://plaza.example/v2/auth/google/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "openid email profile" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != req.State || q.Get("nonce") != req.State {
		t.Fatalf("state/nonce en URL no matchean: state=%q nonce=%q", q.Get("state"), q.Get("nonce"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
}

func TestGenerateAuthURL_SinConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	deps := oauth.Deps{
		Store:    store,
		States:   state.NewRegistry(store, 10*time.Minute),
		Identity: identity.NewResolver(store),
		Sessions: session.NewManager(store, session.DefaultTTL),
	}
	p := New(config.GoogleProvider{Enabled: true}, deps)

	_, err := p.GenerateAuthURL(ctx, "")
	if !auth.IsKind(err, auth.KindConfiguration) {
		t.Fatalf("err = %v, want KindConfiguration", err)
	}
	// El mensaje enumera qué falta, sin filtrar secretos.
	if !strings.Contains(err.Error(), "GOOGLE_CLIENT_ID") {
		t.Fatalf("err no enumera variables faltantes: %v", err)
	}
}

func TestAuthenticate_PrimerLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, deps := newTestProvider(t, idp)

	req, err := p.GenerateAuthURL(ctx, "")
	if err != nil {
		t.Fatalf("GenerateAuthURL err: %v", err)
	}
	idp.setNonce(req.State)

	res, err := p.Authenticate(ctx, "code-1", req.State)
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	if !tokens.IsToken(res.SessionID) {
		t.Fatalf("session id no es 64-hex: %q", res.SessionID)
	}
	u := res.User
	if u.Platform != core.PlatformGoogle || u.PlatformUserID != "g-123" {
		t.Fatalf("identidad inesperada: %+v", u)
	}
	if u.Username != "Copito" || u.IsAdmin {
		t.Fatalf("user inesperado: %+v", u)
	}

	sess, err := deps.Sessions.Validate(ctx, res.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("la sesión emitida no valida: (%v, %v)", sess, err)
	}
	if sess.UserID != u.ID {
		t.Fatalf("sesión de otro user: %q vs %q", sess.UserID, u.ID)
	}
}

func TestAuthenticate_StateQuemadoNoLlamaAlProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	req, _ := p.GenerateAuthURL(ctx, "")
	idp.setNonce(req.State)
	if _, err := p.Authenticate(ctx, "code-1", req.State); err != nil {
		t.Fatalf("primer Authenticate err: %v", err)
	}
	before := idp.calls()

	// Replay del mismo state: muere antes de tocar la red.
	_, err := p.Authenticate(ctx, "code-2", req.State)
	if !auth.IsKind(err, auth.KindInvalidState) {
		t.Fatalf("err = %v, want KindInvalidState", err)
	}
	if idp.calls() != before {
		t.Fatalf("token endpoint llamado %d veces tras replay, want %d", idp.calls(), before)
	}
}

func TestAuthenticate_StateDesconocido(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	unknown, _ := tokens.GenerateToken()
	_, err := p.Authenticate(ctx, "code-1", unknown)
	if !auth.IsKind(err, auth.KindInvalidState) {
		t.Fatalf("err = %v, want KindInvalidState", err)
	}
	if idp.calls() != 0 {
		t.Fatalf("token endpoint llamado %d veces, want 0", idp.calls())
	}
}

func TestAuthenticate_CodeRechazado(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	req, _ := p.GenerateAuthURL(ctx, "")
	idp.mu.Lock()
	idp.tokenStatus = 401
	idp.mu.Unlock()

	_, err := p.Authenticate(ctx, "code-malo", req.State)
	if !auth.IsKind(err, auth.KindInvalidToken) {
		t.Fatalf("err = %v, want KindInvalidToken", err)
	}
}

func TestAuthenticate_NonceAjeno(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	req, _ := p.GenerateAuthURL(ctx, "")
	// El id_token viene firmado con el nonce de OTRO intento.
	other, _ := tokens.GenerateToken()
	idp.setNonce(other)

	_, err := p.Authenticate(ctx, "code-1", req.State)
	if !auth.IsKind(err, auth.KindInvalidToken) {
		t.Fatalf("err = %v, want KindInvalidToken", err)
	}
}

func TestAuthenticate_ProviderCaido(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	req, _ := p.GenerateAuthURL(ctx, "")
	idp.srv.Close()

	_, err := p.Authenticate(ctx, "code-1", req.State)
	if !auth.IsKind(err, auth.KindNetwork) {
		t.Fatalf("err = %v, want KindNetwork", err)
	}
}

func TestAuthenticate_ReLoginMismaIdentidad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIDP(t)
	p, _ := newTestProvider(t, idp)

	req1, _ := p.GenerateAuthURL(ctx, "")
	idp.setNonce(req1.State)
	first, err := p.Authenticate(ctx, "code-1", req1.State)
	if err != nil {
		t.Fatalf("primer Authenticate err: %v", err)
	}

	req2, _ := p.GenerateAuthURL(ctx, "")
	idp.setNonce(req2.State)
	second, err := p.Authenticate(ctx, "code-2", req2.State)
	if err != nil {
		t.Fatalf("segundo Authenticate err: %v", err)
	}
	// Mismo sub de Google = mismo user local, sin duplicar filas.
	if first.User.ID != second.User.ID {
		t.Fatalf("re-login creó otro user: %q vs %q", first.User.ID, second.User.ID)
	}
}

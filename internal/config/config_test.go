package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.App.Env != "dev" || c.Server.Addr != ":8080" {
		t.Fatalf("defaults de app/server: %+v", c)
	}
	if c.Storage.Driver != "postgres" || c.Cache.Kind != "memory" {
		t.Fatalf("defaults de storage/cache: %+v", c)
	}
	if c.Auth.Session.CookieName != "plazita_session" {
		t.Fatalf("cookie = %q", c.Auth.Session.CookieName)
	}
	if c.Auth.Session.TTL != 7*24*time.Hour {
		t.Fatalf("session ttl = %v", c.Auth.Session.TTL)
	}
	if c.Auth.StateTTL != 10*time.Minute || c.Auth.RelayTTL != 10*time.Minute {
		t.Fatalf("ttls = %v / %v", c.Auth.StateTTL, c.Auth.RelayTTL)
	}
	if c.Auth.RelaySweep != 5*time.Minute {
		t.Fatalf("relay sweep = %v", c.Auth.RelaySweep)
	}
	if len(c.Providers.Google.Scopes) != 3 || c.Providers.Google.Scopes[0] != "openid" {
		t.Fatalf("scopes default = %v", c.Providers.Google.Scopes)
	}
}

func TestLoad_YAMLMasEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
server:
  addr: ":9090"
auth:
  state_ttl: 5m
providers:
  google:
    enabled: true
    client_id: desde-yaml
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile err: %v", err)
	}
	// El entorno pisa al yaml.
	t.Setenv("GOOGLE_CLIENT_ID", "desde-env")
	t.Setenv("SESSION_TTL", "48h")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.App.Env != "prod" || c.Server.Addr != ":9090" {
		t.Fatalf("yaml no aplicó: %+v", c.App)
	}
	if c.Auth.StateTTL != 5*time.Minute {
		t.Fatalf("state_ttl = %v", c.Auth.StateTTL)
	}
	if c.Providers.Google.ClientID != "desde-env" {
		t.Fatalf("client_id = %q, want override de env", c.Providers.Google.ClientID)
	}
	if c.Auth.Session.TTL != 48*time.Hour {
		t.Fatalf("session ttl = %v, want 48h", c.Auth.Session.TTL)
	}
}

func TestLoad_ArchivoInexistente(t *testing.T) {
	if _, err := Load("/no/existe/config.yaml"); err == nil {
		t.Fatal("Load de path inexistente sin error")
	}
}

func TestMissing_PorProvider(t *testing.T) {
	t.Parallel()

	g := GoogleProvider{ClientID: "cid"}
	got := g.Missing()
	if len(got) != 2 || got[0] != "GOOGLE_CLIENT_SECRET" || got[1] != "GOOGLE_REDIRECT_URI" {
		t.Fatalf("google missing = %v", got)
	}

	i := ItchProvider{}
	if got := i.Missing(); len(got) != 2 {
		t.Fatalf("itch missing = %v", got)
	}

	l := LegacyProvider{VerifyURL: "https://plaza.example/verify"}
	if got := l.Missing(); len(got) != 0 {
		t.Fatalf("legacy missing = %v", got)
	}
}

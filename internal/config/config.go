package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Auth struct {
		Session struct {
			CookieName string        `yaml:"cookie_name"`
			Domain     string        `yaml:"domain"`
			SameSite   string        `yaml:"samesite"`
			Secure     bool          `yaml:"secure"`
			TTL        time.Duration `yaml:"ttl"`
		} `yaml:"session"`
		// StateTTL acota tanto el state anti-CSRF como la URL de
		// autorización que lo transporta.
		StateTTL   time.Duration `yaml:"state_ttl"`
		RelayTTL   time.Duration `yaml:"relay_ttl"`
		RelaySweep time.Duration `yaml:"relay_sweep"`
	} `yaml:"auth"`

	Providers struct {
		Google GoogleProvider `yaml:"google"`
		Itch   ItchProvider   `yaml:"itch"`
		Legacy LegacyProvider `yaml:"legacy"`
	} `yaml:"providers"`
}

type GoogleProvider struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`
}

// Missing enumera las variables de entorno requeridas que faltan.
// Vacío significa configuración completa.
func (p GoogleProvider) Missing() []string {
	var out []string
	if strings.TrimSpace(p.ClientID) == "" {
		out = append(out, "GOOGLE_CLIENT_ID")
	}
	if strings.TrimSpace(p.ClientSecret) == "" {
		out = append(out, "GOOGLE_CLIENT_SECRET")
	}
	if strings.TrimSpace(p.RedirectURI) == "" {
		out = append(out, "GOOGLE_REDIRECT_URI")
	}
	return out
}

type ItchProvider struct {
	Enabled     bool   `yaml:"enabled"`
	ClientID    string `yaml:"client_id"`
	RedirectURI string `yaml:"redirect_uri"`
}

// Missing enumera las variables de entorno requeridas que faltan.
// Itch usa response_type=token: no hay client_secret.
func (p ItchProvider) Missing() []string {
	var out []string
	if strings.TrimSpace(p.ClientID) == "" {
		out = append(out, "ITCH_CLIENT_ID")
	}
	if strings.TrimSpace(p.RedirectURI) == "" {
		out = append(out, "ITCH_REDIRECT_URI")
	}
	return out
}

type LegacyProvider struct {
	Enabled bool `yaml:"enabled"`
	// VerifyURL es el endpoint del servicio legacy que confirma un
	// session-token y devuelve la identidad.
	VerifyURL string `yaml:"verify_url"`
	LoginURL  string `yaml:"login_url"`
}

// Missing enumera las variables de entorno requeridas que faltan.
func (p LegacyProvider) Missing() []string {
	var out []string
	if strings.TrimSpace(p.VerifyURL) == "" {
		out = append(out, "LEGACY_VERIFY_URL")
	}
	return out
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "plazita_session"
	}
	if c.Auth.Session.TTL <= 0 {
		c.Auth.Session.TTL = 7 * 24 * time.Hour
	}
	if c.Auth.StateTTL <= 0 {
		c.Auth.StateTTL = 10 * time.Minute
	}
	if c.Auth.RelayTTL <= 0 {
		c.Auth.RelayTTL = 10 * time.Minute
	}
	if c.Auth.RelaySweep <= 0 {
		c.Auth.RelaySweep = 5 * time.Minute
	}
	if len(c.Providers.Google.Scopes) == 0 {
		c.Providers.Google.Scopes = []string{"openid", "email", "profile"}
	}

	return &c, nil
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Auth.Session.CookieName = v
	}
	if v, ok := getEnvDur("SESSION_TTL"); ok {
		c.Auth.Session.TTL = v
	}
	if v, ok := getEnvDur("AUTH_STATE_TTL"); ok {
		c.Auth.StateTTL = v
	}
	if v, ok := getEnvDur("RELAY_TTL"); ok {
		c.Auth.RelayTTL = v
	}
	if v, ok := getEnvDur("RELAY_SWEEP"); ok {
		c.Auth.RelaySweep = v
	}

	// ───── Providers ─────
	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Providers.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_REDIRECT_URI"); ok {
		c.Providers.Google.RedirectURI = v
	}
	if v, ok := getEnvCSV("GOOGLE_SCOPES"); ok && len(v) > 0 {
		c.Providers.Google.Scopes = v
	}

	if v, ok := getEnvBool("ITCH_ENABLED"); ok {
		c.Providers.Itch.Enabled = v
	}
	if v, ok := getEnvStr("ITCH_CLIENT_ID"); ok {
		c.Providers.Itch.ClientID = v
	}
	if v, ok := getEnvStr("ITCH_REDIRECT_URI"); ok {
		c.Providers.Itch.RedirectURI = v
	}

	if v, ok := getEnvBool("LEGACY_ENABLED"); ok {
		c.Providers.Legacy.Enabled = v
	}
	if v, ok := getEnvStr("LEGACY_VERIFY_URL"); ok {
		c.Providers.Legacy.VerifyURL = v
	}
	if v, ok := getEnvStr("LEGACY_LOGIN_URL"); ok {
		c.Providers.Legacy.LoginURL = v
	}
}

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && strings.TrimSpace(v) != ""
}

func getEnvInt(key string) (int, bool) {
	if v, ok := getEnvStr(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if v, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if v, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if v, ok := getEnvStr(key); ok {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env" validate:"omitempty,oneof=dev staging prod"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver" validate:"omitempty,oneof=memory postgres"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind" validate:"omitempty,oneof=memory redis"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	OAuth struct {
		Issuer string `yaml:"issuer" validate:"required,url"`
		// base64 (raw o estándar) de la clave HMAC del sitio
		SigningKey string `yaml:"signing_key" validate:"required"`
		TokenTTL   string `yaml:"token_ttl"`
		CodeTTL    string `yaml:"code_ttl"`
		// TTL de los tokens de continuación del flujo authorize
		ContinuationTTL string `yaml:"continuation_ttl"`
		// Cuando true, no se exige el scope "openid" (modo no-OIDC).
		DisableOpenIDScopeCheck bool `yaml:"disable_openid_scope_check"`
		// URL de la pantalla de login a la que se redirige sin sesión
		LoginURL string `yaml:"login_url"`
	} `yaml:"oauth"`

	Auth struct {
		Session struct {
			CookieName string `yaml:"cookie_name"`
			SameSite   string `yaml:"samesite" validate:"omitempty,oneof=Lax Strict None"`
			Secure     bool   `yaml:"secure"`
			TTL        string `yaml:"ttl"`
		} `yaml:"session"`
	} `yaml:"auth"`

	// Seeding de desarrollo (driver memory).
	Seed struct {
		Clients []SeedClient `yaml:"clients"`
		Users   []SeedUser   `yaml:"users"`
	} `yaml:"seed"`
}

type SeedClient struct {
	ClientID     string   `yaml:"client_id" validate:"required"`
	Name         string   `yaml:"name"`
	Secret       string   `yaml:"secret"`
	RedirectURIs []string `yaml:"redirect_uris" validate:"required,min=1,dive,url"`
}

type SeedUser struct {
	ID            string `yaml:"id"`
	Username      string `yaml:"username" validate:"required"`
	Email         string `yaml:"email" validate:"omitempty,email"`
	EmailVerified bool   `yaml:"email_verified"`
	Name          string `yaml:"name"`
}

var validate = validator.New()

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "janus"
	}
	if c.OAuth.TokenTTL == "" {
		c.OAuth.TokenTTL = "24h"
	}
	if c.OAuth.CodeTTL == "" {
		c.OAuth.CodeTTL = "10m"
	}
	if c.OAuth.ContinuationTTL == "" {
		c.OAuth.ContinuationTTL = "1h"
	}
	if c.OAuth.LoginURL == "" {
		c.OAuth.LoginURL = "/login"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "sid"
	}
	if c.Auth.Session.SameSite == "" {
		c.Auth.Session.SameSite = "Lax"
	}
	if c.Auth.Session.TTL == "" {
		c.Auth.Session.TTL = "12h"
	}
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
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
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("OAUTH_ISSUER"); ok {
		c.OAuth.Issuer = v
	}
	if v, ok := getEnvStr("OAUTH_SIGNING_KEY"); ok {
		c.OAuth.SigningKey = v
	}
	if v, ok := getEnvStr("OAUTH_TOKEN_TTL"); ok {
		c.OAuth.TokenTTL = v
	}
	if v, ok := getEnvStr("OAUTH_CODE_TTL"); ok {
		c.OAuth.CodeTTL = v
	}
	if v, ok := getEnvStr("OAUTH_CONTINUATION_TTL"); ok {
		c.OAuth.ContinuationTTL = v
	}
	if v, ok := getEnvBool("OAUTH_DISABLE_OPENID_SCOPE_CHECK"); ok {
		c.OAuth.DisableOpenIDScopeCheck = v
	}
	if v, ok := getEnvStr("OAUTH_LOGIN_URL"); ok {
		c.OAuth.LoginURL = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Auth.Session.CookieName = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Auth.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Auth.Session.TTL = v
	}
}

// Validate corre las reglas struct-tag y las que no se expresan como tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.SigningKeyBytes(); err != nil {
		return err
	}
	for _, field := range []struct{ name, val string }{
		{"oauth.token_ttl", c.OAuth.TokenTTL},
		{"oauth.code_ttl", c.OAuth.CodeTTL},
		{"oauth.continuation_ttl", c.OAuth.ContinuationTTL},
		{"auth.session.ttl", c.Auth.Session.TTL},
	} {
		if _, err := time.ParseDuration(field.val); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn requerido con driver postgres")
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr requerido con kind redis")
	}
	return nil
}

// SigningKeyBytes decodifica la clave HMAC (acepta base64 estándar o url-safe).
func (c *Config) SigningKeyBytes() ([]byte, error) {
	s := strings.TrimSpace(c.OAuth.SigningKey)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			if len(b) < 32 {
				return nil, fmt.Errorf("oauth.signing_key: mínimo 32 bytes, hay %d", len(b))
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("oauth.signing_key: base64 inválido")
}

// Duraciones ya validadas; los helpers devuelven el valor parseado.

func (c *Config) TokenTTL() time.Duration        { return mustDur(c.OAuth.TokenTTL) }
func (c *Config) CodeTTL() time.Duration         { return mustDur(c.OAuth.CodeTTL) }
func (c *Config) ContinuationTTL() time.Duration { return mustDur(c.OAuth.ContinuationTTL) }
func (c *Config) SessionTTL() time.Duration      { return mustDur(c.Auth.Session.TTL) }

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dropDatabas3/janus/internal/config"
)

const minimalYAML = `
oauth:
  issuer: "https://auth.example"
  signing_key: "ZGV2LW9ubHkta2V5LWRldi1vbmx5LWtleS1kZXYtb25seS1rZXkh"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr default: %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" || cfg.Cache.Kind != "memory" {
		t.Fatalf("driver defaults: %q / %q", cfg.Storage.Driver, cfg.Cache.Kind)
	}
	if cfg.TokenTTL() != 24*time.Hour || cfg.CodeTTL() != 10*time.Minute {
		t.Fatalf("ttl defaults: %v / %v", cfg.TokenTTL(), cfg.CodeTTL())
	}
	if cfg.ContinuationTTL() != time.Hour || cfg.SessionTTL() != 12*time.Hour {
		t.Fatalf("ttl defaults: %v / %v", cfg.ContinuationTTL(), cfg.SessionTTL())
	}
	if cfg.OAuth.LoginURL != "/login" || cfg.Auth.Session.CookieName != "sid" {
		t.Fatalf("defaults: %q / %q", cfg.OAuth.LoginURL, cfg.Auth.Session.CookieName)
	}

	key, err := cfg.SigningKeyBytes()
	if err != nil {
		t.Fatalf("signing key: %v", err)
	}
	if len(key) < 32 {
		t.Fatalf("key too short: %d", len(key))
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("OAUTH_TOKEN_TTL", "1h")
	t.Setenv("OAUTH_DISABLE_OPENID_SCOPE_CHECK", "true")

	cfg, err := config.Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("env addr: %q", cfg.Server.Addr)
	}
	if cfg.TokenTTL() != time.Hour {
		t.Fatalf("env ttl: %v", cfg.TokenTTL())
	}
	if !cfg.OAuth.DisableOpenIDScopeCheck {
		t.Fatal("env bool override lost")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing issuer": `
oauth:
  signing_key: "ZGV2LW9ubHkta2V5LWRldi1vbmx5LWtleS1kZXYtb25seS1rZXkh"
`,
		"short key": `
oauth:
  issuer: "https://auth.example"
  signing_key: "c2hvcnQ="
`,
		"bad ttl": `
oauth:
  issuer: "https://auth.example"
  signing_key: "ZGV2LW9ubHkta2V5LWRldi1vbmx5LWtleS1kZXYtb25seS1rZXkh"
  token_ttl: "soon"
`,
		"postgres without dsn": `
storage:
  driver: postgres
oauth:
  issuer: "https://auth.example"
  signing_key: "ZGV2LW9ubHkta2V5LWRldi1vbmx5LWtleS1kZXYtb25seS1rZXkh"
`,
		"redis without addr": `
cache:
  kind: redis
oauth:
  issuer: "https://auth.example"
  signing_key: "ZGV2LW9ubHkta2V5LWRldi1vbmx5LWtleS1kZXYtb25seS1rZXkh"
`,
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Load(writeConfig(t, yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

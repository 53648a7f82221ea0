// internal/config/loader_test.go
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeGlobalYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAY_ROOT", root)
	return root
}

const minimalYAML = `
bot:
  token: "123:abc"
  admin_ids: [7, 42]
database:
  dsn: "relay:%s@tcp(localhost:3306)/relay?parseTime=true"
ops:
  listen_addr: ":9090"
`

func TestLoad_MinimalWithDefaults(t *testing.T) {
	root := writeGlobalYAML(t, minimalYAML)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Token != "123:abc" || len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[1] != 42 {
		t.Fatalf("bot section wrong: %+v", cfg.Bot)
	}
	if cfg.Admin.IdleTTL != DefaultIdleTTL {
		t.Fatalf("idle_ttl default not applied: %v", cfg.Admin.IdleTTL)
	}
	if cfg.Debug.SinkPath != filepath.Join(root, "logs", "debug_updates.jsonl") {
		t.Fatalf("sink path default wrong: %s", cfg.Debug.SinkPath)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root not recorded: %s", cfg.Paths.Root)
	}
	if Get() != cfg {
		t.Fatal("Load must cache the config for Get")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeGlobalYAML(t, minimalYAML)
	t.Setenv("RELAY_OPS__LISTEN_ADDR", ":9999")
	t.Setenv("RELAY_ADMIN__IDLE_TTL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ops.ListenAddr != ":9999" {
		t.Fatalf("env override lost: %s", cfg.Ops.ListenAddr)
	}
	if cfg.Admin.IdleTTL != 15*time.Minute {
		t.Fatalf("idle_ttl override lost: %v", cfg.Admin.IdleTTL)
	}
}

func TestLoad_MissingTokenFailsValidation(t *testing.T) {
	writeGlobalYAML(t, `
bot:
  admin_ids: [7]
database:
  dsn: "relay@tcp(localhost)/relay"
`)
	if _, err := Load(); err == nil {
		t.Fatal("want validation error for missing bot.token")
	}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := m[ref]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown ref %q", ref)
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Bot.Token = "vault:kv/relay#bot_token"
	cfg.Database.DSN = "relay:%s@tcp(localhost)/relay"
	cfg.Database.Password = "vault:kv/relay#db_password"

	r := mapResolver{
		"vault:kv/relay#bot_token":   "123:abc",
		"vault:kv/relay#db_password": "hunter2",
	}
	if err := cfg.ResolveSecrets(context.Background(), r); err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if cfg.Bot.Token != "123:abc" || cfg.Database.Password != "hunter2" {
		t.Fatalf("secrets not replaced: %+v", cfg)
	}
	if !strings.Contains(cfg.Database.DSN, "%s") {
		t.Fatal("plain DSN must pass through untouched")
	}
}

func TestResolveSecrets_NilResolverWithRefs(t *testing.T) {
	cfg := &Config{}
	cfg.Bot.Token = "vault:kv/relay#bot_token"
	if err := cfg.ResolveSecrets(context.Background(), nil); err == nil {
		t.Fatal("want error when a vault reference has no resolver")
	}
}

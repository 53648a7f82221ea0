// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `RELAY_`, where `__` maps to “.”
     (e.g., `RELAY_BOT__TOKEN → bot.token`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path and defaults, and cached in
an `atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Secret values may be written as `vault:<mount/path>#<key>`; ResolveSecrets
replaces them in place through the Vault client before the value is used.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/bot` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

// DefaultIdleTTL applies when admin.idle_ttl is absent from every layer.
const DefaultIdleTTL = 30 * time.Minute

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves RELAY_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("RELAY_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: RELAY_BOT__TOKEN → bot.token
	if err := k.Load(env.Provider("RELAY_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if !k.Exists("admin.idle_ttl") {
		cfg.Admin.IdleTTL = DefaultIdleTTL
	}
	if cfg.Debug.SinkPath == "" {
		cfg.Debug.SinkPath = filepath.Join(root, "logs", "debug_updates.jsonl")
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"admins", len(cfg.Bot.AdminIDs),
		"ops_addr", cfg.Ops.ListenAddr,
		"idle_ttl", cfg.Admin.IdleTTL,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*────────────────────────── secret resolution ─────────────────────────────*/

// SecretResolver turns a `vault:` reference into its plaintext value.  The
// Vault client satisfies this; tests substitute a map-backed fake.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ResolveSecrets replaces every `vault:`-prefixed field of cfg in place.
// Call it after Load() and before the values are used; a nil resolver with
// vault references present is an error.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	for _, f := range []*string{&c.Bot.Token, &c.Database.Password, &c.Database.DSN} {
		val, err := resolveOne(ctx, r, *f)
		if err != nil {
			return err
		}
		*f = val
	}
	return nil
}

func resolveOne(ctx context.Context, r SecretResolver, val string) (string, error) {
	if !strings.HasPrefix(val, "vault:") {
		return val, nil
	}
	if r == nil {
		return "", errVaultUnavailable(val)
	}
	return r.Resolve(ctx, val)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }

// internal/config/model.go
//
// Typed configuration model for the relay.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `RELAY_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client after unmarshalling, so the rest of the app
// never sees Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the bot fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// Bot section
//

// Bot holds the messaging-platform credentials and the administrator set.
type Bot struct {
	Token    string  `koanf:"token"     validate:"required"`
	AdminIDs []int64 `koanf:"admin_ids" validate:"required,min=1"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* portion (`Password`) is
// stored in Vault and injected at runtime, keeping credentials out of flat
// files and git history.  The template carries one %s verb where the
// password goes.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password"`
}

//
// Admin section
//

// Admin holds session-lifecycle tunables.
type Admin struct {
	// IdleTTL evicts admin sessions idle longer than this.  Zero disables
	// the sweeper.
	IdleTTL time.Duration `koanf:"idle_ttl"`
}

//
// Debug section
//

// Debug holds the update-recorder sink location.
type Debug struct {
	SinkPath string `koanf:"sink_path"`
}

//
// Ops section
//

// Ops holds the operational HTTP endpoint (metrics and health).  An empty
// listen address disables the server.
type Ops struct {
	ListenAddr string `koanf:"listen_addr" validate:"omitempty,hostname_port"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or RELAY_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // RELAY_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	Bot      Bot      `koanf:"bot"`
	Database Database `koanf:"database"`
	Admin    Admin    `koanf:"admin"`
	Debug    Debug    `koanf:"debug"`
	Ops      Ops      `koanf:"ops"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

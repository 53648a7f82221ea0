// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the bot never runs
// with partial, malformed, or missing configuration.
//
// The rules in play are `required` on `Bot.Token` and `Bot.AdminIDs`, plus
// `hostname_port` on the ops listen address.  Additional custom rules—
// e.g., “dsn must contain exactly one %s verb”—can be registered here as
// the configuration surface grows.

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

func errVaultUnavailable(ref string) error {
	return fmt.Errorf("config value %q needs Vault, but no resolver is configured", ref)
}

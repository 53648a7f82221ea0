// cmd/bot/main.go
//
// Topic Relay – bot entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load layered configuration and resolve `vault:` secret references.
//
//  4. Open MySQL, apply schema migrations, and build the store.
//
//  5. Build the routing table and publish the first snapshot.
//
//  6. Wire the debug recorder, the admin session manager, and the message
//     router into the Telegram transport.
//
//  7. Expose /metrics and /healthz on the ops listener, then block on the
//     long-poll loop until SIGINT/SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/topicrelay/internal/admin"
	"github.com/yanizio/topicrelay/internal/config"
	"github.com/yanizio/topicrelay/internal/database"
	"github.com/yanizio/topicrelay/internal/debuglog"
	"github.com/yanizio/topicrelay/internal/logger"
	"github.com/yanizio/topicrelay/internal/routing"
	"github.com/yanizio/topicrelay/internal/server"
	"github.com/yanizio/topicrelay/internal/store"
	"github.com/yanizio/topicrelay/internal/telegram"
	"github.com/yanizio/topicrelay/internal/vault"
)

const serverEnvPath = "/usr/local/etc/topicrelay/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	// Vault is only dialed when a config value actually references it.
	if hasVaultRefs(cfg) {
		cli, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if err := cfg.ResolveSecrets(ctx, cli); err != nil {
			logOut.Fatalf("resolve secrets: %v", err)
		}
	}

	//
	// ── 2.  Database ────────────────────────────────────────────────────
	//
	dsn := cfg.Database.DSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, cfg.Database.Password)
	}
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		logOut.Fatalf("migrate schema: %v", err)
	}
	st := store.New(db)
	logOut.Infow("database online")

	//
	// ── 3.  Routing table ───────────────────────────────────────────────
	//
	table := routing.NewTable(st, logOut)
	if _, err := table.Reload(ctx); err != nil {
		logOut.Fatalf("initial snapshot load: %v", err)
	}

	//
	// ── 4.  Domain surfaces ─────────────────────────────────────────────
	//
	debug := debuglog.New(cfg.Debug.SinkPath, logOut)
	mgr := admin.NewManager(st, table, debug, cfg.Bot.AdminIDs, cfg.Admin.IdleTTL, logOut)
	defer mgr.Close()

	tg, err := telegram.New(cfg.Bot.Token, mgr, routing.NewRouter(table), debug, logOut)
	if err != nil {
		logOut.Fatalf("telegram client: %v", err)
	}

	//
	// ── 5.  Ops endpoint ────────────────────────────────────────────────
	//
	if addr := cfg.Ops.ListenAddr; addr != "" {
		ops := server.New(addr, server.OpsHandler(db))
		go func() {
			logOut.Infow("ops endpoint listening", "addr", addr)
			if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logOut.Errorw("ops endpoint failed", "err", err)
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ops.Shutdown(shCtx)
		}()
	}

	//
	// ── 6.  Long poll until shutdown ────────────────────────────────────
	//
	tg.Run(ctx)
	logOut.Infow("shutdown complete")
}

// hasVaultRefs reports whether any secret-capable field still carries a
// vault: reference after the overlay merge.
func hasVaultRefs(cfg *config.Config) bool {
	for _, v := range []string{cfg.Bot.Token, cfg.Database.Password, cfg.Database.DSN} {
		if strings.HasPrefix(v, "vault:") {
			return true
		}
	}
	return false
}

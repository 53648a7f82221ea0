// internal/telegram/bot.go
//
// Telegram transport.
//
// Context
// -------
// This package is the only one that speaks Telegram.  It owns the long-poll
// loop, classifies every update, and hands the payload to the two domain
// surfaces: the admin session manager for private dialogue, and the routing
// table for channel traffic.  Domain packages never see Telegram types, so
// their tests run without the network.
package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/yanizio/topicrelay/internal/admin"
	"github.com/yanizio/topicrelay/internal/debuglog"
	"github.com/yanizio/topicrelay/internal/routing"
)

// Bot couples the Telegram client to the domain surfaces.
type Bot struct {
	api    *bot.Bot
	admin  *admin.Manager
	router *routing.Router
	debug  *debuglog.Recorder
	log    *zap.SugaredLogger
}

// New builds the client.  The default handler receives every update the
// long poller delivers; no per-command handlers are registered so routing
// stays in one place (see handler.go).
func New(
	token string,
	mgr *admin.Manager,
	router *routing.Router,
	debug *debuglog.Recorder,
	log *zap.SugaredLogger,
) (*Bot, error) {
	b := &Bot{admin: mgr, router: router, debug: debug, log: log}

	api, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, err
	}
	b.api = api
	return b, nil
}

// Run blocks on the long-poll loop until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.log.Infow("telegram long poll started")
	b.api.Start(ctx)
	b.log.Infow("telegram long poll stopped")
}

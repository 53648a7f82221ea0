// internal/telegram/handler.go
//
// Update classification and dispatch.
//
// Order matters: the debug recorder sees the raw update first, then the
// update is classified.  Callback queries and private messages belong to
// the admin dialogue; everything arriving in a group, supergroup, or
// channel is routing traffic.
package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/yanizio/topicrelay/internal/routing"
)

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.debug.Record("update", update)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.ChannelPost != nil:
		b.routeMessage(ctx, update.ChannelPost)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *models.CallbackQuery) {
	// Ack first so the client stops its spinner even if handling fails.
	_, err := b.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})
	if err != nil {
		b.log.Warnw("callback ack failed", "err", err)
	}

	if cq.Message.Message == nil {
		// Inaccessible origin message: handle the action, reply nowhere.
		b.admin.HandleAction(ctx, cq.From.ID, cq.Data)
		return
	}
	chatID := cq.Message.Message.Chat.ID

	replies := b.admin.HandleAction(ctx, cq.From.ID, cq.Data)
	b.sendReplies(ctx, chatID, replies)
}

func (b *Bot) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.Chat.Type != models.ChatTypePrivate {
		b.routeMessage(ctx, msg)
		return
	}
	if msg.From == nil {
		return
	}

	if cmd, ok := parseCommand(msg.Text); ok {
		replies := b.admin.HandleCommand(ctx, msg.From.ID, cmd)
		b.sendReplies(ctx, msg.Chat.ID, replies)
		return
	}
	replies := b.admin.HandleText(ctx, msg.From.ID, msg.Text)
	b.sendReplies(ctx, msg.Chat.ID, replies)
}

// routeMessage runs channel traffic through the routing table and executes
// the decision.
func (b *Bot) routeMessage(ctx context.Context, msg *models.Message) {
	name, username, senderID := senderIdentity(msg)
	decision := b.router.Route(routing.Message{
		ChannelID:      strconv.FormatInt(msg.Chat.ID, 10),
		Text:           msg.Text,
		SenderName:     name,
		SenderUsername: username,
		SenderID:       senderID,
	})
	b.executeDecision(ctx, msg, decision)
}

// parseCommand recognizes `/word` at the start of a private message and
// returns the bare word.  Telegram appends an @botname suffix when the
// command comes from an inline mention; that suffix is stripped.
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word := strings.Fields(text)[0][1:]
	if word == "" {
		return "", false
	}
	word, _, _ = strings.Cut(word, "@")
	return word, word != ""
}

// senderIdentity extracts whoever authored the message.  Channel posts
// carry no From; the channel title stands in so forwarded sender info
// still names the origin.
func senderIdentity(msg *models.Message) (name, username string, id int64) {
	if msg.From != nil {
		name = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		return name, msg.From.Username, msg.From.ID
	}
	return msg.Chat.Title, "", msg.Chat.ID
}

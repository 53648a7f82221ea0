// internal/telegram/send.go
//
// Outbound rendering: routing decisions and admin replies to API calls.
package telegram

import (
	"bytes"
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/yanizio/topicrelay/internal/admin"
	"github.com/yanizio/topicrelay/internal/metrics"
	"github.com/yanizio/topicrelay/internal/routing"
)

func (b *Bot) executeDecision(ctx context.Context, origin *models.Message, d routing.Decision) {
	switch d.Kind {
	case routing.Forward:
		_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          d.TargetChatID,
			MessageThreadID: int(d.ThreadID),
			Text:            d.Text,
		})
		if err != nil {
			b.log.Errorw("forward failed",
				"target", d.TargetChatID, "thread", d.ThreadID, "err", err)
			return
		}
		metrics.MessagesForwardedTotal.Inc()
		b.log.Infow("message forwarded",
			"from", origin.Chat.ID, "target", d.TargetChatID, "thread", d.ThreadID)

	case routing.Reject:
		_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: origin.Chat.ID,
			Text:   d.Text,
			ReplyParameters: &models.ReplyParameters{
				MessageID: origin.ID,
			},
		})
		if err != nil {
			b.log.Errorw("reject reply failed", "chat", origin.Chat.ID, "err", err)
			return
		}
		metrics.MessagesRejectedTotal.Inc()

	case routing.Ignore:
		metrics.MessagesIgnoredTotal.Inc()
		if d.Reason != "" {
			b.log.Debugw("message ignored", "chat", origin.Chat.ID, "reason", d.Reason)
		}
	}
}

// sendReplies ships each admin reply in order.  A send failure is logged
// and the remaining replies still go out; the session state has already
// advanced and withholding the menu would strand the admin.
func (b *Bot) sendReplies(ctx context.Context, chatID int64, replies []admin.Reply) {
	for _, r := range replies {
		if r.Attachment != nil {
			_, err := b.api.SendDocument(ctx, &bot.SendDocumentParams{
				ChatID: chatID,
				Document: &models.InputFileUpload{
					Filename: r.Attachment.Name,
					Data:     bytes.NewReader(r.Attachment.Data),
				},
				Caption: r.Attachment.Caption,
			})
			if err != nil {
				b.log.Errorw("document send failed", "chat", chatID, "err", err)
			}
			if r.Text != "" {
				b.sendText(ctx, chatID, r.Text, r.Keyboard)
			}
			continue
		}
		if r.Text == "" {
			continue
		}
		b.sendText(ctx, chatID, r.Text, r.Keyboard)
	}
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string, keyboard [][]admin.Button) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if len(keyboard) > 0 {
		params.ReplyMarkup = inlineKeyboard(keyboard)
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		b.log.Errorw("reply send failed", "chat", chatID, "err", err)
	}
}

func inlineKeyboard(rows [][]admin.Button) *models.InlineKeyboardMarkup {
	kb := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			line = append(line, models.InlineKeyboardButton{
				Text:         btn.Label,
				CallbackData: btn.Token,
			})
		}
		kb = append(kb, line)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kb}
}

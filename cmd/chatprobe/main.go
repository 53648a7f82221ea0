// cmd/chatprobe/main.go
//
// Topic Relay – id discovery helper.
//
// Run it with the bot token, send a message in the chat (or forum topic)
// you are configuring, and it prints the ids to paste into the admin
// wizards.  Ctrl-C to stop.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	token := os.Getenv("RELAY_BOT__TOKEN")
	if token == "" {
		token = os.Getenv("BOT_TOKEN")
	}
	if token == "" {
		log.Fatal("set RELAY_BOT__TOKEN or BOT_TOKEN")
	}

	b, err := bot.New(token, bot.WithDefaultHandler(printUpdate))
	if err != nil {
		log.Fatalf("telegram client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("listening; send a message in the chat or topic to probe")
	b.Start(ctx)
}

func printUpdate(_ context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}
	fmt.Printf("chat_id=%d type=%s title=%q", msg.Chat.ID, msg.Chat.Type, msg.Chat.Title)
	if msg.MessageThreadID != 0 {
		fmt.Printf(" topic_id=%d", msg.MessageThreadID)
	}
	if msg.From != nil {
		fmt.Printf(" from=%d (@%s)", msg.From.ID, msg.From.Username)
	}
	fmt.Println()
}

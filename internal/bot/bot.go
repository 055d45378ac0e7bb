// Package bot wires the Bot API update stream to the delivery pipeline.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/brogergvhs/pocketbot/internal/pipeline"
)

const pollTimeout = 30 // seconds, long-polling window

const usageText = `Commands:
/chapter <id> - send a chapter as photo albums
/chapterzip <id> - send a chapter as a ZIP archive

The chapter id is the 20-digit number from the episode URL.`

// Deliverer is the pipeline surface the dispatcher needs.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, id string, mode pipeline.Mode)
}

type Bot struct {
	api  *tgbotapi.BotAPI
	pipe Deliverer
	log  *zap.SugaredLogger
}

func New(api *tgbotapi.BotAPI, pipe Deliverer, log *zap.SugaredLogger) *Bot {
	return &Bot{api: api, pipe: pipe, log: log}
}

// Run polls for updates until ctx is cancelled. Each command invocation gets
// its own goroutine; deliveries share nothing but the read-only credentials
// inside the scraper, so no coordination is needed between them.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)
	b.log.Infow("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handle(ctx, update.Message)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}

	switch msg.Command() {
	case "chapter":
		b.log.Infow("chapter requested", "id", arg, "user", from)
		go b.pipe.Deliver(ctx, msg.Chat.ID, arg, pipeline.ModeAlbum)

	case "chapterzip":
		b.log.Infow("chapter zip requested", "id", arg, "user", from)
		go b.pipe.Deliver(ctx, msg.Chat.ID, arg, pipeline.ModeArchive)

	case "start", "help":
		b.reply(msg.Chat.ID, usageText)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Errorw("failed to send reply", "chat", chatID, "error", err)
	}
}

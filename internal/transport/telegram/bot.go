package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"songbot/internal/services/song"
)

const (
	startText = "Hi! Send /song <name> to get the best-audio file."
	songUsage = "Usage: /song <song name>"
	doneText  = "Done! 🎵"
)

// Bot routes chat commands and runs the song delivery sequence.
type Bot struct {
	api    Sender
	songs  *song.Service
	logger *zap.Logger
}

// NewBot constructs a bot over an already initialized Telegram API client.
func NewBot(api Sender, songs *song.Service, logger *zap.Logger) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram api is nil")
	}
	if songs == nil {
		return nil, fmt.Errorf("song service is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:    api,
		songs:  songs,
		logger: logger,
	}, nil
}

// Dispatch routes one update to its command handler. Updates that are not
// chat commands, carry no chat to answer into, or name no handler are
// ignored.
func (b *Bot) Dispatch(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "song":
		b.handleSong(msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, startText)
}

func (b *Bot) handleSong(msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		b.reply(msg.Chat.ID, songUsage)
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("Searching for “%s”...", query)))
	if err != nil {
		b.logger.Warn("status message failed", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
		return
	}

	b.deliver(msg.Chat.ID, status.MessageID, query)
}

// deliver runs the download-then-upload sequence, reporting progress through
// edits of the status message. It runs detached from the inbound update so a
// started job is not cut short by shutdown.
func (b *Bot) deliver(chatID int64, statusID int, query string) {
	log := b.logger.With(zap.String("job", uuid.NewString()), zap.String("query", query))

	res, err := b.songs.Fetch(context.Background(), query)
	if err != nil {
		log.Warn("download failed", zap.Error(err))
		b.editStatus(chatID, statusID, "Error: "+err.Error())
		return
	}
	defer b.songs.Cleanup(res)

	b.editStatus(chatID, statusID, fmt.Sprintf("Found: %s\nUploading…", res.Title))

	if err := b.sendDocument(chatID, res); err != nil {
		log.Warn("upload failed", zap.Error(err))
		b.editStatus(chatID, statusID, "Error: "+err.Error())
		return
	}

	b.editStatus(chatID, statusID, doneText)
	log.Info("song delivered", zap.String("title", res.Title))
}

func (b *Bot) sendDocument(chatID int64, res song.Result) error {
	f, err := os.Open(res.FilePath)
	if err != nil {
		return fmt.Errorf("open download: %w", err)
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{
		Name:   filepath.Base(res.FilePath),
		Reader: f,
	})
	doc.Caption = res.Title

	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("send message failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) editStatus(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Warn("edit status failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// RegisterWebhook points Telegram at the service's update endpoint.
func (b *Bot) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	b.logger.Info("webhook registered")
	return nil
}

// RemoveWebhook drops the webhook registration.
func (b *Bot) RemoveWebhook() error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	b.logger.Info("webhook removed")
	return nil
}

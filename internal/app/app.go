package app

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"songbot/internal/config"
	"songbot/internal/queue"
	"songbot/internal/transport/telegram"
	"songbot/internal/transport/webhook"
)

const shutdownTimeout = 10 * time.Second

// App owns startup and teardown of the bot's components.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	bot     *telegram.Bot
	server  *webhook.Server
	updates *queue.Queue

	stopOnce sync.Once
}

// New assembles the application from its wired components.
func New(cfg config.Config, logger *zap.Logger, bot *telegram.Bot, server *webhook.Server, updates *queue.Queue) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		bot:     bot,
		server:  server,
		updates: updates,
	}
}

// Run registers the webhook, then serves HTTP and dispatches queued updates
// until ctx is cancelled, at which point everything is torn down.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.RegisterWebhook(a.cfg.WebhookURL()); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(a.server.Start)

	g.Go(func() error {
		a.dispatchLoop()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Shutdown()
		return nil
	})

	return g.Wait()
}

// dispatchLoop hands each queued update to the bot on its own goroutine. It
// ends when the queue is closed and drained.
func (a *App) dispatchLoop() {
	for update := range a.updates.Updates() {
		go a.dispatch(update)
	}
}

// dispatch runs one update, containing handler panics so a malformed update
// cannot take the process down with it.
func (a *App) dispatch(update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("dispatch panic", zap.Any("panic", rec), zap.Int("update_id", update.UpdateID))
		}
	}()
	a.bot.Dispatch(update)
}

// Shutdown removes the webhook, stops the HTTP server and closes the update
// queue. Safe to call more than once.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down")

		if err := a.bot.RemoveWebhook(); err != nil {
			a.logger.Warn("webhook removal failed", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("http shutdown failed", zap.Error(err))
		}

		a.updates.Close()
	})
}

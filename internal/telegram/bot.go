// Package telegram exposes the prediction form as a Telegram chat, one form per chat.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/model"
	"github.com/Alias1177/ChurnPredictor/internal/render"
)

const helpText = `Customer Churn Prediction

Set the customer attributes, then run /predict:
/recency <days since last purchase>
/frequency <total number of purchases>
/monetary <total spend>
/status shows the current values and last result`

// Sender is the part of the Telegram API the bot needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ControllerFactory builds the controller for a new chat, wired to its alerter
type ControllerFactory func(alerter controller.Alerter) *controller.Controller

// Options configures the bot
type Options struct {
	Render      render.Options
	AlertChatID int64 // receives high-risk VIP notices when non-zero
}

// Bot routes chat commands to per-chat controllers
type Bot struct {
	sender  Sender
	factory ControllerFactory
	opts    Options

	mu    sync.Mutex
	chats map[int64]*controller.Controller

	logger zerolog.Logger
}

// NewBot creates a bot
func NewBot(sender Sender, factory ControllerFactory, opts Options) *Bot {
	return &Bot{
		sender:  sender,
		factory: factory,
		opts:    opts,
		chats:   make(map[int64]*controller.Controller),
		logger:  log.With().Str("component", "telegram_bot").Logger(),
	}
}

// Run handles updates until ctx is done or the channel closes, then closes every chat
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage processes one incoming message
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	ctrl := b.controllerFor(chatID)

	if !message.IsCommand() {
		b.reply(chatID, helpText)
		return
	}

	switch message.Command() {
	case "start", "help":
		b.reply(chatID, helpText+"\n\n"+b.status(ctrl))
	case "recency", "frequency", "monetary":
		field, _ := model.ParseField(message.Command())
		raw := strings.TrimSpace(message.CommandArguments())
		if err := ctrl.SetValue(field, raw); err != nil {
			b.reply(chatID, err.Error())
			return
		}
		b.reply(chatID, fmt.Sprintf("%s set to %q", field.Label(), raw))
	case "status":
		b.reply(chatID, b.status(ctrl))
	case "predict":
		b.predict(ctx, chatID, ctrl)
	default:
		b.reply(chatID, "Unknown command.\n\n"+helpText)
	}
}

func (b *Bot) predict(ctx context.Context, chatID int64, ctrl *controller.Controller) {
	// updates are handled one at a time, so only a settlement can change
	// Pending between this check and Start
	if ctrl.State().Pending {
		b.reply(chatID, "A prediction is already running, please wait.")
		return
	}
	b.reply(chatID, render.LabelPending)

	// shutting the bot down does not cancel a scoring call in flight
	done, started := ctrl.Start(context.WithoutCancel(ctx))
	if !started {
		b.reply(chatID, "A prediction is already running, please wait.")
		return
	}

	go func() {
		outcome, ok := <-done
		if !ok {
			// chat closed before the prediction settled
			return
		}
		result := render.ResultFor(outcome, b.opts.Render)
		if result == nil {
			// failures reach the chat through the alerter
			return
		}
		b.reply(chatID, result.Headline()+"\n"+result.Summary())
		if result.HighRiskVIP && b.opts.AlertChatID != 0 {
			b.reply(b.opts.AlertChatID, vipNotice(result))
		}
	}()
}

func (b *Bot) status(ctrl *controller.Controller) string {
	return render.Render(ctrl.State(), b.opts.Render).Text()
}

func (b *Bot) controllerFor(chatID int64) *controller.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ctrl, ok := b.chats[chatID]; ok {
		return ctrl
	}
	ctrl := b.factory(controller.AlertFunc(func(message string) {
		b.reply(chatID, message)
	}))
	b.chats[chatID] = ctrl
	return ctrl
}

func (b *Bot) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ctrl := range b.chats {
		ctrl.Close()
		delete(b.chats, id)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func vipNotice(r *render.Result) string {
	return fmt.Sprintf(
		"High-Risk VIP Customer Alert!\nChurn Probability: %s\nRecency: %d days\nFrequency: %d purchases\nMonetary Value: $%s",
		r.Percent, r.Request.Recency, r.Request.Frequency, humanize.FormatFloat("#,###.##", r.Request.Monetary),
	)
}

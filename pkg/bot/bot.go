// Package bot connects Telegram to the marketplace services.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"

	"dogbot/pkg/logger"
)

const handlerTimeout = 30 * time.Second

type Bot struct {
	Bot    *tele.Bot
	Log    logger.ILogger
	router *Router
}

// NewAPI opens the long-polling Telegram client. Send-only use, such as the
// Messenger, needs nothing else.
func NewAPI(token string, log logger.ILogger) (*tele.Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			fields := []logger.Field{logger.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, logger.Int64("user_id", c.Sender().ID))
			}
			log.Error("telegram handler failed", fields...)
		},
	}
	return tele.NewBot(pref)
}

func New(api *tele.Bot, router *Router, log logger.ILogger) *Bot {
	b := &Bot{
		Bot:    api,
		Log:    log,
		router: router,
	}
	b.registerHandlers()
	return b
}

func (b *Bot) Start() {
	b.Log.Info("🤖 bot started", logger.String("username", b.Bot.Me.Username))
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.Bot.Stop()
}

func (b *Bot) registerHandlers() {
	for _, name := range b.router.Commands() {
		b.Bot.Handle("/"+name, b.handleMessage)
	}
	for _, text := range b.router.MenuButtons() {
		b.Bot.Handle(text, b.handleMessage)
	}

	b.Bot.Handle(tele.OnCallback, b.handleCallback)
	b.Bot.Handle(tele.OnText, b.handleMessage)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	ev := eventFrom(c)
	ev.Text = c.Text()
	return b.router.HandleMessage(ctx, ev)
}

func (b *Bot) handleCallback(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	ev := eventFrom(c)
	ev.Data = c.Callback().Data
	err := b.router.HandleCallback(ctx, ev)
	if rerr := c.Respond(); rerr != nil {
		b.Log.Debug("callback answer failed", logger.String("trace_id", ev.TraceID), logger.Error(rerr))
	}
	return err
}

func eventFrom(c tele.Context) Event {
	ev := Event{TraceID: uuid.NewString()}
	if u := c.Sender(); u != nil {
		ev.UserID = u.ID
		ev.Username = u.Username
		ev.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	return ev
}

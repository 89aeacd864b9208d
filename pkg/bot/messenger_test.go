package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"dogbot/pkg/action"
	"dogbot/pkg/transport"
)

type sent struct {
	to   tele.Recipient
	what interface{}
	opts []interface{}
}

type fakeSender struct {
	calls []sent
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, sent{to: to, what: what, opts: opts})
	return &tele.Message{}, nil
}

func TestMessengerInlineKeyboard(t *testing.T) {
	api := &fakeSender{}
	m := NewMessenger(api)

	kb := transport.Rows(transport.Row(
		transport.ActionButton("✋ Откликнуться", action.RespondTo(7)),
		transport.LinkButton("Карта", "https://maps.example.com"),
	))
	require.NoError(t, m.SendText(context.Background(), -100500, "Заказ #7", kb))
	require.Len(t, api.calls, 1)

	call := api.calls[0]
	assert.Equal(t, "-100500", call.to.Recipient())
	assert.Equal(t, "Заказ #7", call.what)
	require.Len(t, call.opts, 1)
	rm, ok := call.opts[0].(*tele.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, rm.InlineKeyboard, 1)
	assert.Equal(t, "pr:7", rm.InlineKeyboard[0][0].Data)
	assert.Equal(t, "https://maps.example.com", rm.InlineKeyboard[0][1].URL)
	assert.Empty(t, rm.ReplyKeyboard)
}

func TestMessengerReplyKeyboard(t *testing.T) {
	api := &fakeSender{}
	m := NewMessenger(api)

	require.NoError(t, m.SendText(context.Background(), 42, textWelcome, mainMenu()))
	rm := api.calls[0].opts[0].(*tele.ReplyMarkup)
	assert.True(t, rm.ResizeKeyboard)
	require.Len(t, rm.ReplyKeyboard, 4)
	assert.Equal(t, btnServices, rm.ReplyKeyboard[0][0].Text)

	require.NoError(t, m.SendText(context.Background(), 42, "без кнопок", nil))
	assert.Empty(t, api.calls[1].opts)
}

func TestMessengerImage(t *testing.T) {
	api := &fakeSender{}
	m := NewMessenger(api)
	ctx := context.Background()

	require.NoError(t, m.SendImage(ctx, 1, transport.Image{FileID: "AgAD"}, "Рекс", nil))
	photo := api.calls[0].what.(*tele.Photo)
	assert.Equal(t, "AgAD", photo.FileID)
	assert.Equal(t, "Рекс", photo.Caption)

	require.NoError(t, m.SendImage(ctx, 1, transport.Image{URL: "https://img.example.com/rex.jpg"}, "", nil))
	photo = api.calls[1].what.(*tele.Photo)
	assert.Equal(t, "https://img.example.com/rex.jpg", photo.FileURL)

	assert.ErrorIs(t, m.SendImage(ctx, 1, transport.Image{}, "", nil), errNoImage)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.SendText(cancelled, 1, "x", nil), context.Canceled)
	assert.Len(t, api.calls, 2)
}

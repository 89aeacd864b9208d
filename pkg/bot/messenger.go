package bot

import (
	"context"
	"errors"

	tele "gopkg.in/telebot.v3"

	"dogbot/pkg/transport"
)

var errNoImage = errors.New("image has neither file id nor url")

// Sender is the part of *tele.Bot the messenger uses.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Messenger delivers transport messages through Telegram.
type Messenger struct {
	api Sender
}

func NewMessenger(api Sender) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendText(ctx context.Context, to int64, text string, kb transport.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.api.Send(tele.ChatID(to), text, options(kb)...)
	return err
}

func (m *Messenger) SendImage(ctx context.Context, to int64, img transport.Image, caption string, kb transport.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{Caption: caption}
	switch {
	case img.FileID != "":
		photo.File = tele.File{FileID: img.FileID}
	case img.URL != "":
		photo.File = tele.FromURL(img.URL)
	default:
		return errNoImage
	}
	_, err := m.api.Send(tele.ChatID(to), photo, options(kb)...)
	return err
}

func options(kb transport.Keyboard) []interface{} {
	if len(kb) == 0 {
		return nil
	}
	return []interface{}{markup(kb)}
}

func markup(kb transport.Keyboard) *tele.ReplyMarkup {
	if !kb.Inline() {
		rows := make([][]tele.ReplyButton, 0, len(kb))
		for _, row := range kb {
			btns := make([]tele.ReplyButton, 0, len(row))
			for _, b := range row {
				btns = append(btns, tele.ReplyButton{Text: b.Text})
			}
			rows = append(rows, btns)
		}
		return &tele.ReplyMarkup{ReplyKeyboard: rows, ResizeKeyboard: true}
	}

	rows := make([][]tele.InlineButton, 0, len(kb))
	for _, row := range kb {
		btns := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			// Data is sent as is; action.Decode tolerates telebot's unique prefix.
			btns = append(btns, tele.InlineButton{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, btns)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

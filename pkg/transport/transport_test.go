package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dogbot/pkg/action"
)

func TestRowsDropsEmpty(t *testing.T) {
	kb := Rows(
		Row(ActionButton("Откликнуться", action.RespondTo(3))),
		Row(),
		Row(LinkButton("Сайт", "https://example.com")),
	)
	assert.Len(t, kb, 2)
	assert.Equal(t, "pr:3", kb[0][0].Data)
	assert.Equal(t, "https://example.com", kb[1][0].URL)
}

func TestKeyboardInline(t *testing.T) {
	menu := Rows(Row(TextButton("🐶 Услуги для собак")), Row(TextButton("❓ Общие вопросы")))
	assert.False(t, menu.Inline())
	assert.False(t, Keyboard(nil).Inline())
	assert.True(t, Rows(Row(ActionButton("Назад", action.BackToMain()))).Inline())
}

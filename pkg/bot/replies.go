package bot

import (
	"errors"
	"fmt"

	"dogbot/pkg/action"
	"dogbot/pkg/input"
	"dogbot/pkg/models"
	"dogbot/pkg/transport"
	"dogbot/service"
	"dogbot/storage"
)

const (
	btnServices = "🐶 Услуги для собак"
	btnWork     = "👤 Работать у нас"
	btnManager  = "📞 Позвать менеджера"
	btnFAQ      = "❓ Общие вопросы"
)

const (
	textWelcome   = "Привет! Это DogBot: выгул/передержка/няня. Выбирай ниже 👇"
	textCancelled = "Окей, отменил. Возвращаюсь в меню."
	textMainMenu  = "Главное меню:"
	textFallback  = "Ткни в меню ниже, не забивай голову 🙂"
	textOutOfFlow = "Эта команда сейчас не к месту :)"
	textStale     = "Эта кнопка уже неактуальна."
	textBadData   = "что-то не то с данными"
	textNoProfile = "Профиль не найден. Нажми «👤 Работать у нас» и заполни анкету."
	textFAQ       = "FAQ прикрутим позже. Сейчас главный сценарий — заявки/отклики/выбор."
	textGeneric   = "Что-то пошло не так. Попробуй ещё раз чуть позже."
	textNotAdmin  = "Не админ. И не пытайся 😉"
	textNotOwner  = "Заказ не найден или не ваш."
	textNotWalker = "Откликаться могут только исполнители (walker)."
	textHelp      = "Команды:\n" +
		"/start, /help, /cancel, /whoami, /role\n" +
		"Клиенту: /my_orders, /candidates <id>, /cancel_order <id>,\n" +
		"/reschedule <id> 2025-09-01 19:00 60, /set_address <id> <адрес>\n" +
		"Исполнителю: /profile, /set_areas Центр, Купчино, /set_rate 600"
)

func mainMenu() transport.Keyboard {
	return transport.Rows(
		transport.Row(transport.TextButton(btnServices)),
		transport.Row(transport.TextButton(btnWork)),
		transport.Row(transport.TextButton(btnManager)),
		transport.Row(transport.TextButton(btnFAQ)),
	)
}

func becomeWalkerKeyboard() transport.Keyboard {
	return transport.Rows(transport.Row(
		transport.ActionButton("👤 Стать исполнителем", action.BecomeWalkerToken()),
	))
}

// describe maps an error to the text the user sees. known is false for
// failures the user can do nothing about.
func describe(err error) (text string, known bool) {
	var (
		ierr   *input.Error
		terr   *models.TransitionError
		closed *service.ClosedError
	)
	switch {
	case errors.As(err, &ierr):
		return ierr.Message, true
	case errors.As(err, &terr):
		return fmt.Sprintf("Не получится: заказ в статусе %s.", terr.From), true
	case errors.As(err, &closed):
		return fmt.Sprintf("Заказ уже не принимает отклики (статус %s).", closed.Status), true
	case errors.Is(err, service.ErrForbidden):
		return textNotAdmin, true
	case errors.Is(err, service.ErrNotOwner):
		return textNotOwner, true
	case errors.Is(err, service.ErrProposalMissing):
		return "Этот исполнитель не откликался на заказ.", true
	case errors.Is(err, service.ErrNotWalker):
		return textNotWalker, true
	case errors.Is(err, service.ErrNoDispatcher):
		return "Чат менеджеров не настроен. Добавь DISPATCHER_CHAT_ID в .env", true
	case errors.Is(err, storage.ErrNotFound):
		return "Не найдено.", true
	case errors.Is(err, action.ErrMalformed):
		return textBadData, true
	}
	return textGeneric, false
}

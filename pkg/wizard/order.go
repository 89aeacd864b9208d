package wizard

import (
	"errors"
	"time"

	"dogbot/pkg/action"
	"dogbot/pkg/input"
	"dogbot/pkg/models"
	"dogbot/pkg/session"
	"dogbot/pkg/transport"
)

const (
	OrderService  session.State = "order.service"
	OrderWalkType session.State = "order.walk_type"
	OrderPetName  session.State = "order.pet_name"
	OrderPetSize  session.State = "order.pet_size"
	OrderArea     session.State = "order.area"
	OrderWhen     session.State = "order.when"
	OrderDuration session.State = "order.duration"
	OrderAddress  session.State = "order.address"
	OrderBudget   session.State = "order.budget"
	OrderComment  session.State = "order.comment"
	OrderConfirm  session.State = "order.confirm"
)

const (
	promptPetName  = "Как зовут собаку?"
	promptPetSize  = "Размер собаки? (small/medium/large)"
	promptArea     = "В каком районе нужен исполнитель? (например: Центр, Савёловский, Купчино)"
	promptWhen     = "Когда? Формат: 2025-08-23 19:00 или «сегодня 19:00», «завтра 10:30». /cancel — отмена."
	promptDuration = "Длительность в минутах? (например 60)"
	promptAddress  = "Адрес (улица, дом, подъезд)."
	promptBudget   = "Бюджет (руб), опционально. Можешь написать 0 или пропустить командой /skip."
	promptComment  = "Комментарий для исполнителя (опционально). /skip если нечего добавить."
	promptButtons  = "Выбери вариант кнопкой ниже."
)

// Order collects a client's request. Summary renders the confirmation text
// for the finished draft.
type Order struct {
	loc     *time.Location
	now     func() time.Time
	summary func(*models.Order) string
}

func NewOrder(loc *time.Location, summary func(*models.Order) string) *Order {
	if loc == nil {
		loc = time.UTC
	}
	return &Order{loc: loc, now: time.Now, summary: summary}
}

func ServiceKeyboard() transport.Keyboard {
	return transport.Rows(
		transport.Row(transport.ActionButton("Выгул", action.PickService(string(models.ServiceWalk)))),
		transport.Row(transport.ActionButton("Передержка", action.PickService(string(models.ServiceBoarding)))),
		transport.Row(transport.ActionButton("Няня", action.PickService(string(models.ServiceNanny)))),
		cancelRow(),
	)
}

func WalkTypeKeyboard() transport.Keyboard {
	return transport.Rows(
		transport.Row(transport.ActionButton("Обычный", action.PickWalkType(string(models.WalkNormal)))),
		transport.Row(transport.ActionButton("Активный", action.PickWalkType(string(models.WalkActive)))),
		cancelRow(),
	)
}

func ConfirmKeyboard() transport.Keyboard {
	return transport.Rows(transport.Row(
		transport.ActionButton("✅ Да", action.ConfirmOrder()),
		transport.ActionButton("❌ Нет", action.RejectOrder()),
	))
}

func (w *Order) Start(s *session.Session) Step {
	s.Reset()
	s.Flow = session.FlowOrder
	s.State = OrderService
	return Step{Reply: "Что нужно?", Keyboard: ServiceKeyboard(), Outcome: Continue}
}

func (w *Order) HandleAction(s *session.Session, tok action.Token) Step {
	if tok.Intent == action.Back {
		s.Reset()
		return Step{Reply: "Окей, отменил. Возвращаюсь в меню.", Outcome: Abort}
	}

	switch s.State {
	case OrderService:
		if tok.Intent != action.Service || !models.Service(tok.Value).Valid() {
			return retry(promptButtons, ServiceKeyboard())
		}
		s.Order.Service = models.Service(tok.Value)
		if s.Order.Service == models.ServiceWalk {
			s.State = OrderWalkType
			return Step{Reply: "Какой выгул?", Keyboard: WalkTypeKeyboard(), Outcome: Continue}
		}
		s.Order.WalkType = nil
		s.State = OrderPetName
		return next(promptPetName)

	case OrderWalkType:
		wt := models.WalkType(tok.Value)
		if tok.Intent != action.WalkType || !wt.Valid() {
			return retry(promptButtons, WalkTypeKeyboard())
		}
		s.Order.WalkType = &wt
		s.State = OrderPetName
		return next(promptPetName)

	case OrderConfirm:
		if tok.Intent != action.Order {
			return retry(promptButtons, ConfirmKeyboard())
		}
		if tok.Value == action.ValueReject {
			s.Reset()
			return Step{Reply: "Окей, отменил. Вернулся в меню.", Outcome: Abort}
		}
		return Step{Outcome: Commit}
	}
	return retry("Эта кнопка сейчас не к месту.", nil)
}

func (w *Order) HandleText(s *session.Session, text string) Step {
	switch s.State {
	case OrderService:
		return retry(promptButtons, ServiceKeyboard())
	case OrderWalkType:
		return retry(promptButtons, WalkTypeKeyboard())
	case OrderConfirm:
		return retry(promptButtons, ConfirmKeyboard())

	case OrderPetName:
		name, err := input.PetName(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.PetName = name
		s.State = OrderPetSize
		return next(promptPetSize)

	case OrderPetSize:
		size, err := input.PetSize(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.PetSize = size
		s.State = OrderArea
		return next(promptArea)

	case OrderArea:
		area, err := input.Area(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.Area = area
		s.State = OrderWhen
		return next(promptWhen)

	case OrderWhen:
		at, err := input.When(text, w.now(), w.loc)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.ScheduledAt = at
		s.State = OrderDuration
		return next(promptDuration)

	case OrderDuration:
		minutes, err := input.Duration(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.DurationMinutes = minutes
		s.State = OrderAddress
		return next(promptAddress)

	case OrderAddress:
		addr, err := input.Address(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.Address = addr
		s.State = OrderBudget
		return next(promptBudget)

	case OrderBudget:
		budget, err := input.Budget(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Order.Budget = budget
		s.State = OrderComment
		return next(promptComment)

	case OrderComment:
		s.Order.Comment = input.Comment(text)
		s.State = OrderConfirm
		return w.confirm(s)
	}
	return retry("Эта команда сейчас не к месту :)", nil)
}

func (w *Order) confirm(s *session.Session) Step {
	reply := "Отправляю заказ исполнителям?"
	if w.summary != nil {
		reply = w.summary(Draft(s)) + "\n\n" + reply
	}
	return Step{Reply: reply, Keyboard: ConfirmKeyboard(), Outcome: Continue}
}

// Draft builds the order the session describes, owned by the session user.
func Draft(s *session.Session) *models.Order {
	d := s.Order
	return &models.Order{
		ClientID:        s.Key.UserID,
		Service:         d.Service,
		WalkType:        d.WalkType,
		PetName:         d.PetName,
		PetSize:         d.PetSize,
		ScheduledAt:     d.ScheduledAt,
		DurationMinutes: d.DurationMinutes,
		Address:         d.Address,
		Budget:          d.Budget,
		Area:            d.Area,
		Comment:         d.Comment,
	}
}

func invalidInput(err error) Step {
	var ierr *input.Error
	if errors.As(err, &ierr) {
		return retry(ierr.Message, nil)
	}
	return retry(err.Error(), nil)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dogbot/pkg/input"
	"dogbot/pkg/models"
	"dogbot/storage"
)

func (r *Router) cmdStart(ctx context.Context, ev Event, _ string) error {
	if err := r.sessions.Delete(ctx, ev.key()); err != nil {
		return err
	}
	return r.reply(ctx, ev, textWelcome, mainMenu())
}

func (r *Router) cmdHelp(ctx context.Context, ev Event, _ string) error {
	return r.reply(ctx, ev, textHelp, nil)
}

func (r *Router) cmdCancel(ctx context.Context, ev Event, _ string) error {
	if err := r.sessions.Delete(ctx, ev.key()); err != nil {
		return err
	}
	return r.reply(ctx, ev, textCancelled, mainMenu())
}

func (r *Router) cmdSkip(ctx context.Context, ev Event, _ string) error {
	return r.route(ctx, ev)
}

func (r *Router) cmdWhoami(ctx context.Context, ev Event, _ string) error {
	return r.reply(ctx, ev, fmt.Sprintf("Твой Telegram ID: %d", ev.UserID), nil)
}

func (r *Router) cmdRole(ctx context.Context, ev Event, _ string) error {
	role, err := r.svc.User().Role(ctx, ev.UserID)
	if err != nil {
		return err
	}
	name := string(role)
	if name == "" {
		name = "не зарегистрирован"
	}
	return r.reply(ctx, ev, "Твоя роль: "+name, nil)
}

func (r *Router) cmdSetRole(ctx context.Context, ev Event, args string) error {
	if !r.svc.Admin().IsAdmin(ev.UserID) {
		return r.reply(ctx, ev, textNotAdmin, nil)
	}
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return r.reply(ctx, ev, "Использование: /set_role <tg_id> <client|walker|admin>", nil)
	}
	target, err := input.ID(parts[0])
	if err != nil {
		return err
	}
	role := models.Role(strings.ToLower(parts[1]))
	if err := r.svc.Admin().SetRole(ctx, ev.UserID, target, role); err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Роль пользователя %d: %s", target, role), nil)
}

func (r *Router) cmdCandidates(ctx context.Context, ev Event, args string) error {
	orderID, err := input.ID(args)
	if err != nil {
		return r.reply(ctx, ev, "Использование: /candidates <order_id>", nil)
	}
	return r.showCandidates(ctx, ev, orderID)
}

func (r *Router) showCandidates(ctx context.Context, ev Event, orderID int64) error {
	cands, err := r.svc.Order().Candidates(ctx, ev.UserID, orderID)
	if err != nil {
		return err
	}
	text, kb := r.svc.Render().Candidates(orderID, cands)
	return r.reply(ctx, ev, text, kb)
}

func (r *Router) cmdCancelOrder(ctx context.Context, ev Event, args string) error {
	orderID, err := input.ID(args)
	if err != nil {
		return r.reply(ctx, ev, "Использование: /cancel_order <order_id>", nil)
	}
	if err := r.svc.Order().Cancel(ctx, ev.UserID, orderID); err != nil {
		return err
	}
	return r.reply(ctx, ev, "Заказ отменён.", nil)
}

// cmdReschedule reads "<id> <date> <time> <minutes>"; the date part may be
// relative ("завтра 10:30").
func (r *Router) cmdReschedule(ctx context.Context, ev Event, args string) error {
	const usage = "Использование: /reschedule <order_id> 2025-09-01 19:00 60"
	parts := strings.Fields(args)
	if len(parts) != 4 {
		return r.reply(ctx, ev, usage, nil)
	}
	orderID, err := input.ID(parts[0])
	if err != nil {
		return r.reply(ctx, ev, usage, nil)
	}
	at, err := input.When(parts[1]+" "+parts[2], r.now(), r.loc)
	if err != nil {
		return err
	}
	minutes, err := input.Duration(parts[3])
	if err != nil {
		return err
	}
	if err := r.svc.Order().Reschedule(ctx, ev.UserID, orderID, at, minutes); err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Перенёс заказ #%d на %s, %d мин.", orderID, r.svc.Render().When(at), minutes), nil)
}

func (r *Router) cmdSetAddress(ctx context.Context, ev Event, args string) error {
	const usage = "Использование: /set_address <order_id> Ул. Пример, 1"
	head, addr, _ := strings.Cut(args, " ")
	orderID, err := input.ID(head)
	if err != nil || strings.TrimSpace(addr) == "" {
		return r.reply(ctx, ev, usage, nil)
	}
	if err := r.svc.Order().UpdateAddress(ctx, ev.UserID, orderID, addr); err != nil {
		return err
	}
	return r.reply(ctx, ev, "Адрес обновлён.", nil)
}

func (r *Router) cmdMyOrders(ctx context.Context, ev Event, _ string) error {
	orders, err := r.svc.Order().ListMine(ctx, ev.UserID, 10)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return r.reply(ctx, ev, "Пока заказов нет. Создай новый через меню «Услуги для собак».", nil)
	}
	for _, o := range orders {
		text, kb := r.svc.Render().OrderLine(o)
		if err := r.reply(ctx, ev, text, kb); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) cmdProfile(ctx context.Context, ev Event, _ string) error {
	p, err := r.svc.User().Profile(ctx, ev.UserID)
	if err != nil {
		return noProfile(err)
	}
	return r.reply(ctx, ev, r.svc.Render().OwnProfile(p), nil)
}

func (r *Router) cmdSetAreas(ctx context.Context, ev Event, args string) error {
	if args == "" {
		return r.reply(ctx, ev, "Использование: /set_areas Центр, Купчино", nil)
	}
	areas := input.Areas(args)
	if err := r.svc.User().SetAreas(ctx, ev.UserID, areas); err != nil {
		return noProfile(err)
	}
	return r.reply(ctx, ev, "Районы обновлены: "+areas, nil)
}

func (r *Router) cmdSetRate(ctx context.Context, ev Event, args string) error {
	rate, err := input.Price(args)
	if err != nil {
		return r.reply(ctx, ev, "Использование: /set_rate 600", nil)
	}
	if err := r.svc.User().SetRate(ctx, ev.UserID, rate); err != nil {
		return noProfile(err)
	}
	return r.reply(ctx, ev, fmt.Sprintf("Ставка обновлена: %d₽/ч", rate), nil)
}

// noProfile rewrites a missing profile into the onboarding hint.
func noProfile(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &input.Error{Field: "profile", Message: textNoProfile}
	}
	return err
}

// Queue and approval commands stay silent for non-admins.

func (r *Router) cmdPending(ctx context.Context, ev Event, _ string) error {
	if !r.svc.Admin().IsAdmin(ev.UserID) {
		return nil
	}
	list, err := r.svc.Admin().ListPending(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return r.reply(ctx, ev, r.svc.Render().Pending(list), nil)
}

func (r *Router) cmdApprove(ctx context.Context, ev Event, args string) error {
	if !r.svc.Admin().IsAdmin(ev.UserID) {
		return nil
	}
	id, err := input.ID(args)
	if err != nil {
		return r.reply(ctx, ev, "Использование: /approve <tg_id>", nil)
	}
	return r.approve(ctx, ev, id, true)
}

func (r *Router) cmdReject(ctx context.Context, ev Event, args string) error {
	if !r.svc.Admin().IsAdmin(ev.UserID) {
		return nil
	}
	id, err := input.ID(args)
	if err != nil {
		return r.reply(ctx, ev, "Использование: /reject <tg_id>", nil)
	}
	return r.approve(ctx, ev, id, false)
}

func (r *Router) approve(ctx context.Context, ev Event, walkerID int64, ok bool) error {
	if ok {
		if err := r.svc.Admin().Approve(ctx, ev.UserID, walkerID); err != nil {
			return err
		}
		return r.reply(ctx, ev, fmt.Sprintf("✅ Одобрил walker %d", walkerID), nil)
	}
	if err := r.svc.Admin().Reject(ctx, ev.UserID, walkerID); err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("❌ Отклонил walker %d", walkerID), nil)
}

func (r *Router) cmdReassign(ctx context.Context, ev Event, args string) error {
	if !r.svc.Admin().IsAdmin(ev.UserID) {
		return nil
	}
	const usage = "Использование: /reassign <order_id> <walker_id>"
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return r.reply(ctx, ev, usage, nil)
	}
	orderID, err := input.ID(parts[0])
	if err != nil {
		return r.reply(ctx, ev, usage, nil)
	}
	walkerID, err := input.ID(parts[1])
	if err != nil {
		return r.reply(ctx, ev, usage, nil)
	}
	if _, err := r.svc.Order().Reassign(ctx, ev.UserID, orderID, walkerID); err != nil {
		return err
	}
	return r.reply(ctx, ev, fmt.Sprintf("Заказ #%d переназначен на %d.", orderID, walkerID), nil)
}

package bot

import (
	"context"
	"errors"
	"fmt"

	"dogbot/pkg/action"
	"dogbot/pkg/session"
	"dogbot/pkg/wizard"
	"dogbot/service"
)

func (r *Router) callback(ctx context.Context, ev Event) error {
	tok, err := action.Decode(ev.Data)
	if err != nil {
		return err
	}

	switch tok.Intent {
	case action.Back:
		if err := r.sessions.Delete(ctx, ev.key()); err != nil {
			return err
		}
		return r.reply(ctx, ev, textMainMenu, mainMenu())

	case action.Service, action.WalkType, action.Order:
		return r.orderAction(ctx, ev, tok)

	case action.Respond:
		return r.respond(ctx, ev, tok.OrderID)

	case action.BecomeWalker:
		if err := r.svc.User().BecomeWalker(ctx, ev.UserID); err != nil {
			return err
		}
		return r.reply(ctx, ev, "Готово. Теперь у тебя роль walker. Можно откликаться.", nil)

	case action.Candidates:
		return r.showCandidates(ctx, ev, tok.OrderID)

	case action.Choose:
		if _, err := r.svc.Order().Assign(ctx, ev.UserID, tok.OrderID, tok.WalkerID); err != nil {
			return err
		}
		return r.reply(ctx, ev, fmt.Sprintf("Исполнитель назначен на заказ #%d.", tok.OrderID), nil)

	case action.Profile:
		p, err := r.svc.Order().WalkerProfile(ctx, ev.UserID, tok.OrderID, tok.WalkerID)
		if err != nil {
			return err
		}
		text, kb := r.svc.Render().Profile(tok.OrderID, p)
		return r.reply(ctx, ev, text, kb)

	case action.Approve, action.Reject:
		if !r.svc.Admin().IsAdmin(ev.UserID) {
			return nil
		}
		return r.approve(ctx, ev, tok.WalkerID, tok.Intent == action.Approve)
	}
	return r.reply(ctx, ev, textStale, nil)
}

func (r *Router) orderAction(ctx context.Context, ev Event, tok action.Token) error {
	s, err := session.Load(ctx, r.sessions, ev.key())
	if err != nil {
		return err
	}
	if s.Flow != session.FlowOrder {
		return r.reply(ctx, ev, textStale, nil)
	}
	return r.apply(ctx, ev, s, r.orders.HandleAction(s, tok))
}

// respond opens the proposal wizard, or offers the walker role to clients.
func (r *Router) respond(ctx context.Context, ev Event, orderID int64) error {
	o, err := r.svc.Proposal().Begin(ctx, ev.UserID, orderID)
	if errors.Is(err, service.ErrNotWalker) {
		return r.reply(ctx, ev, textNotWalker, becomeWalkerKeyboard())
	}
	if err != nil {
		return err
	}
	return r.start(ctx, ev, func(s *session.Session) wizard.Step {
		return r.proposals.Start(s, o.ID)
	})
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dogbot/pkg/input"
	"dogbot/pkg/logger"
	"dogbot/pkg/session"
	"dogbot/pkg/wizard"
)

const ackTimeout = 10 * time.Second

// route feeds free text to the active wizard, if any.
func (r *Router) route(ctx context.Context, ev Event) error {
	s, err := session.Load(ctx, r.sessions, ev.key())
	if err != nil {
		return err
	}
	if !s.Active() {
		if input.IsSkip(ev.Text) {
			return r.reply(ctx, ev, textOutOfFlow, nil)
		}
		return r.reply(ctx, ev, textFallback, mainMenu())
	}
	if input.IsSkip(ev.Text) && !skippable(s.State) {
		r.metrics.ValidationReject(string(s.State))
		return r.reply(ctx, ev, textOutOfFlow, nil)
	}

	var step wizard.Step
	switch s.Flow {
	case session.FlowOrder:
		step = r.orders.HandleText(s, ev.Text)
	case session.FlowWalker:
		step = r.walkers.HandleText(s, ev.Text)
	case session.FlowProposal:
		step = r.proposals.HandleText(s, ev.Text)
	default:
		return r.sessions.Delete(ctx, s.Key)
	}
	return r.apply(ctx, ev, s, step)
}

func skippable(st session.State) bool {
	return st == wizard.OrderBudget || st == wizard.OrderComment || st == wizard.ProposalNote
}

func (r *Router) apply(ctx context.Context, ev Event, s *session.Session, step wizard.Step) error {
	switch step.Outcome {
	case wizard.Invalid:
		r.metrics.ValidationReject(string(s.State))
		return r.reply(ctx, ev, step.Reply, step.Keyboard)
	case wizard.Abort:
		if err := r.sessions.Delete(ctx, s.Key); err != nil {
			return err
		}
		return r.reply(ctx, ev, step.Reply, mainMenu())
	case wizard.Commit:
		return r.commit(ctx, ev, s)
	}
	s.UpdatedAt = r.now().UTC()
	if err := r.sessions.Save(ctx, s); err != nil {
		return err
	}
	return r.reply(ctx, ev, step.Reply, step.Keyboard)
}

// commit persists a finished draft. On a persistence failure the session is
// kept so the user can retry the last step.
func (r *Router) commit(ctx context.Context, ev Event, s *session.Session) error {
	switch s.Flow {
	case session.FlowOrder:
		return r.commitOrder(ctx, ev, s)
	case session.FlowWalker:
		return r.commitWalker(ctx, ev, s)
	case session.FlowProposal:
		return r.commitProposal(ctx, ev, s)
	}
	return r.sessions.Delete(ctx, s.Key)
}

func (r *Router) commitOrder(ctx context.Context, ev Event, s *session.Session) error {
	res, err := r.svc.Order().Place(ctx, wizard.Draft(s))
	if err != nil {
		var ierr *input.Error
		if errors.As(err, &ierr) && ierr.Field == "when" {
			// the time went stale while the client was confirming
			s.State = wizard.OrderWhen
			if serr := r.sessions.Save(ctx, s); serr != nil {
				return serr
			}
		}
		return err
	}

	// The broadcast may have used up the handler deadline; the order is
	// committed either way and the client must hear about it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if err := r.sessions.Delete(ctx, s.Key); err != nil {
		r.log.Warning("failed to drop session", logger.String("session", s.Key.String()), logger.Error(err))
	}

	text := fmt.Sprintf("✅ Заказ #%d опубликован. Отклики исполнителей придут сюда.", res.Order.ID)
	if res.Report.Recipients == 0 {
		text += "\nПока нет свободных исполнителей, менеджер подключится."
	}
	return r.reply(ctx, ev, text, mainMenu())
}

func (r *Router) commitWalker(ctx context.Context, ev Event, s *session.Session) error {
	user, profile := wizard.Profile(s, ev.Username)
	if err := r.svc.User().RegisterWalker(ctx, user, profile); err != nil {
		return err
	}
	if err := r.sessions.Delete(ctx, s.Key); err != nil {
		r.log.Warning("failed to drop session", logger.String("session", s.Key.String()), logger.Error(err))
	}

	text := "Готово! Профиль исполнителя создан и роль выдана (walker).\n"
	if profile.BaseRate != nil {
		text += fmt.Sprintf("Ставка: %d₽/час.\n", *profile.BaseRate)
	}
	areas := profile.Areas
	if areas == "" {
		areas = "—"
	}
	text += fmt.Sprintf("Районы: %s\nЗаказы начнут приходить после одобрения менеджером.", areas)
	return r.reply(ctx, ev, text, mainMenu())
}

func (r *Router) commitProposal(ctx context.Context, ev Event, s *session.Session) error {
	p := wizard.ProposalDraft(s)
	_, err := r.svc.Proposal().Submit(ctx, p)
	if err != nil {
		if _, known := describe(err); known {
			// the order closed or the role changed; the draft is useless now
			if derr := r.sessions.Delete(ctx, s.Key); derr != nil {
				r.log.Warning("failed to drop session", logger.String("session", s.Key.String()), logger.Error(derr))
			}
		}
		return err
	}
	if err := r.sessions.Delete(ctx, s.Key); err != nil {
		r.log.Warning("failed to drop session", logger.String("session", s.Key.String()), logger.Error(err))
	}
	return r.reply(ctx, ev, fmt.Sprintf("Отклик на заказ #%d отправлен клиенту: %d₽.", p.OrderID, p.Price), nil)
}

// start replaces whatever flow the user was in.
func (r *Router) start(ctx context.Context, ev Event, begin func(*session.Session) wizard.Step) error {
	s := session.New(ev.key())
	step := begin(s)
	s.UpdatedAt = r.now().UTC()
	if err := r.sessions.Save(ctx, s); err != nil {
		return err
	}
	return r.reply(ctx, ev, step.Reply, step.Keyboard)
}

func (r *Router) menuServices(ctx context.Context, ev Event, _ string) error {
	return r.start(ctx, ev, r.orders.Start)
}

func (r *Router) menuWork(ctx context.Context, ev Event, _ string) error {
	return r.start(ctx, ev, r.walkers.Start)
}

func (r *Router) menuManager(ctx context.Context, ev Event, _ string) error {
	if err := r.svc.User().CallManager(ctx, ev.user()); err != nil {
		return err
	}
	return r.reply(ctx, ev, "Зову менеджера. Он свяжется с тобой в лс.", nil)
}

func (r *Router) menuFAQ(ctx context.Context, ev Event, _ string) error {
	return r.reply(ctx, ev, textFAQ, nil)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dogbot/pkg/broadcast"
	"dogbot/pkg/input"
	"dogbot/pkg/logger"
	"dogbot/pkg/matcher"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type OrderService interface {
	// Place validates the draft, stores it as published and broadcasts it to
	// the walkers of its area.
	Place(ctx context.Context, order *models.Order) (*PlaceResult, error)
	Get(ctx context.Context, requester, orderID int64) (*models.Order, error)
	ListMine(ctx context.Context, clientID int64, limit int) ([]*models.Order, error)
	Candidates(ctx context.Context, requester, orderID int64) ([]*models.Candidate, error)
	WalkerProfile(ctx context.Context, requester, orderID, walkerID int64) (*models.WalkerProfile, error)
	Assign(ctx context.Context, requester, orderID, walkerID int64) (*models.Assignment, error)
	Reassign(ctx context.Context, actor, orderID, walkerID int64) (*models.Assignment, error)
	Cancel(ctx context.Context, requester, orderID int64) error
	Complete(ctx context.Context, requester, orderID int64) error
	Reschedule(ctx context.Context, requester, orderID int64, at time.Time, durationMinutes int) error
	UpdateAddress(ctx context.Context, requester, orderID int64, address string) error
}

type PlaceResult struct {
	Order *models.Order
	// Fallback is set when no walker matched the area and the whole approved
	// roster was used.
	Fallback bool
	Report   broadcast.Report
}

type orderService struct {
	stg    storage.IStorage
	deps   Deps
	gate   *gate
	notify *notifier
	render *Renderer
	log    logger.ILogger
}

func NewOrderService(stg storage.IStorage, deps Deps, g *gate, n *notifier, r *Renderer, log logger.ILogger) OrderService {
	return &orderService{
		stg:    stg,
		deps:   deps,
		gate:   g,
		notify: n,
		render: r,
		log:    log,
	}
}

func (s *orderService) Place(ctx context.Context, order *models.Order) (*PlaceResult, error) {
	if err := input.Struct(order); err != nil {
		return nil, err
	}
	if !order.ScheduledAt.After(s.deps.Now()) {
		return nil, &input.Error{Field: "when", Message: "Это время уже прошло, выбери другое."}
	}
	if order.Service != models.ServiceWalk {
		order.WalkType = nil
	}

	created, err := s.stg.Order().CreatePublished(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.deps.Metrics.OrderPlaced()
	s.log.Info("order published",
		logger.Int64("order_id", created.ID),
		logger.Int64("client_id", created.ClientID),
		logger.String("area", created.Area),
	)

	res := &PlaceResult{Order: created}

	// The order is committed; broadcast problems are logged, not returned.
	client, err := s.stg.User().Get(ctx, created.ClientID)
	if err != nil {
		client = nil
	}
	ids, fallback, err := matcher.Recipients(ctx, s.deps.Matcher, s.stg.Walker(), created.Area)
	if err != nil {
		s.log.Error("failed to resolve broadcast recipients", logger.Int64("order_id", created.ID), logger.Error(err))
		return res, nil
	}
	res.Fallback = fallback
	if fallback {
		s.log.Info("no walkers matched area, using full roster",
			logger.Int64("order_id", created.ID),
			logger.String("area", created.Area),
			logger.Int("recipients", len(ids)),
		)
	}
	card := broadcast.Card{OrderID: created.ID, Text: s.render.OrderCard(created, client)}

	// The fan-out outlives the request deadline so a long roster is not cut off.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deps.Dispatcher.Budget(len(ids)))
	defer cancel()
	res.Report = s.deps.Dispatcher.Dispatch(bctx, card, ids)
	return res, nil
}

// owned loads the order and checks it belongs to requester.
func (s *orderService) owned(ctx context.Context, requester, orderID int64) (*models.Order, error) {
	o, err := s.stg.Order().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotOwner
		}
		return nil, err
	}
	if o.ClientID != requester {
		return nil, ErrNotOwner
	}
	return o, nil
}

func (s *orderService) Get(ctx context.Context, requester, orderID int64) (*models.Order, error) {
	return s.owned(ctx, requester, orderID)
}

func (s *orderService) ListMine(ctx context.Context, clientID int64, limit int) ([]*models.Order, error) {
	return s.stg.Order().ListByClient(ctx, clientID, limit)
}

func (s *orderService) Candidates(ctx context.Context, requester, orderID int64) ([]*models.Candidate, error) {
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return nil, err
	}
	return s.stg.Proposal().ListByOrder(ctx, orderID)
}

func (s *orderService) WalkerProfile(ctx context.Context, requester, orderID, walkerID int64) (*models.WalkerProfile, error) {
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return nil, err
	}
	if _, err := s.stg.Proposal().Get(ctx, orderID, walkerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProposalMissing
		}
		return nil, err
	}
	return s.stg.Walker().GetProfile(ctx, walkerID)
}

func (s *orderService) Assign(ctx context.Context, requester, orderID, walkerID int64) (*models.Assignment, error) {
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return nil, err
	}
	if _, err := s.stg.Proposal().Get(ctx, orderID, walkerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProposalMissing
		}
		return nil, err
	}

	a, err := s.stg.Order().Assign(ctx, orderID, walkerID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			s.deps.Metrics.Assignment("conflict")
			s.log.Info("assignment lost", logger.Int64("order_id", orderID), logger.Int64("walker_id", walkerID), logger.Error(err))
			return nil, err
		}
		s.deps.Metrics.Assignment("error")
		return nil, fmt.Errorf("assign order: %w", err)
	}
	s.deps.Metrics.Assignment("won")
	s.log.Info("walker assigned", logger.Int64("order_id", orderID), logger.Int64("walker_id", walkerID))

	s.notifyAssigned(ctx, orderID, requester, walkerID)
	return a, nil
}

func (s *orderService) Reassign(ctx context.Context, actor, orderID, walkerID int64) (*models.Assignment, error) {
	if err := s.gate.check(actor); err != nil {
		return nil, err
	}
	o, err := s.stg.Order().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev, err := s.stg.Order().GetAssignment(ctx, orderID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	a, err := s.stg.Order().Reassign(ctx, orderID, walkerID)
	if err != nil {
		return nil, err
	}
	s.log.Info("walker reassigned", logger.Int64("order_id", orderID), logger.Int64("walker_id", walkerID), logger.Int64("admin_id", actor))

	if prev != nil && prev.WalkerID != walkerID {
		s.notify.send(ctx, prev.WalkerID, fmt.Sprintf("❗️ Вы сняты с заказа #%d.", orderID), nil)
	}
	s.notifyAssigned(ctx, orderID, o.ClientID, walkerID)
	return a, nil
}

func (s *orderService) notifyAssigned(ctx context.Context, orderID, clientID, walkerID int64) {
	s.notify.send(ctx, clientID, fmt.Sprintf("✅ Исполнитель назначен (id %d). Свяжитесь друг с другом.", walkerID), nil)
	s.notify.send(ctx, walkerID, fmt.Sprintf("✅ Вы назначены исполнителем на заказ #%d. Клиент: id %d.", orderID, clientID), nil)
}

func (s *orderService) Cancel(ctx context.Context, requester, orderID int64) error {
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return err
	}
	prev, err := s.stg.Order().Cancel(ctx, orderID)
	if err != nil {
		return err
	}
	s.log.Info("order cancelled", logger.Int64("order_id", orderID), logger.Int64("client_id", requester))
	if prev != nil {
		s.notify.send(ctx, prev.WalkerID, fmt.Sprintf("❗️ Клиент отменил заказ #%d.", orderID), nil)
	}
	return nil
}

func (s *orderService) Complete(ctx context.Context, requester, orderID int64) error {
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return err
	}
	return s.stg.Order().Complete(ctx, orderID)
}

func (s *orderService) Reschedule(ctx context.Context, requester, orderID int64, at time.Time, durationMinutes int) error {
	if durationMinutes < 1 || durationMinutes > models.MaxDurationMinutes {
		return &input.Error{Field: "duration", Message: fmt.Sprintf("Минуты должны быть числом > 0 и <= %d.", models.MaxDurationMinutes)}
	}
	if !at.After(s.deps.Now()) {
		return &input.Error{Field: "when", Message: "Это время уже прошло, выбери другое."}
	}
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return err
	}
	return s.stg.Order().Reschedule(ctx, orderID, at, durationMinutes)
}

func (s *orderService) UpdateAddress(ctx context.Context, requester, orderID int64, address string) error {
	addr, err := input.Address(address)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, requester, orderID); err != nil {
		return err
	}
	return s.stg.Order().UpdateAddress(ctx, orderID, addr)
}

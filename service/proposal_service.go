package service

import (
	"context"
	"errors"
	"fmt"

	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

type ProposalService interface {
	// Begin checks that walkerID may respond to orderID.
	Begin(ctx context.Context, walkerID, orderID int64) (*models.Order, error)
	// Submit stores the proposal and tells the client. A failed notification
	// never undoes the write.
	Submit(ctx context.Context, p *models.Proposal) (int64, error)
}

type proposalService struct {
	stg    storage.IStorage
	deps   Deps
	notify *notifier
	render *Renderer
	log    logger.ILogger
}

func NewProposalService(stg storage.IStorage, deps Deps, n *notifier, r *Renderer, log logger.ILogger) ProposalService {
	return &proposalService{
		stg:    stg,
		deps:   deps,
		notify: n,
		render: r,
		log:    log,
	}
}

func (s *proposalService) Begin(ctx context.Context, walkerID, orderID int64) (*models.Order, error) {
	u, err := s.stg.User().Get(ctx, walkerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotWalker
		}
		return nil, err
	}
	if u.Role != models.RoleWalker {
		return nil, ErrNotWalker
	}

	o, err := s.stg.Order().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := accepting(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *proposalService) Submit(ctx context.Context, p *models.Proposal) (int64, error) {
	o, err := s.Begin(ctx, p.WalkerID, p.OrderID)
	if err != nil {
		return 0, err
	}

	id, err := s.stg.Proposal().Upsert(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("save proposal: %w", err)
	}
	s.deps.Metrics.ProposalSubmitted()
	s.log.Info("proposal saved",
		logger.Int64("proposal_id", id),
		logger.Int64("order_id", p.OrderID),
		logger.Int64("walker_id", p.WalkerID),
		logger.Int("price", p.Price),
	)

	walker, err := s.stg.User().Get(ctx, p.WalkerID)
	if err != nil {
		walker = &models.User{ID: p.WalkerID}
	}
	text, kb := s.render.ProposalNotice(o.ID, walker, p)
	if !s.notify.send(ctx, o.ClientID, text, kb) {
		s.log.Warning("client not notified about proposal", logger.Int64("order_id", o.ID), logger.Int64("client_id", o.ClientID))
	}
	return id, nil
}

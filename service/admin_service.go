package service

import (
	"context"
	"errors"
	"fmt"

	"dogbot/pkg/input"
	"dogbot/pkg/logger"
	"dogbot/pkg/models"
	"dogbot/storage"
)

// AdminService is the Role & Admin Gate. Every method checks the caller
// against the allow-list before touching storage.
type AdminService interface {
	IsAdmin(id int64) bool
	SetRole(ctx context.Context, actor, target int64, role models.Role) error
	Approve(ctx context.Context, actor, walkerID int64) error
	Reject(ctx context.Context, actor, walkerID int64) error
	ListPending(ctx context.Context, actor int64) ([]*models.WalkerProfile, error)
}

type adminService struct {
	stg    storage.IStorage
	gate   *gate
	notify *notifier
	render *Renderer
	log    logger.ILogger
}

func NewAdminService(stg storage.IStorage, g *gate, n *notifier, r *Renderer, log logger.ILogger) AdminService {
	return &adminService{
		stg:    stg,
		gate:   g,
		notify: n,
		render: r,
		log:    log,
	}
}

func (s *adminService) IsAdmin(id int64) bool {
	return s.gate.isAdmin(id)
}

func (s *adminService) SetRole(ctx context.Context, actor, target int64, role models.Role) error {
	if err := s.gate.check(actor); err != nil {
		return err
	}
	if !role.Valid() {
		return &input.Error{Field: "role", Message: "Роль должна быть одной из: client, walker, admin."}
	}
	if err := s.stg.User().SetRole(ctx, target, role); err != nil {
		return err
	}
	s.log.Info("role changed", logger.Int64("admin_id", actor), logger.Int64("user_id", target), logger.String("role", string(role)))
	return nil
}

func (s *adminService) Approve(ctx context.Context, actor, walkerID int64) error {
	return s.setApproval(ctx, actor, walkerID, true,
		"✅ Твой профиль одобрен. Теперь ты получаешь заказы по своим районам.")
}

func (s *adminService) Reject(ctx context.Context, actor, walkerID int64) error {
	return s.setApproval(ctx, actor, walkerID, false,
		"❌ Профиль пока не одобрен. Проверь корректность анкеты и свяжись с менеджером.")
}

func (s *adminService) setApproval(ctx context.Context, actor, walkerID int64, approved bool, notice string) error {
	if err := s.gate.check(actor); err != nil {
		return err
	}
	if _, err := s.stg.User().Get(ctx, walkerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("walker %d: %w", walkerID, storage.ErrNotFound)
		}
		return err
	}
	if err := s.stg.Walker().SetApproval(ctx, walkerID, approved); err != nil {
		return err
	}
	s.log.Info("walker approval changed",
		logger.Int64("admin_id", actor),
		logger.Int64("walker_id", walkerID),
		logger.Bool("approved", approved),
	)
	s.notify.send(ctx, walkerID, notice, nil)
	return nil
}

func (s *adminService) ListPending(ctx context.Context, actor int64) ([]*models.WalkerProfile, error) {
	if err := s.gate.check(actor); err != nil {
		return nil, err
	}
	return s.stg.Walker().ListPending(ctx)
}

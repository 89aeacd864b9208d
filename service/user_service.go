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

type UserService interface {
	// Touch records the user on first contact and refreshes their names.
	Touch(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	// Role returns "" for users the bot has never seen.
	Role(ctx context.Context, id int64) (models.Role, error)
	BecomeWalker(ctx context.Context, id int64) error
	RegisterWalker(ctx context.Context, user *models.User, profile *models.WalkerProfile) error
	Profile(ctx context.Context, id int64) (*models.WalkerProfile, error)
	SetAreas(ctx context.Context, id int64, areas string) error
	SetRate(ctx context.Context, id int64, rate int) error
	CallManager(ctx context.Context, user *models.User) error
}

type userService struct {
	stg    storage.IStorage
	deps   Deps
	gate   *gate
	notify *notifier
	render *Renderer
	log    logger.ILogger
}

func NewUserService(stg storage.IStorage, deps Deps, g *gate, n *notifier, r *Renderer, log logger.ILogger) UserService {
	return &userService{
		stg:    stg,
		deps:   deps,
		gate:   g,
		notify: n,
		render: r,
		log:    log,
	}
}

func (s *userService) Touch(ctx context.Context, user *models.User) error {
	return s.stg.User().Upsert(ctx, user)
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.stg.User().Get(ctx, id)
}

func (s *userService) Role(ctx context.Context, id int64) (models.Role, error) {
	u, err := s.stg.User().Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return u.Role, nil
}

func (s *userService) BecomeWalker(ctx context.Context, id int64) error {
	if err := s.stg.User().SetRole(ctx, id, models.RoleWalker); err != nil {
		return err
	}
	s.log.Info("user became walker", logger.Int64("user_id", id))
	return nil
}

func (s *userService) RegisterWalker(ctx context.Context, user *models.User, profile *models.WalkerProfile) error {
	if err := input.Struct(profile); err != nil {
		return err
	}
	if err := s.stg.Walker().Register(ctx, user, profile); err != nil {
		return fmt.Errorf("register walker: %w", err)
	}
	s.log.Info("walker registered", logger.Int64("user_id", user.ID), logger.String("areas", profile.Areas))

	text, kb := s.render.NewWalker(user, profile)
	for _, id := range s.gate.ids() {
		s.notify.send(ctx, id, text, kb)
	}
	return nil
}

func (s *userService) Profile(ctx context.Context, id int64) (*models.WalkerProfile, error) {
	return s.stg.Walker().GetProfile(ctx, id)
}

func (s *userService) SetAreas(ctx context.Context, id int64, areas string) error {
	return s.stg.Walker().UpdateAreas(ctx, id, input.Areas(areas))
}

func (s *userService) SetRate(ctx context.Context, id int64, rate int) error {
	if rate < 0 {
		return &input.Error{Field: "rate", Message: "Ставка должна быть неотрицательным числом."}
	}
	return s.stg.Walker().UpdateRate(ctx, id, rate)
}

func (s *userService) CallManager(ctx context.Context, user *models.User) error {
	if s.deps.DispatcherChatID == 0 {
		return ErrNoDispatcher
	}
	text := fmt.Sprintf("📞 Запрос менеджера: %s (id %d)", userTag(user), user.ID)
	if s.deps.Messenger == nil {
		return ErrNoDispatcher
	}
	return s.deps.Messenger.SendText(ctx, s.deps.DispatcherChatID, text, nil)
}

package service

import (
	"context"
	"time"

	"dogbot/pkg/broadcast"
	"dogbot/pkg/logger"
	"dogbot/pkg/matcher"
	"dogbot/pkg/metrics"
	"dogbot/pkg/transport"
	"dogbot/storage"
)

type IServiceManager interface {
	User() UserService
	Order() OrderService
	Proposal() ProposalService
	Admin() AdminService
	Render() *Renderer
}

// Deps carries the collaborators shared by every service.
type Deps struct {
	Messenger        transport.Messenger
	Dispatcher       *broadcast.Dispatcher
	Matcher          matcher.Matcher
	Metrics          *metrics.Metrics
	AdminIDs         []int64
	DispatcherChatID int64
	Location         *time.Location
	Now              func() time.Time
}

type service struct {
	userService     UserService
	orderService    OrderService
	proposalService ProposalService
	adminService    AdminService
	renderer        *Renderer
}

func New(stg storage.IStorage, deps Deps, log logger.ILogger) IServiceManager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Matcher == nil {
		deps.Matcher = matcher.NewSubstring()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = broadcast.New(deps.Messenger, log, broadcast.WithMetrics(deps.Metrics))
	}

	n := &notifier{msg: deps.Messenger, log: log}
	gate := newGate(deps.AdminIDs)
	r := NewRenderer(deps.Location)

	return &service{
		userService:     NewUserService(stg, deps, gate, n, r, log),
		orderService:    NewOrderService(stg, deps, gate, n, r, log),
		proposalService: NewProposalService(stg, deps, n, r, log),
		adminService:    NewAdminService(stg, gate, n, r, log),
		renderer:        r,
	}
}

func (s *service) User() UserService {
	return s.userService
}

func (s *service) Order() OrderService {
	return s.orderService
}

func (s *service) Proposal() ProposalService {
	return s.proposalService
}

func (s *service) Admin() AdminService {
	return s.adminService
}

func (s *service) Render() *Renderer {
	return s.renderer
}

// notifier sends best-effort messages. A failed send is logged and dropped.
type notifier struct {
	msg transport.Messenger
	log logger.ILogger
}

func (n *notifier) send(ctx context.Context, to int64, text string, kb transport.Keyboard) bool {
	if n.msg == nil || to == 0 {
		return false
	}
	if err := n.msg.SendText(ctx, to, text, kb); err != nil {
		n.log.Warning("notification failed", logger.Int64("to", to), logger.Error(err))
		return false
	}
	return true
}

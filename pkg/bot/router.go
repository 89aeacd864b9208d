package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"dogbot/pkg/logger"
	"dogbot/pkg/metrics"
	"dogbot/pkg/models"
	"dogbot/pkg/session"
	"dogbot/pkg/transport"
	"dogbot/pkg/wizard"
	"dogbot/service"
)

// Event is one inbound update: a text message or a button press.
type Event struct {
	TraceID     string
	UserID      int64
	ChatID      int64
	Username    string
	DisplayName string
	// Text is set for messages, Data for button presses.
	Text string
	Data string
}

func (e Event) key() session.Key {
	return session.Key{UserID: e.UserID, ChatID: e.ChatID}
}

func (e Event) user() *models.User {
	return &models.User{ID: e.UserID, Username: e.Username, DisplayName: e.DisplayName}
}

type handlerFunc func(ctx context.Context, ev Event, args string) error

// Router turns events into service calls and replies. It knows nothing about
// Telegram; the Bot adapter feeds it.
type Router struct {
	svc      service.IServiceManager
	sessions session.Store
	msg      transport.Messenger
	metrics  *metrics.Metrics
	log      logger.ILogger
	loc      *time.Location
	now      func() time.Time

	orders    *wizard.Order
	walkers   *wizard.Walker
	proposals *wizard.Proposal

	commands map[string]handlerFunc
	menu     map[string]handlerFunc
}

type Option func(*Router)

func WithLocation(loc *time.Location) Option {
	return func(r *Router) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRouter(svc service.IServiceManager, sessions session.Store, msg transport.Messenger, log logger.ILogger, opts ...Option) *Router {
	r := &Router{
		svc:       svc,
		sessions:  sessions,
		msg:       msg,
		log:       log,
		loc:       time.UTC,
		now:       time.Now,
		walkers:   wizard.NewWalker(),
		proposals: wizard.NewProposal(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.orders = wizard.NewOrder(r.loc, svc.Render().Summary)

	r.commands = map[string]handlerFunc{
		"start":        r.cmdStart,
		"help":         r.cmdHelp,
		"cancel":       r.cmdCancel,
		"skip":         r.cmdSkip,
		"whoami":       r.cmdWhoami,
		"role":         r.cmdRole,
		"set_role":     r.cmdSetRole,
		"candidates":   r.cmdCandidates,
		"cancel_order": r.cmdCancelOrder,
		"reschedule":   r.cmdReschedule,
		"set_address":  r.cmdSetAddress,
		"my_orders":    r.cmdMyOrders,
		"profile":      r.cmdProfile,
		"set_areas":    r.cmdSetAreas,
		"set_rate":     r.cmdSetRate,
		"pending":      r.cmdPending,
		"approve":      r.cmdApprove,
		"reject":       r.cmdReject,
		"reassign":     r.cmdReassign,
	}
	r.menu = map[string]handlerFunc{
		btnServices: r.menuServices,
		btnWork:     r.menuWork,
		btnManager:  r.menuManager,
		btnFAQ:      r.menuFAQ,
	}
	return r
}

// Commands lists the registered slash commands without the slash.
func (r *Router) Commands() []string {
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	return out
}

// MenuButtons lists the reply-keyboard texts the router reacts to.
func (r *Router) MenuButtons() []string {
	return []string{btnServices, btnWork, btnManager, btnFAQ}
}

func (r *Router) HandleMessage(ctx context.Context, ev Event) error {
	ev, log := r.begin(ev)
	start := time.Now()
	defer func() { r.metrics.ObserveHandler("message", time.Since(start)) }()

	r.touch(ctx, ev, log)

	text := strings.TrimSpace(ev.Text)
	var err error
	if name, args, ok := parseCommand(text); ok {
		if h, found := r.commands[name]; found {
			log.Debug("command", logger.String("command", name))
			err = h(ctx, ev, args)
		} else {
			err = r.route(ctx, ev)
		}
	} else if h, found := r.menu[text]; found {
		err = h(ctx, ev, "")
	} else {
		err = r.route(ctx, ev)
	}
	return r.finish(ctx, ev, log, err)
}

func (r *Router) HandleCallback(ctx context.Context, ev Event) error {
	ev, log := r.begin(ev)
	start := time.Now()
	defer func() { r.metrics.ObserveHandler("callback", time.Since(start)) }()

	r.touch(ctx, ev, log)
	log.Debug("callback", logger.String("data", ev.Data))
	return r.finish(ctx, ev, log, r.callback(ctx, ev))
}

func (r *Router) begin(ev Event) (Event, logger.ILogger) {
	if ev.TraceID == "" {
		ev.TraceID = uuid.NewString()
	}
	if ev.ChatID == 0 {
		ev.ChatID = ev.UserID
	}
	return ev, r.log.With(logger.String("trace_id", ev.TraceID), logger.Int64("user_id", ev.UserID))
}

func (r *Router) touch(ctx context.Context, ev Event, log logger.ILogger) {
	if err := r.svc.User().Touch(ctx, ev.user()); err != nil {
		log.Warning("failed to record user", logger.Error(err))
	}
}

// finish turns a handler error into a reply. Only a failed reply is returned.
func (r *Router) finish(ctx context.Context, ev Event, log logger.ILogger, err error) error {
	if err == nil {
		return nil
	}
	text, known := describe(err)
	if !known {
		log.Error("handler failed", logger.Error(err))
	} else {
		log.Debug("handler refused", logger.Error(err))
	}
	return r.reply(ctx, ev, text, nil)
}

func (r *Router) reply(ctx context.Context, ev Event, text string, kb transport.Keyboard) error {
	if text == "" {
		return nil
	}
	return r.msg.SendText(ctx, ev.ChatID, text, kb)
}

// parseCommand splits "/name@bot args" into name and args.
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

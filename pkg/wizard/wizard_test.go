package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogbot/pkg/action"
	"dogbot/pkg/models"
	"dogbot/pkg/session"
	"dogbot/pkg/transport/transporttest"
)

var msk = time.FixedZone("MSK", 3*60*60)

func newOrderWizard(now time.Time) *Order {
	w := NewOrder(msk, func(o *models.Order) string { return "summary:" + o.PetName })
	w.now = func() time.Time { return now }
	return w
}

func feed(t *testing.T, w *Order, s *session.Session, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		step := w.HandleText(s, in)
		require.Equal(t, Continue, step.Outcome, "input %q: %s", in, step.Reply)
	}
}

func TestOrderWizardHappyPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w := newOrderWizard(now)
	s := session.New(session.Key{UserID: 77, ChatID: 77})

	step := w.Start(s)
	assert.Equal(t, session.FlowOrder, s.Flow)
	assert.Contains(t, transporttest.Data(step.Keyboard), "srv:walk")

	step = w.HandleAction(s, action.PickService("walk"))
	require.Equal(t, Continue, step.Outcome)
	assert.Equal(t, OrderWalkType, s.State)

	step = w.HandleAction(s, action.PickWalkType("active"))
	require.Equal(t, Continue, step.Outcome)

	feed(t, w, s, "Рекс", "MEDIUM", "Купчино", "завтра 10:30", "60", "ул. Ленина, 1", "1500")

	step = w.HandleText(s, "Не любит кошек")
	require.Equal(t, Continue, step.Outcome)
	assert.Equal(t, OrderConfirm, s.State)
	assert.Contains(t, step.Reply, "summary:Рекс")
	assert.ElementsMatch(t, []string{"ord:confirm", "ord:reject"}, transporttest.Data(step.Keyboard))

	step = w.HandleAction(s, action.ConfirmOrder())
	require.Equal(t, Commit, step.Outcome)

	o := Draft(s)
	assert.Equal(t, int64(77), o.ClientID)
	assert.Equal(t, models.ServiceWalk, o.Service)
	require.NotNil(t, o.WalkType)
	assert.Equal(t, models.WalkActive, *o.WalkType)
	assert.Equal(t, models.PetMedium, o.PetSize)
	assert.Equal(t, "Купчино", o.Area)
	assert.Equal(t, time.Date(2026, 10, 20, 7, 30, 0, 0, time.UTC), o.ScheduledAt)
	assert.True(t, o.ScheduledAt.After(now))
	assert.Equal(t, 60, o.DurationMinutes)
	require.NotNil(t, o.Budget)
	assert.Equal(t, 1500, *o.Budget)
	require.NotNil(t, o.Comment)
	assert.Equal(t, "Не любит кошек", *o.Comment)
}

func TestOrderWizardSkipsAndNonWalk(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w := newOrderWizard(now)
	s := session.New(session.Key{UserID: 1})
	w.Start(s)

	step := w.HandleAction(s, action.PickService("boarding"))
	require.Equal(t, Continue, step.Outcome)
	assert.Equal(t, OrderPetName, s.State)

	feed(t, w, s, "Бим", "small", "Центр", "2026-10-25 09.00", "720", "Невский пр., 10", "/skip", "/skip")
	assert.Equal(t, OrderConfirm, s.State)

	o := Draft(s)
	assert.Nil(t, o.WalkType)
	assert.Nil(t, o.Budget)
	assert.Nil(t, o.Comment)
	assert.Equal(t, time.Date(2026, 10, 25, 6, 0, 0, 0, time.UTC), o.ScheduledAt)
}

func TestOrderWizardRejectsBadInput(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w := newOrderWizard(now)
	s := session.New(session.Key{UserID: 1})
	w.Start(s)

	step := w.HandleText(s, "выгул")
	assert.Equal(t, Invalid, step.Outcome)
	assert.Equal(t, OrderService, s.State)

	step = w.HandleAction(s, action.PickWalkType("normal"))
	assert.Equal(t, Invalid, step.Outcome)

	w.HandleAction(s, action.PickService("nanny"))
	feed(t, w, s, "Бим")

	step = w.HandleText(s, "огромный")
	assert.Equal(t, Invalid, step.Outcome)
	assert.Equal(t, OrderPetSize, s.State)
	assert.Contains(t, step.Reply, "small / medium / large")

	feed(t, w, s, "large", "Ц2")

	for _, bad := range []string{"вчера", "2026-10-19 14:00", "сегодня 15:00"} {
		step = w.HandleText(s, bad)
		assert.Equal(t, Invalid, step.Outcome, bad)
		assert.Equal(t, OrderWhen, s.State)
	}
	feed(t, w, s, "сегодня 15:01")

	for _, bad := range []string{"0", "721", "час"} {
		step = w.HandleText(s, bad)
		assert.Equal(t, Invalid, step.Outcome, bad)
	}
	feed(t, w, s, "30")

	step = w.HandleText(s, "дом")
	assert.Equal(t, Invalid, step.Outcome)
	feed(t, w, s, "ул. Мира, 3")

	step = w.HandleText(s, "2000000")
	assert.Equal(t, Invalid, step.Outcome)
	assert.Equal(t, OrderBudget, s.State)
}

func TestOrderWizardAbort(t *testing.T) {
	w := newOrderWizard(time.Now())
	s := session.New(session.Key{UserID: 1})
	w.Start(s)
	w.HandleAction(s, action.PickService("walk"))

	step := w.HandleAction(s, action.BackToMain())
	assert.Equal(t, Abort, step.Outcome)
	assert.False(t, s.Active())

	w.Start(s)
	w.HandleAction(s, action.PickService("nanny"))
	s.State = OrderConfirm
	step = w.HandleAction(s, action.RejectOrder())
	assert.Equal(t, Abort, step.Outcome)
	assert.False(t, s.Active())
	assert.Empty(t, s.Order.Service)
}

func TestWalkerWizard(t *testing.T) {
	w := NewWalker()
	s := session.New(session.Key{UserID: 10, ChatID: 10})
	w.Start(s)
	assert.Equal(t, session.FlowWalker, s.Flow)

	assert.Equal(t, Continue, w.HandleText(s, "Аня").Outcome)

	step := w.HandleText(s, "89990000000")
	assert.Equal(t, Invalid, step.Outcome)
	assert.Equal(t, WalkerPhone, s.State)

	assert.Equal(t, Continue, w.HandleText(s, "+7 999 000 00 00").Outcome)
	assert.Equal(t, Continue, w.HandleText(s, "Вожу собак 3 года, 700 руб/ч").Outcome)

	step = w.HandleText(s, "Купчино, Центр")
	require.Equal(t, Commit, step.Outcome)

	user, profile := Profile(s, "anya")
	assert.Equal(t, models.RoleWalker, user.Role)
	assert.Equal(t, "Аня", user.DisplayName)
	assert.Equal(t, "anya", user.Username)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, "+79990000000", *profile.Phone)
	require.NotNil(t, profile.BaseRate)
	assert.Equal(t, 700, *profile.BaseRate)
	assert.Equal(t, "Купчино, Центр", profile.Areas)
	assert.False(t, profile.IsApproved)
}

func TestProposalWizard(t *testing.T) {
	w := NewProposal()
	s := session.New(session.Key{UserID: 10, ChatID: 10})

	step := w.Start(s, 42)
	assert.Contains(t, step.Reply, "#42")
	assert.Equal(t, session.FlowProposal, s.Flow)

	step = w.HandleText(s, "-5")
	assert.Equal(t, Invalid, step.Outcome)
	assert.Equal(t, ProposalPrice, s.State)

	assert.Equal(t, Continue, w.HandleText(s, "1 200").Outcome)

	step = w.HandleText(s, "  ")
	require.Equal(t, Commit, step.Outcome)

	p := ProposalDraft(s)
	assert.Equal(t, int64(42), p.OrderID)
	assert.Equal(t, int64(10), p.WalkerID)
	assert.Equal(t, 1200, p.Price)
	assert.Nil(t, p.Note)
}

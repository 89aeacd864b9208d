package service

import (
	"fmt"
	"strings"
	"time"

	"dogbot/pkg/action"
	"dogbot/pkg/models"
	"dogbot/pkg/transport"
)

const (
	timeLayout    = "2006-01-02 15:04"
	maxCandidates = 20
	dash          = "—"
)

// Renderer builds the user-facing texts. Times are shown in the reference
// zone the wizard reads them in.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

func OrderTitle(service models.Service, walkType *models.WalkType) string {
	var title string
	switch service {
	case models.ServiceWalk:
		title = "🦮 Выгул"
	case models.ServiceBoarding:
		title = "🏡 Передержка"
	case models.ServiceNanny:
		title = "👩‍🍼 Няня"
	default:
		title = "🐶 Услуга"
	}
	if service == models.ServiceWalk && walkType != nil {
		switch *walkType {
		case models.WalkNormal:
			title += " (Обычный)"
		case models.WalkActive:
			title += " (Активный)"
		}
	}
	return title
}

func (r *Renderer) When(t time.Time) string {
	local := t.In(r.loc)
	return local.Format(timeLayout) + " " + local.Format("MST")
}

// Summary is shown to the client before the order is sent out.
func (r *Renderer) Summary(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", OrderTitle(o.Service, o.WalkType))
	fmt.Fprintf(&b, "Имя: %s | Размер: %s\n", o.PetName, o.PetSize)
	fmt.Fprintf(&b, "Район: %s\n", o.Area)
	fmt.Fprintf(&b, "Когда: %s • %d мин\n", r.When(o.ScheduledAt), o.DurationMinutes)
	fmt.Fprintf(&b, "Адрес: %s\n", o.Address)
	fmt.Fprintf(&b, "Бюджет: %s\n", intOrDash(o.Budget))
	fmt.Fprintf(&b, "Комментарий: %s", strOrDash(o.Comment))
	return b.String()
}

// OrderCard is what walkers receive in the broadcast.
func (r *Renderer) OrderCard(o *models.Order, client *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", OrderTitle(o.Service, o.WalkType))
	fmt.Fprintf(&b, "Заказ #%d\n", o.ID)
	if client != nil {
		fmt.Fprintf(&b, "Клиент: %s\n", userTag(client))
	}
	fmt.Fprintf(&b, "%s • %s • %d мин\n", o.PetName, o.PetSize, o.DurationMinutes)
	fmt.Fprintf(&b, "Район: %s\n", o.Area)
	fmt.Fprintf(&b, "Когда: %s\n", r.When(o.ScheduledAt))
	fmt.Fprintf(&b, "Адрес: %s\n", o.Address)
	fmt.Fprintf(&b, "Бюджет: %s\n", intOrDash(o.Budget))
	fmt.Fprintf(&b, "Комментарий: %s", strOrDash(o.Comment))
	return b.String()
}

// OrderLine is one entry of /my_orders.
func (r *Renderer) OrderLine(o *models.Order) (string, transport.Keyboard) {
	text := fmt.Sprintf("%s\n#%d • статус: %s\nКогда: %s", OrderTitle(o.Service, o.WalkType), o.ID, o.Status, r.When(o.ScheduledAt))
	if o.Comment != nil {
		text += "\n" + *o.Comment
	}
	var kb transport.Keyboard
	if !o.Status.Terminal() {
		kb = transport.Rows(transport.Row(transport.ActionButton("👀 Кандидаты", action.ListCandidates(o.ID))))
	}
	return text, kb
}

func (r *Renderer) ProposalNotice(orderID int64, walker *models.User, p *models.Proposal) (string, transport.Keyboard) {
	text := fmt.Sprintf("📝 Новый отклик на заказ #%d\nИсполнитель: %s\nЦена: %d\nКомментарий: %s",
		orderID, userTag(walker), p.Price, strOrDash(p.Note))
	kb := transport.Rows(
		transport.Row(transport.ActionButton("✅ Выбрать этого исполнителя", action.ChooseWalker(orderID, p.WalkerID))),
		transport.Row(transport.ActionButton("👀 Все кандидаты", action.ListCandidates(orderID))),
	)
	return text, kb
}

func (r *Renderer) Candidates(orderID int64, cands []*models.Candidate) (string, transport.Keyboard) {
	if len(cands) == 0 {
		return fmt.Sprintf("На заказ #%d пока нет откликов.", orderID), transport.Rows(
			transport.Row(transport.ActionButton("🔄 Обновить", action.ListCandidates(orderID))),
		)
	}
	if len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}

	lines := make([]string, 0, len(cands))
	rows := make([][]transport.Button, 0, len(cands))
	for _, c := range cands {
		name := displayName(c.DisplayName, c.WalkerID)
		var extra string
		if c.Username != "" {
			extra += " @" + c.Username
		}
		if c.BaseRate != nil {
			extra += fmt.Sprintf(", ставка %d₽/ч", *c.BaseRate)
		}
		if c.Phone != nil {
			extra += ", " + *c.Phone
		}
		lines = append(lines, fmt.Sprintf("• %s%s — %d₽ — %s", name, extra, c.Price, strOrDash(c.Note)))
		rows = append(rows, transport.Row(
			transport.ActionButton("✅ Выбрать "+name, action.ChooseWalker(orderID, c.WalkerID)),
			transport.ActionButton("ℹ️ Профиль", action.ViewProfile(orderID, c.WalkerID)),
		))
	}
	return fmt.Sprintf("Кандидаты на #%d:\n%s", orderID, strings.Join(lines, "\n")), transport.Rows(rows...)
}

// Profile renders a walker card for a client choosing among candidates.
func (r *Renderer) Profile(orderID int64, p *models.WalkerProfile) (string, transport.Keyboard) {
	name := displayName(p.DisplayName, p.WalkerID)
	text := fmt.Sprintf("ℹ️ Профиль исполнителя\n%s%s\nТелефон: %s\nСтавка: %s\nРайоны: %s\nО себе: %s",
		name, atUsername(p.Username), strOrDash(p.Phone), rateOrDash(p.BaseRate), orDash(p.Areas), strOrDash(p.Bio))
	kb := transport.Rows(
		transport.Row(transport.ActionButton("✅ Выбрать "+name, action.ChooseWalker(orderID, p.WalkerID))),
		transport.Row(transport.ActionButton("⬅️ Назад к кандидатам", action.ListCandidates(orderID))),
	)
	return text, kb
}

// OwnProfile is the walker's view of their own card.
func (r *Renderer) OwnProfile(p *models.WalkerProfile) string {
	status := "ожидает одобрения"
	if p.IsApproved {
		status = "одобрен"
	}
	return fmt.Sprintf("👤 Твой профиль исполнителя\nТелефон: %s\nСтавка: %s\nРайоны: %s\nСтатус: %s",
		strOrDash(p.Phone), rateOrDash(p.BaseRate), orDash(p.Areas), status)
}

func (r *Renderer) Pending(list []*models.WalkerProfile) string {
	if len(list) == 0 {
		return "Очередь пустая."
	}
	if len(list) > maxCandidates {
		list = list[:maxCandidates]
	}
	lines := make([]string, 0, len(list))
	for _, p := range list {
		lines = append(lines, fmt.Sprintf("• %s%s id=%d | ставка: %s | районы: %s",
			displayName(p.DisplayName, p.WalkerID), atUsername(p.Username), p.WalkerID, rateOrDash(p.BaseRate), orDash(p.Areas)))
	}
	return "Ожидают одобрения:\n" + strings.Join(lines, "\n")
}

// NewWalker is sent to admins when someone finishes onboarding.
func (r *Renderer) NewWalker(u *models.User, p *models.WalkerProfile) (string, transport.Keyboard) {
	text := fmt.Sprintf("🆕 Новый исполнитель\n%s id=%d\nТелефон: %s\nСтавка: %s\nРайоны: %s\nО себе: %s",
		userTag(u), u.ID, strOrDash(p.Phone), rateOrDash(p.BaseRate), orDash(p.Areas), strOrDash(p.Bio))
	kb := transport.Rows(transport.Row(
		transport.ActionButton("✅ Одобрить", action.ApproveWalker(u.ID)),
		transport.ActionButton("❌ Отклонить", action.RejectWalker(u.ID)),
	))
	return text, kb
}

func userTag(u *models.User) string {
	return displayName(u.DisplayName, u.ID) + atUsername(u.Username)
}

func displayName(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("id %d", id)
	}
	return name
}

func atUsername(username string) string {
	if username == "" {
		return ""
	}
	return " @" + username
}

func intOrDash(v *int) string {
	if v == nil {
		return dash
	}
	return fmt.Sprint(*v)
}

func rateOrDash(v *int) string {
	if v == nil {
		return dash
	}
	return fmt.Sprintf("%d₽/ч", *v)
}

func strOrDash(v *string) string {
	if v == nil {
		return dash
	}
	return orDash(*v)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return dash
	}
	return v
}

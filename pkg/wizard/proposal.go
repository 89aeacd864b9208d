package wizard

import (
	"fmt"

	"dogbot/pkg/input"
	"dogbot/pkg/models"
	"dogbot/pkg/session"
)

const (
	ProposalPrice session.State = "proposal.price"
	ProposalNote  session.State = "proposal.note"
)

// Proposal collects a walker's price and note for one order.
type Proposal struct{}

func NewProposal() *Proposal { return &Proposal{} }

func (w *Proposal) Start(s *session.Session, orderID int64) Step {
	s.Reset()
	s.Flow = session.FlowProposal
	s.State = ProposalPrice
	s.Proposal.OrderID = orderID
	return next(fmt.Sprintf("Отклик на заказ #%d. Ваша цена (числом)?", orderID))
}

func (w *Proposal) HandleText(s *session.Session, text string) Step {
	switch s.State {
	case ProposalPrice:
		price, err := input.Price(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Proposal.Price = price
		s.State = ProposalNote
		return next("Короткий комментарий (опционально). /skip если нечего добавить.")

	case ProposalNote:
		if input.IsSkip(text) {
			s.Proposal.Note = nil
		} else {
			s.Proposal.Note = input.Note(text)
		}
		return Step{Outcome: Commit}
	}
	return retry("Эта команда сейчас не к месту :)", nil)
}

// ProposalDraft builds the proposal the session describes.
func ProposalDraft(s *session.Session) *models.Proposal {
	return &models.Proposal{
		OrderID:  s.Proposal.OrderID,
		WalkerID: s.Key.UserID,
		Price:    s.Proposal.Price,
		Note:     s.Proposal.Note,
	}
}

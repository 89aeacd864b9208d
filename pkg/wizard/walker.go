package wizard

import (
	"dogbot/pkg/input"
	"dogbot/pkg/models"
	"dogbot/pkg/session"
)

const (
	WalkerName  session.State = "walker.name"
	WalkerPhone session.State = "walker.phone"
	WalkerBio   session.State = "walker.bio"
	WalkerAreas session.State = "walker.areas"
)

// Walker collects a provider profile.
type Walker struct{}

func NewWalker() *Walker { return &Walker{} }

func (w *Walker) Start(s *session.Session) Step {
	s.Reset()
	s.Flow = session.FlowWalker
	s.State = WalkerName
	return next("Как к тебе обращаться? (Имя и, если хочешь, коротко о себе)")
}

func (w *Walker) HandleText(s *session.Session, text string) Step {
	switch s.State {
	case WalkerName:
		name, err := input.Name(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Walker.Name = name
		s.State = WalkerPhone
		return next("Телефон для связи (пример: +79990000000).")

	case WalkerPhone:
		phone, err := input.Phone(text)
		if err != nil {
			return invalidInput(err)
		}
		s.Walker.Phone = phone
		s.State = WalkerBio
		return next("Коротко об опыте: породы, сколько водишь, особенности. Можно указать ставку числом (руб/ч).")

	case WalkerBio:
		s.Walker.Bio, s.Walker.Rate = input.Bio(text)
		s.State = WalkerAreas
		return next("В каких районах работаешь? Укажи через запятую (например: Центр, Савёловский, Купчино).")

	case WalkerAreas:
		s.Walker.Areas = input.Areas(text)
		return Step{Outcome: Commit}
	}
	return retry("Эта команда сейчас не к месту :)", nil)
}

// Profile turns the collected draft into the user and profile rows.
func Profile(s *session.Session, username string) (*models.User, *models.WalkerProfile) {
	d := s.Walker
	user := &models.User{
		ID:          s.Key.UserID,
		Role:        models.RoleWalker,
		Username:    username,
		DisplayName: d.Name,
	}
	if d.Phone != "" {
		phone := d.Phone
		user.Phone = &phone
	}
	profile := &models.WalkerProfile{
		WalkerID: s.Key.UserID,
		Phone:    user.Phone,
		Areas:    d.Areas,
		BaseRate: d.Rate,
	}
	if d.Bio != "" {
		bio := d.Bio
		profile.Bio = &bio
		profile.Experience = &bio
	}
	return user, profile
}

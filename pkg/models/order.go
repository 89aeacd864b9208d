package models

import "time"

type Service string

const (
	ServiceWalk     Service = "walk"
	ServiceBoarding Service = "boarding"
	ServiceNanny    Service = "nanny"
)

func (s Service) Valid() bool {
	switch s {
	case ServiceWalk, ServiceBoarding, ServiceNanny:
		return true
	}
	return false
}

type WalkType string

const (
	WalkNormal WalkType = "normal"
	WalkActive WalkType = "active"
)

func (w WalkType) Valid() bool {
	return w == WalkNormal || w == WalkActive
}

type PetSize string

const (
	PetSmall  PetSize = "small"
	PetMedium PetSize = "medium"
	PetLarge  PetSize = "large"
)

func (p PetSize) Valid() bool {
	switch p {
	case PetSmall, PetMedium, PetLarge:
		return true
	}
	return false
}

const MaxDurationMinutes = 720

type Order struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"client_id" validate:"required"`
	Service         Service   `json:"service" validate:"required,oneof=walk boarding nanny"`
	WalkType        *WalkType `json:"walk_type" validate:"omitempty,oneof=normal active"`
	PetName         string    `json:"pet_name" validate:"required,max=64"`
	PetSize         PetSize   `json:"pet_size" validate:"required,oneof=small medium large"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=1,max=720"`
	Address         string    `json:"address" validate:"required,min=5"`
	Budget          *int      `json:"budget" validate:"omitempty,min=0,max=1000000"`
	Area            string    `json:"area" validate:"required,min=2,max=64"`
	Comment         *string   `json:"comment" validate:"omitempty,max=500"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

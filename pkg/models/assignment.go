package models

import "time"

type Assignment struct {
	OrderID    int64     `json:"order_id"`
	WalkerID   int64     `json:"walker_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

package models

type Role string

const (
	RoleClient Role = "client"
	RoleWalker Role = "walker"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWalker, RoleAdmin:
		return true
	}
	return false
}

// User is keyed by the Telegram user id.
type User struct {
	ID          int64   `json:"id"`
	Role        Role    `json:"role"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Phone       *string `json:"phone"`
}

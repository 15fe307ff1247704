package domain

import "time"

// User is the site operator. The admin area is single-tenant: one or a
// handful of operator accounts, no roles.
type User struct {
	ID           int64     `json:"-"`
	PublicID     string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

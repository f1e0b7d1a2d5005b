package domain

import "time"

// Client is a customer receiving interventions. UserID links the optional
// login account.
type Client struct {
	ID        string
	Name      string
	Address   string
	UserID    *string
	CreatedAt time.Time
}

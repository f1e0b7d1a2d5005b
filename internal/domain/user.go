package domain

import "time"

// User is an account: an administrator, a client login or an intervenant.
type User struct {
	ID           string
	Username     string
	Role         Role
	PasswordHash string
	ServiceIDs   []string
	ClientIDs    []string
	CreatedAt    time.Time
}

// Actor returns the identity view of the account.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

package domain

import "fmt"

// Role tags an actor with the part it plays in the system.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleClient      Role = "client"
	RoleIntervenant Role = "intervenant"
)

// ParseRole converts a stored tag into a Role.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleClient, RoleIntervenant:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// Actor is the authenticated identity invoking an operation.
type Actor struct {
	ID   string
	Role Role
}

package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IntervenantRequest creates or updates an intervenant. On update an empty
// password keeps the current one.
type IntervenantRequest struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	ServiceIDs []string `json:"service_ids"`
	ClientIDs  []string `json:"client_ids"`
}

// UserResponse describes an account without its credentials.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	ServiceIDs []string  `json:"service_ids"`
	ClientIDs  []string  `json:"client_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// IntervenantDetailResponse is an intervenant with their work.
type IntervenantDetailResponse struct {
	User          UserResponse           `json:"user"`
	Interventions []InterventionResponse `json:"interventions"`
}

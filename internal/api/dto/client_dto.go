package dto

import "time"

// CreateClientRequest creates a client login and its profile.
type CreateClientRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// ClientResponse describes a client profile.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	UserID    *string   `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ServiceResponse describes a kind of work.
type ServiceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClientDetailResponse is a client with the interventions it received.
type ClientDetailResponse struct {
	Client        ClientResponse         `json:"client"`
	Interventions []InterventionResponse `json:"interventions"`
}

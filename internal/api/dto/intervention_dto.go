package dto

import "time"

// ScheduleRequest payload. IntervenantID is only read on the admin route.
type ScheduleRequest struct {
	IntervenantID string `json:"intervenant_id"`
	ClientID      string `json:"client_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Description   string `json:"description"`
}

// ScanRequest is the optional body of a scan. Missing ids fall back to the
// configured defaults.
type ScanRequest struct {
	ServiceID string `json:"service_id"`
	ClientID  string `json:"client_id"`
}

// DeletionRequest carries the reason for a deletion request.
type DeletionRequest struct {
	Reason string `json:"reason"`
}

// ResolveRequest carries an admin decision: approve or reject.
type ResolveRequest struct {
	Action string `json:"action"`
}

// InterventionResponse describes one intervention.
type InterventionResponse struct {
	ID                 string     `json:"id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	Description        *string    `json:"description"`
	Status             string     `json:"status"`
	CancellationReason *string    `json:"cancellation_reason"`
	IntervenantID      string     `json:"intervenant_id"`
	ClientID           string     `json:"client_id"`
	ServiceID          string     `json:"service_id"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToggleResponse reports what a scan did.
type ToggleResponse struct {
	Action       string               `json:"action"`
	Intervention InterventionResponse `json:"intervention"`
}

// IntervenantDashboardResponse splits work around the request time.
type IntervenantDashboardResponse struct {
	Upcoming []InterventionResponse `json:"upcoming"`
	History  []InterventionResponse `json:"history"`
	Clients  []ClientResponse       `json:"clients"`
}

// ClientDashboardResponse lists a client's interventions.
type ClientDashboardResponse struct {
	Client        *ClientResponse        `json:"client"`
	Interventions []InterventionResponse `json:"interventions"`
}

// AdminDashboardResponse is the administrator overview.
type AdminDashboardResponse struct {
	Interventions    []InterventionResponse `json:"interventions"`
	Intervenants     []UserResponse         `json:"intervenants"`
	Clients          []ClientResponse       `json:"clients"`
	Services         []ServiceResponse      `json:"services"`
	PendingDeletions []InterventionResponse `json:"pending_deletions"`
}

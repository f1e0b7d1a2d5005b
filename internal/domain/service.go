package domain

// Service is a category of work, such as cleaning or gardening.
type Service struct {
	ID   string
	Name string
}

package ticket

import "time"

// Status is the triage state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
)

// Priority ranks how urgent a ticket is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Ticket is a support request filed by a user and triaged by admins.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidStatus reports whether s is one of the known triage states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

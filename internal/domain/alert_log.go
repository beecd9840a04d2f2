package domain

import "time"

type AlertStatus string

const (
	AlertStatusSent       AlertStatus = "sent"
	AlertStatusFailed     AlertStatus = "failed"
	AlertStatusNoContacts AlertStatus = "no_contacts"
)

// History entry written after each handled dispatch.
type AlertLog struct {
	ID          string
	UserID      string
	Location    Location
	Status      AlertStatus
	SentCount   int
	FailedCount int
	CreatedAt   time.Time
}

// Derive the history status of a dispatch result.
func StatusOf(r DispatchResult) AlertStatus {
	switch {
	case r.NoContacts:
		return AlertStatusNoContacts
	case r.OverallSuccess:
		return AlertStatusSent
	default:
		return AlertStatusFailed
	}
}

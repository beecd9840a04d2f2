package ports

import (
	"context"
	"sos-alert-service/internal/domain"
)

// Port: a boundary for resolving who should receive a user's SOS alert.
type ContactDirectory interface {
	// Return every contact registered by userID. No contacts is an empty slice, not an error.
	ResolveContacts(ctx context.Context, userID string) ([]domain.Contact, error)
}

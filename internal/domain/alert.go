package domain

// A validated SOS trigger. Consumed once by a dispatch and never stored as-is.
type AlertRequest struct {
	Location Location
	UserID   string
}

// A person registered to receive a user's SOS alerts.
// The dispatch path only reads a snapshot of contacts for one request.
type Contact struct {
	Name        string
	PhoneNumber string
}

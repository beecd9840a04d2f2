package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sos-alert-service/internal/domain"
	"strings"
)

// Unvalidated SOS payload. Coordinates stay raw so a missing value
// can be told apart from a non-numeric one.
type AlertPayload struct {
	Location *LocationPayload
	UserID   string
}

type LocationPayload struct {
	Lat json.RawMessage
	Lng json.RawMessage
}

// ValidateAlertRequest checks an inbound payload before any external call is made.
func ValidateAlertRequest(p AlertPayload) (domain.AlertRequest, error) {
	if p.Location == nil {
		return domain.AlertRequest{}, fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}

	lat, err := parseCoordinate("location.lat", p.Location.Lat)
	if err != nil {
		return domain.AlertRequest{}, err
	}
	if lat < -90 || lat > 90 {
		return domain.AlertRequest{}, fmt.Errorf("%w: location.lat must be between -90 and 90", ErrInvalidRequest)
	}

	lng, err := parseCoordinate("location.lng", p.Location.Lng)
	if err != nil {
		return domain.AlertRequest{}, err
	}
	if lng < -180 || lng > 180 {
		return domain.AlertRequest{}, fmt.Errorf("%w: location.lng must be between -180 and 180", ErrInvalidRequest)
	}

	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return domain.AlertRequest{}, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}

	return domain.AlertRequest{
		Location: domain.Location{Lat: lat, Lng: lng},
		UserID:   userID,
	}, nil
}

func parseCoordinate(field string, raw json.RawMessage) (float64, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}

	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, field)
	}
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}

	return *v, nil
}

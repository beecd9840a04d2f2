package dto

import "encoding/json"

// Coordinates stay raw so the validator can tell a missing value from a non-numeric one.
type LocationRequest struct {
	Lat json.RawMessage `json:"lat"`
	Lng json.RawMessage `json:"lng"`
}

type SendAlertRequest struct {
	Location *LocationRequest `json:"location"`
	UserID   string           `json:"userId"`
}

// One entry per contact. phoneNumber is only set on failure and is always redacted.
type AlertResultResponse struct {
	Success     bool   `json:"success"`
	Contact     string `json:"contact"`
	SID         string `json:"sid,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type SendAlertResponse struct {
	Success         bool                  `json:"success"`
	Results         []AlertResultResponse `json:"results"`
	Message         string                `json:"message"`
	DetailedMessage string                `json:"detailedMessage,omitempty"`
}

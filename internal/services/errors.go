package services

import (
	"errors"
	"sos-alert-service/internal/ports"
)

// Request-level failures. Per-recipient failures never surface as errors;
// they are recorded in the DispatchOutcome of that recipient.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrDirectoryUnavailable = errors.New("contact directory unavailable")
	ErrGatewayConfiguration = ports.ErrGatewayConfiguration
)

// Outcome error codes.
const (
	CodeInvalidNumber = "INVALID_NUMBER"
	CodeSendFailed    = "SEND_FAILED"
)

package ports

import (
	"context"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
)

// ErrGatewayConfiguration marks missing or invalid gateway credentials or sender identity.
var ErrGatewayConfiguration = errors.New("gateway configuration error")

// Outbound message for one recipient.
type SMSMessage struct {
	To   domain.NormalizedPhoneNumber
	From string
	Body string
}

// Contract for a third-party messaging gateway.
type SMSGateway interface {
	// Send one message and return the gateway-assigned message id.
	// Failures should be returned as *GatewayError so callers can classify them.
	Send(ctx context.Context, msg SMSMessage) (string, error)
}

// Closed set of gateway failure classes.
type GatewayErrorKind int

const (
	GatewayErrUnknown GatewayErrorKind = iota
	GatewayErrInvalidNumber
	GatewayErrSenderNotAuthorized
	GatewayErrRecipientBlocked
	GatewayErrRegionNotAuthorized
	GatewayErrUnauthorized
	GatewayErrUnavailable
)

func (k GatewayErrorKind) String() string {
	switch k {
	case GatewayErrInvalidNumber:
		return "invalid_number"
	case GatewayErrSenderNotAuthorized:
		return "sender_not_authorized"
	case GatewayErrRecipientBlocked:
		return "recipient_blocked"
	case GatewayErrRegionNotAuthorized:
		return "region_not_authorized"
	case GatewayErrUnauthorized:
		return "unauthorized"
	case GatewayErrUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// GatewayError is a classified send failure.
// Code is the vendor code when the gateway supplied one.
type GatewayError struct {
	Kind    GatewayErrorKind
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s (code %s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

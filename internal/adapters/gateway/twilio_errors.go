package gateway

import (
	"errors"
	"net/http"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/ports"
	"strconv"
)

// Twilio error codes with a dedicated kind. Everything else falls back to the HTTP status.
var twilioErrorKinds = map[int]ports.GatewayErrorKind{
	21211: ports.GatewayErrInvalidNumber,       // invalid 'To' number
	21614: ports.GatewayErrInvalidNumber,       // 'To' is not a mobile number
	21212: ports.GatewayErrSenderNotAuthorized, // invalid 'From' number
	21606: ports.GatewayErrSenderNotAuthorized, // 'From' not SMS-capable for this account
	21659: ports.GatewayErrSenderNotAuthorized, // 'From' not a Twilio number
	21610: ports.GatewayErrRecipientBlocked,    // recipient replied STOP
	21408: ports.GatewayErrRegionNotAuthorized, // geo permissions not enabled
	21612: ports.GatewayErrRegionNotAuthorized, // cannot route to this number
	20003: ports.GatewayErrUnauthorized,        // authentication failed
}

// classifyError turns a failed request into a GatewayError. Twilio echoes the
// recipient in some messages (e.g. 21211), so the number is scrubbed from the
// vendor text before it can reach a log line.
func classifyError(err error, to domain.NormalizedPhoneNumber) *ports.GatewayError {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return &ports.GatewayError{Kind: ports.GatewayErrUnavailable, Message: "request failed", Err: err}
	}
	he.Message = domain.ScrubNumber(he.Message, to)

	kind, ok := twilioErrorKinds[he.Code]
	if !ok {
		kind = kindForStatus(he.Status)
	}

	code := ""
	if he.Code != 0 {
		code = strconv.Itoa(he.Code)
	}
	msg := he.Message
	if msg == "" {
		msg = http.StatusText(he.Status)
	}

	return &ports.GatewayError{Kind: kind, Code: code, Message: msg, Err: err}
}

func kindForStatus(status int) ports.GatewayErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ports.GatewayErrUnauthorized
	case status == http.StatusTooManyRequests || status >= 500:
		return ports.GatewayErrUnavailable
	default:
		return ports.GatewayErrUnknown
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/metrics"
	"sos-alert-service/internal/platform/obs"
	"sos-alert-service/internal/ports"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DispatcherConfig is built once at start-up from the environment.
type DispatcherConfig struct {
	// Dialable number messages are sent from.
	SenderID string
	// Upper bound on in-flight gateway sends within one dispatch.
	Concurrency int
}

// AlertDispatcher sends one SOS message per registered contact.
//
// It holds no per-request state and is safe for concurrent use.
// Each recipient is an independent failure domain: a bad number or a
// gateway error for one contact is recorded in that contact's outcome and
// never cancels, blocks or alters the sends to the others.
type AlertDispatcher struct {
	directory   ports.ContactDirectory
	gateway     ports.SMSGateway
	composer    *MessageComposer
	sender      string
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewAlertDispatcher validates the sender identity up front and returns an
// error wrapping ErrGatewayConfiguration when it is absent or not dialable.
// Messages are sent from the normalized form of the sender.
// logger and m may be nil.
func NewAlertDispatcher(
	cfg DispatcherConfig,
	directory ports.ContactDirectory,
	gateway ports.SMSGateway,
	composer *MessageComposer,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*AlertDispatcher, error) {
	raw := strings.TrimSpace(cfg.SenderID)
	if raw == "" {
		return nil, fmt.Errorf("new alert dispatcher: %w: sender number is empty", ErrGatewayConfiguration)
	}
	sender, err := domain.NormalizePhoneNumber(raw)
	if err != nil || !strings.HasPrefix(raw, "+") {
		return nil, fmt.Errorf("new alert dispatcher: %w: sender number is not in +E.164 form", ErrGatewayConfiguration)
	}
	if gateway == nil {
		return nil, fmt.Errorf("new alert dispatcher: %w: gateway is nil", ErrGatewayConfiguration)
	}
	if directory == nil {
		return nil, errors.New("new alert dispatcher: contact directory is nil")
	}
	if composer == nil {
		return nil, errors.New("new alert dispatcher: message composer is nil")
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AlertDispatcher{
		directory:   directory,
		gateway:     gateway,
		composer:    composer,
		sender:      sender.String(),
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}, nil
}

// Dispatch resolves the user's contacts and sends the alert to each of them.
//
// A returned error means nothing was sent (ErrDirectoryUnavailable or a
// composition failure). Every other outcome, including "no contacts" and
// "every send failed", is reported through the DispatchResult.
//
// Sends are detached from ctx cancellation: once the fan-out starts each
// send runs to completion. Callers wanting a deadline must wrap the call.
func (d *AlertDispatcher) Dispatch(ctx context.Context, req domain.AlertRequest) (_ domain.DispatchResult, err error) {
	defer obs.Time(ctx, "dispatch.Dispatch")(&err)
	start := time.Now()

	contacts, err := d.directory.ResolveContacts(ctx, req.UserID)
	if err != nil {
		d.observe(domain.AlertStatusFailed, start)
		return domain.DispatchResult{}, fmt.Errorf("dispatch: resolve contacts: %w: %w", ErrDirectoryUnavailable, err)
	}

	if len(contacts) == 0 {
		d.logger.Info("no emergency contacts registered", zap.String("user_id", req.UserID))
		res := NoContactsResult()
		d.observe(domain.StatusOf(res), start)
		return res, nil
	}

	body, err := d.composer.Compose(req.Location)
	if err != nil {
		d.observe(domain.AlertStatusFailed, start)
		return domain.DispatchResult{}, fmt.Errorf("dispatch: %w", err)
	}

	sendCtx := context.WithoutCancel(ctx)

	// Each task owns exactly one slot, so no lock is needed.
	outcomes := make([]domain.DispatchOutcome, len(contacts))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, c := range contacts {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = d.sendOne(sendCtx, c, body)
			return nil
		})
	}
	_ = g.Wait()

	res := AggregateOutcomes(outcomes)
	sent, failed := res.Counts()
	d.logger.Info("sos dispatch complete",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("user_id", req.UserID),
		zap.Int("contacts", len(contacts)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)
	d.observe(domain.StatusOf(res), start)

	return res, nil
}

// sendOne never returns an error: every failure becomes a failed outcome.
func (d *AlertDispatcher) sendOne(ctx context.Context, c domain.Contact, body string) (out domain.DispatchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("gateway send panicked", zap.String("contact", c.Name), zap.Any("panic", r))
			out = failedOutcome(c, CodeSendFailed, gatewayErrorText(ports.GatewayErrUnknown))
		}
		d.countSend(out)
	}()

	to, err := domain.NormalizePhoneNumber(c.PhoneNumber)
	if err != nil {
		d.logger.Warn("skipping contact with invalid phone number",
			zap.String("contact", c.Name),
			zap.String("phone", domain.Redact(c.PhoneNumber)),
		)
		return failedOutcome(c, CodeInvalidNumber, "Invalid phone number format")
	}

	msgID, err := d.gateway.Send(ctx, ports.SMSMessage{To: to, From: d.sender, Body: body})
	if err != nil {
		code, text := classifySendError(err)
		d.logger.Warn("sms send failed",
			zap.String("contact", c.Name),
			zap.String("phone", domain.Redact(c.PhoneNumber)),
			zap.String("code", code),
			zap.String("error", domain.ScrubNumber(err.Error(), to)),
		)
		return failedOutcome(c, code, text)
	}

	return domain.DispatchOutcome{
		ContactName: c.Name,
		Success:     true,
		MessageID:   msgID,
	}
}

func failedOutcome(c domain.Contact, code, text string) domain.DispatchOutcome {
	return domain.DispatchOutcome{
		ContactName:  c.Name,
		ErrorCode:    code,
		ErrorMessage: text,
		PhoneNumber:  domain.Redact(c.PhoneNumber),
	}
}

// classifySendError maps a gateway failure to an outcome code and user-facing text.
// The vendor code is preferred when the gateway supplied one.
func classifySendError(err error) (code string, text string) {
	var ge *ports.GatewayError
	if !errors.As(err, &ge) {
		return CodeSendFailed, gatewayErrorText(ports.GatewayErrUnknown)
	}

	code = ge.Code
	if code == "" {
		code = "GATEWAY_" + strings.ToUpper(ge.Kind.String())
	}
	return code, gatewayErrorText(ge.Kind)
}

func gatewayErrorText(kind ports.GatewayErrorKind) string {
	switch kind {
	case ports.GatewayErrInvalidNumber:
		return "Invalid phone number"
	case ports.GatewayErrSenderNotAuthorized:
		return "Sender number is not authorized to send messages"
	case ports.GatewayErrRecipientBlocked:
		return "Recipient has blocked messages from this sender"
	case ports.GatewayErrRegionNotAuthorized:
		return "Messaging to this region is not enabled"
	case ports.GatewayErrUnauthorized:
		return "Messaging service rejected the account credentials"
	case ports.GatewayErrUnavailable:
		return "Messaging service is unavailable"
	default:
		return "Failed to send message"
	}
}

func (d *AlertDispatcher) observe(status domain.AlertStatus, start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.Dispatches.WithLabelValues(string(status)).Inc()
	d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
}

func (d *AlertDispatcher) countSend(o domain.DispatchOutcome) {
	if d.metrics == nil {
		return
	}
	if o.Success {
		d.metrics.Sends.WithLabelValues("success", "").Inc()
		return
	}
	d.metrics.Sends.WithLabelValues("failure", o.ErrorCode).Inc()
}

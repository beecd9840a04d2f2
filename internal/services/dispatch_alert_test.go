package services

import (
	"context"
	"errors"
	"fmt"
	"sos-alert-service/internal/adapters/directory"
	"sos-alert-service/internal/adapters/gateway"
	"sos-alert-service/internal/adapters/gateway/twiliotest"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/metrics"
	"sos-alert-service/internal/ports"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSender = "+15005550006"

func newTestComposer(t *testing.T) *MessageComposer {
	t.Helper()
	c, err := NewMessageComposer("SOS {{.MapLink}}", "https://www.google.com/maps?q=")
	require.NoError(t, err)
	return c
}

func newTestDispatcher(t *testing.T, dir ports.ContactDirectory, gw ports.SMSGateway) *AlertDispatcher {
	t.Helper()
	d, err := NewAlertDispatcher(DispatcherConfig{SenderID: testSender, Concurrency: 4}, dir, gw, newTestComposer(t), nil, nil)
	require.NoError(t, err)
	return d
}

var delhi = domain.Location{Lat: 28.6139, Lng: 77.209}

func TestDispatchSendsToEveryContact(t *testing.T) {
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{
		"user-1": {
			{Name: "Asha", PhoneNumber: "+91 98765 43210"},
			{Name: "Ravi", PhoneNumber: "919876543211"},
		},
	})
	gw := gateway.NewMockSMSGateway()
	d := newTestDispatcher(t, dir, gw)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	assert.True(t, res.OverallSuccess)
	assert.False(t, res.NoContacts)
	assert.Equal(t, SummaryAlertsSent, res.SummaryMessage)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "Asha", res.Outcomes[0].ContactName)
	assert.Equal(t, "Ravi", res.Outcomes[1].ContactName)
	for _, o := range res.Outcomes {
		assert.True(t, o.Success)
		assert.NotEmpty(t, o.MessageID)
		assert.Empty(t, o.PhoneNumber)
	}

	sent := gw.Sent()
	require.Len(t, sent, 2)
	for _, m := range sent {
		assert.Equal(t, testSender, m.From)
		assert.Equal(t, "SOS https://www.google.com/maps?q=28.6139,77.209", m.Body)
	}
}

func TestDispatchNoContactsSkipsGateway(t *testing.T) {
	dir := directory.NewMockContactDirectory(nil)
	gw := gateway.NewMockSMSGateway()
	d := newTestDispatcher(t, dir, gw)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, res.OverallSuccess)
	assert.True(t, res.NoContacts)
	assert.Equal(t, "No emergency contacts found", res.SummaryMessage)
	assert.Empty(t, res.Outcomes)
	assert.Empty(t, gw.Sent())
	assert.Equal(t, 1, dir.Calls())
}

func TestDispatchInvalidNumbersDoNotAbortBatch(t *testing.T) {
	contacts := []domain.Contact{
		{Name: "A", PhoneNumber: "+919876543210"},
		{Name: "B", PhoneNumber: "12-34"},
		{Name: "C", PhoneNumber: "(415) 555-0100"},
		{Name: "D", PhoneNumber: "not a number"},
		{Name: "E", PhoneNumber: "+44 20 7946 0958"},
	}
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": contacts})
	gw := gateway.NewMockSMSGateway()
	d := newTestDispatcher(t, dir, gw)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, res.Outcomes, len(contacts))
	assert.Len(t, gw.Sent(), 3)
	assert.True(t, res.OverallSuccess)

	invalid := 0
	for i, o := range res.Outcomes {
		assert.Equal(t, contacts[i].Name, o.ContactName)
		if !o.Success {
			invalid++
			assert.Equal(t, CodeInvalidNumber, o.ErrorCode)
			shown := strings.TrimSuffix(o.PhoneNumber, "****")
			assert.LessOrEqual(t, len([]rune(shown)), 6)
			assert.True(t, strings.HasPrefix(contacts[i].PhoneNumber, shown))
		}
	}
	assert.Equal(t, 2, invalid)
}

func TestDispatchGatewayFailureIsIsolated(t *testing.T) {
	contacts := make([]domain.Contact, 6)
	for i := range contacts {
		contacts[i] = domain.Contact{Name: fmt.Sprintf("c%d", i), PhoneNumber: fmt.Sprintf("+9198765432%02d", i)}
	}
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": contacts})
	gw := gateway.NewMockSMSGateway()
	gw.FailFor("+919876543203", &ports.GatewayError{
		Kind:    ports.GatewayErrRecipientBlocked,
		Code:    "21610",
		Message: "Attempt to send to unsubscribed recipient",
	})
	d := newTestDispatcher(t, dir, gw)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	assert.True(t, res.OverallSuccess)
	require.Len(t, res.Outcomes, 6)
	for i, o := range res.Outcomes {
		if i == 3 {
			assert.False(t, o.Success)
			assert.Equal(t, "21610", o.ErrorCode)
			assert.Equal(t, "Recipient has blocked messages from this sender", o.ErrorMessage)
			assert.Equal(t, "+91987****", o.PhoneNumber)
			continue
		}
		assert.True(t, o.Success, "outcome %d", i)
		assert.NotEmpty(t, o.MessageID)
	}
	assert.Len(t, gw.Sent(), 6)
}

func TestDispatchAllFailuresReportFirstError(t *testing.T) {
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "abc"},
		{Name: "B", PhoneNumber: "+919876543210"},
	}})
	gw := gateway.NewMockSMSGateway()
	gw.FailFor("+919876543210", errors.New("socket closed"))
	d := newTestDispatcher(t, dir, gw)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, res.OverallSuccess)
	assert.False(t, res.NoContacts)
	assert.Equal(t, "Invalid phone number format", res.SummaryMessage)
	assert.Equal(t, CodeSendFailed, res.Outcomes[1].ErrorCode)
}

func TestDispatchDirectoryUnavailable(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	dir := directory.NewMockContactDirectory(nil)
	dir.FailWith(boom)
	gw := gateway.NewMockSMSGateway()
	d := newTestDispatcher(t, dir, gw)

	_, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, gw.Sent())
}

type panickyGateway struct{}

func (p *panickyGateway) Send(ctx context.Context, msg ports.SMSMessage) (string, error) {
	if msg.To == "+919876543210" {
		panic("vendor sdk bug")
	}
	return "SM1", nil
}

func TestDispatchRecoversFromGatewayPanic(t *testing.T) {
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "+919876543210"},
		{Name: "B", PhoneNumber: "+919876543211"},
	}})
	d := newTestDispatcher(t, dir, &panickyGateway{})

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)
	assert.False(t, res.Outcomes[0].Success)
	assert.Equal(t, CodeSendFailed, res.Outcomes[0].ErrorCode)
	assert.True(t, res.Outcomes[1].Success)
}

func TestDispatchSendsSurviveCallerCancellation(t *testing.T) {
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "+919876543210"},
	}})
	gw := &ctxCheckingGateway{}
	d := newTestDispatcher(t, dir, gw)

	ctx, cancel := context.WithCancel(context.Background())
	gw.onSend = cancel

	res, err := d.Dispatch(ctx, domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, res.OverallSuccess)
	assert.NoError(t, gw.sawErr)
}

type ctxCheckingGateway struct {
	onSend func()
	sawErr error
}

func (g *ctxCheckingGateway) Send(ctx context.Context, msg ports.SMSMessage) (string, error) {
	g.onSend()
	g.sawErr = ctx.Err()
	return "SM1", nil
}

func TestDispatchRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "+919876543210"},
		{Name: "B", PhoneNumber: "bad"},
	}})
	d, err := NewAlertDispatcher(DispatcherConfig{SenderID: testSender}, dir, gateway.NewMockSMSGateway(), newTestComposer(t), nil, m)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sends.WithLabelValues("success", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sends.WithLabelValues("failure", CodeInvalidNumber)))
}

func TestNewAlertDispatcherRequiresSender(t *testing.T) {
	dir := directory.NewMockContactDirectory(nil)
	gw := gateway.NewMockSMSGateway()
	composer := newTestComposer(t)

	for _, sender := range []string{"", "   ", "15005550006", "+1500"} {
		_, err := NewAlertDispatcher(DispatcherConfig{SenderID: sender}, dir, gw, composer, nil, nil)
		assert.ErrorIs(t, err, ErrGatewayConfiguration, "sender %q", sender)
	}

	_, err := NewAlertDispatcher(DispatcherConfig{SenderID: testSender}, dir, nil, composer, nil, nil)
	assert.ErrorIs(t, err, ErrGatewayConfiguration)
}

func TestDispatchNeverLogsFullRecipientNumber(t *testing.T) {
	ts := twiliotest.NewServer()
	defer ts.Close()
	ts.Fail("+919876543210", twiliotest.Failure{
		Status:  400,
		Code:    21211,
		Message: "The 'To' number +919876543210 is not a valid phone number.",
	})

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	defer zap.ReplaceGlobals(logger)()

	gw, err := gateway.NewTwilioGateway("AC123", "secret", ts.URL)
	require.NoError(t, err)

	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "+91 98765 43210"},
	}})
	d, err := NewAlertDispatcher(DispatcherConfig{SenderID: testSender}, dir, gw, newTestComposer(t), logger, nil)
	require.NoError(t, err)

	res, err := d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "21211", res.Outcomes[0].ErrorCode)

	require.NotZero(t, logs.Len())
	for _, e := range logs.All() {
		assert.NotContains(t, e.Message, "9876543210")
		for k, v := range e.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), "9876543210", "log %q field %q", e.Message, k)
		}
	}
	assert.Equal(t, 1, logs.FilterMessage("sms send failed").Len())
}

func TestDispatchSendsFromNormalizedSender(t *testing.T) {
	dir := directory.NewMockContactDirectory(map[string][]domain.Contact{"user-1": {
		{Name: "A", PhoneNumber: "+919876543210"},
	}})
	gw := gateway.NewMockSMSGateway()
	d, err := NewAlertDispatcher(DispatcherConfig{SenderID: " +1 415-555-0100 "}, dir, gw, newTestComposer(t), nil, nil)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), domain.AlertRequest{Location: delhi, UserID: "user-1"})
	require.NoError(t, err)

	sent := gw.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+14155550100", sent[0].From)
}

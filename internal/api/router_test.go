package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sos-alert-service/internal/adapters/directory"
	"sos-alert-service/internal/adapters/gateway"
	"sos-alert-service/internal/api/dto"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/metrics"
	"sos-alert-service/internal/ports"
	"sos-alert-service/internal/services"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHistory struct {
	mu   sync.Mutex
	logs []domain.AlertLog
}

func (m *memoryHistory) RecordAlert(ctx context.Context, l domain.AlertLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func (m *memoryHistory) ListAlerts(ctx context.Context, userID string, limit int) ([]domain.AlertLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AlertLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].UserID == userID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

type fixture struct {
	handler http.Handler
	dir     *directory.MockContactDirectory
	gw      *gateway.MockSMSGateway
	history *memoryHistory
}

func newFixture(t *testing.T, contacts map[string][]domain.Contact) *fixture {
	t.Helper()

	f := &fixture{
		dir:     directory.NewMockContactDirectory(contacts),
		gw:      gateway.NewMockSMSGateway(),
		history: &memoryHistory{},
	}

	composer, err := services.NewMessageComposer("SOS {{.MapLink}}", "https://www.google.com/maps?q=")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	dispatcher, err := services.NewAlertDispatcher(
		services.DispatcherConfig{SenderID: "+15005550006", Concurrency: 2},
		f.dir, f.gw, composer, nil, metrics.New(reg),
	)
	require.NoError(t, err)

	f.handler = NewRouter(Deps{Dispatcher: dispatcher, History: f.history, Gatherer: reg})
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSend(t *testing.T, rec *httptest.ResponseRecorder) dto.SendAlertResponse {
	t.Helper()
	var res dto.SendAlertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

const validBody = `{"location":{"lat":28.6139,"lng":77.209},"userId":"user-1"}`

func TestPreflightIsAnsweredEmpty(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/sos/send", "/send-sos-sms", "/anything"} {
		rec := f.do(http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "authorization")
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "content-type")
	}
	assert.Equal(t, 0, f.dir.Calls())
}

func TestSendAlert(t *testing.T) {
	f := newFixture(t, map[string][]domain.Contact{"user-1": {
		{Name: "Asha", PhoneNumber: "+919876543210"},
		{Name: "Ravi", PhoneNumber: "+919876543211"},
	}})

	for _, path := range []string{"/sos/send", "/send-sos-sms"} {
		rec := f.do(http.MethodPost, path, validBody)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

		res := decodeSend(t, rec)
		assert.True(t, res.Success)
		assert.Equal(t, "alerts sent", res.Message)
		assert.Empty(t, res.DetailedMessage)
		require.Len(t, res.Results, 2)
		assert.Equal(t, "Asha", res.Results[0].Contact)
		assert.NotEmpty(t, res.Results[0].SID)
	}

	for _, m := range f.gw.Sent() {
		assert.Contains(t, m.Body, "28.6139,77.209")
	}

	logs, _ := f.history.ListAlerts(context.Background(), "user-1", 10)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AlertStatusSent, logs[0].Status)
	assert.Equal(t, 2, logs[0].SentCount)
}

func TestSendAlertPartialFailureRedactsNumber(t *testing.T) {
	f := newFixture(t, map[string][]domain.Contact{"user-1": {
		{Name: "Asha", PhoneNumber: "+919876543210"},
		{Name: "Old", PhoneNumber: "+919876543299"},
	}})
	f.gw.FailFor("+919876543299", &ports.GatewayError{Kind: ports.GatewayErrInvalidNumber, Code: "21211"})

	rec := f.do(http.MethodPost, "/sos/send", validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeSend(t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "1 of 2 alerts sent", res.DetailedMessage)
	assert.Equal(t, "21211", res.Results[1].Code)
	assert.Equal(t, "+91987****", res.Results[1].PhoneNumber)
	assert.NotContains(t, rec.Body.String(), "919876543299")
}

func TestSendAlertAllFailedIsStillOK(t *testing.T) {
	f := newFixture(t, map[string][]domain.Contact{"user-1": {{Name: "Bad", PhoneNumber: "123"}}})

	rec := f.do(http.MethodPost, "/sos/send", validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeSend(t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid phone number format", res.Message)
	assert.Empty(t, f.gw.Sent())

	logs, _ := f.history.ListAlerts(context.Background(), "user-1", 10)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AlertStatusFailed, logs[0].Status)
}

func TestSendAlertNoContacts(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/sos/send", validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeSend(t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "No emergency contacts found", res.Message)
	assert.Empty(t, res.Results)
	assert.Empty(t, f.gw.Sent())
}

func TestSendAlertRejectsBadRequests(t *testing.T) {
	f := newFixture(t, map[string][]domain.Contact{"user-1": {{Name: "A", PhoneNumber: "+919876543210"}}})

	bodies := []string{
		``,
		`not json`,
		`{"location":{"lat":1,"lng":2}}`,
		`{"userId":"user-1"}`,
		`{"location":{"lat":"1","lng":2},"userId":"user-1"}`,
		`{"location":{"lng":2},"userId":"user-1"}`,
		`{"location":{"lat":1,"lng":2},"userId":"user-1"} {}`,
	}
	for _, b := range bodies {
		rec := f.do(http.MethodPost, "/sos/send", b)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", b)
	}

	assert.Equal(t, 0, f.dir.Calls())
	assert.Empty(t, f.gw.Sent())
	logs, _ := f.history.ListAlerts(context.Background(), "user-1", 10)
	assert.Empty(t, logs)
}

func TestSendAlertDirectoryUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.dir.FailWith(errors.New("connection refused"))

	rec := f.do(http.MethodPost, "/sos/send", validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch emergency contacts")
	assert.Empty(t, f.gw.Sent())
}

func TestListHistory(t *testing.T) {
	f := newFixture(t, map[string][]domain.Contact{"user-1": {{Name: "A", PhoneNumber: "+919876543210"}}})
	f.do(http.MethodPost, "/sos/send", validBody)
	f.do(http.MethodPost, "/sos/send", validBody)

	rec := f.do(http.MethodGet, "/sos/history?userId=user-1&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListAlertsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "user-1", res.Alerts[0].UserID)
	assert.Equal(t, "sent", res.Alerts[0].Status)
	assert.Equal(t, 28.6139, res.Alerts[0].Location.Lat)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sos/history", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sos/history?userId=u&limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sos/history?userId=u&limit=201", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.do(http.MethodPost, "/sos/send", validBody)
	rec = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sos_dispatch_total{status="no_contacts"} 1`)
}

func TestWrongMethodIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(http.MethodGet, "/sos/send", "").Code)
}

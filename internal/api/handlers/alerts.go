package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sos-alert-service/internal/api/dto"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
	"sos-alert-service/internal/ports"
	"sos-alert-service/internal/services"
	"time"

	"go.uber.org/zap"
)

// Dispatcher is the part of services.AlertDispatcher the HTTP layer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.AlertRequest) (domain.DispatchResult, error)
}

// AlertHandler triggers an SOS dispatch and records it in the alert history.
type AlertHandler struct {
	Dispatcher Dispatcher
	// Optional; nil disables history recording.
	History ports.AlertRecorder
	Logger  *zap.Logger
	// Clock for history timestamps; time.Now when nil.
	Now func() time.Time
	// Upper bound on the history write; defaultHistoryTimeout when zero.
	HistoryTimeout time.Duration
}

const defaultHistoryTimeout = 5 * time.Second

// Send answers 200 for every handled dispatch, including "no contacts" and
// "every send failed". Only request and directory faults are non-2xx.
func (h *AlertHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body dto.SendAlertRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := dec.Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	payload := services.AlertPayload{UserID: body.UserID}
	if body.Location != nil {
		payload.Location = &services.LocationPayload{Lat: body.Location.Lat, Lng: body.Location.Lng}
	}

	req, err := services.ValidateAlertRequest(payload)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.logger().Error("sos dispatch failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		if errors.Is(err, services.ErrDirectoryUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "Failed to fetch emergency contacts")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	// Alerts are already out: a client disconnect must not drop the history
	// entry, and a slow sink must not hold back the response.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.historyTimeout())
	services.RecordAlert(recordCtx, h.History, h.logger(), services.NewAlertLog(req, res, h.now()))
	cancel()

	writeJSON(w, r, http.StatusOK, toSendAlertResponse(res))
}

func toSendAlertResponse(res domain.DispatchResult) dto.SendAlertResponse {
	out := dto.SendAlertResponse{
		Success: res.OverallSuccess,
		Results: make([]dto.AlertResultResponse, 0, len(res.Outcomes)),
		Message: res.SummaryMessage,
	}
	for _, o := range res.Outcomes {
		out.Results = append(out.Results, dto.AlertResultResponse{
			Success:     o.Success,
			Contact:     o.ContactName,
			SID:         o.MessageID,
			Error:       o.ErrorMessage,
			Code:        o.ErrorCode,
			PhoneNumber: o.PhoneNumber,
		})
	}

	if sent, failed := res.Counts(); failed > 0 {
		out.DetailedMessage = fmt.Sprintf("%d of %d alerts sent", sent, sent+failed)
	}
	return out
}

func (h *AlertHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *AlertHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *AlertHandler) historyTimeout() time.Duration {
	if h.HistoryTimeout <= 0 {
		return defaultHistoryTimeout
	}
	return h.HistoryTimeout
}

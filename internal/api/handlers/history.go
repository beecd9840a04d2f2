package handlers

import (
	"net/http"
	"sos-alert-service/internal/api/dto"
	"sos-alert-service/internal/platform/obs"
	"sos-alert-service/internal/ports"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryHandler exposes a user's past SOS alerts, newest first.
type HistoryHandler struct {
	History ports.AlertHistory
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "userId is required")
		return
	}

	limit := defaultHistoryLimit
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	logs, err := h.History.ListAlerts(r.Context(), userID, limit)
	if err != nil {
		zap.L().Error("list alerts failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListAlertsResponse{Alerts: make([]dto.AlertLogResponse, 0, len(logs))}
	for _, l := range logs {
		res.Alerts = append(res.Alerts, dto.AlertLogResponse{
			ID:          l.ID,
			UserID:      l.UserID,
			Location:    dto.LocationResponse{Lat: l.Location.Lat, Lng: l.Location.Lng},
			Status:      string(l.Status),
			SentCount:   l.SentCount,
			FailedCount: l.FailedCount,
			CreatedAt:   l.CreatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

package services

import (
	"context"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/platform/obs"
	"sos-alert-service/internal/ports"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewAlertLog builds the history entry for a handled dispatch.
func NewAlertLog(req domain.AlertRequest, res domain.DispatchResult, at time.Time) domain.AlertLog {
	sent, failed := res.Counts()
	return domain.AlertLog{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Location:    req.Location,
		Status:      domain.StatusOf(res),
		SentCount:   sent,
		FailedCount: failed,
		CreatedAt:   at.UTC(),
	}
}

// RecordAlert writes the entry to the history sink. A failure is logged and
// swallowed: alerts already went out and the caller's response must not change.
func RecordAlert(ctx context.Context, recorder ports.AlertRecorder, logger *zap.Logger, entry domain.AlertLog) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordAlert(ctx, entry); err != nil {
		logger.Error("record alert history failed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("alert_id", entry.ID),
			zap.String("user_id", entry.UserID),
			zap.Error(err),
		)
	}
}

package ports

import (
	"context"
	"sos-alert-service/internal/domain"
)

// Sink for alert history entries.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, log domain.AlertLog) error
}

// Optional extension of AlertRecorder that can read history back.
type AlertHistory interface {
	AlertRecorder
	// Return a user's alert logs, newest first, at most limit entries.
	ListAlerts(ctx context.Context, userID string, limit int) ([]domain.AlertLog, error)
}

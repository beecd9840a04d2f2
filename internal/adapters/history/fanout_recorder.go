package history

import (
	"context"
	"errors"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/ports"
)

// FanoutRecorder writes every entry to the primary history and to each extra sink.
// Reads go to the primary only.
type FanoutRecorder struct {
	Primary ports.AlertHistory
	Extra   []ports.AlertRecorder
}

// A failing sink does not stop the others; all errors are returned joined.
func (f *FanoutRecorder) RecordAlert(ctx context.Context, l domain.AlertLog) error {
	errs := []error{f.Primary.RecordAlert(ctx, l)}
	for _, r := range f.Extra {
		errs = append(errs, r.RecordAlert(ctx, l))
	}
	return errors.Join(errs...)
}

func (f *FanoutRecorder) ListAlerts(ctx context.Context, userID string, limit int) ([]domain.AlertLog, error) {
	return f.Primary.ListAlerts(ctx, userID, limit)
}

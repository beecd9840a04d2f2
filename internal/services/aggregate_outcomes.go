package services

import "sos-alert-service/internal/domain"

const (
	SummaryAlertsSent = "alerts sent"
	SummaryNoContacts = "No emergency contacts found"
	SummaryAllFailed  = "failed to send alerts"
)

// AggregateOutcomes folds per-recipient outcomes into one result. It never fails:
// the result is successful when at least one recipient was reached.
func AggregateOutcomes(outcomes []domain.DispatchOutcome) domain.DispatchResult {
	res := domain.DispatchResult{
		Outcomes:       outcomes,
		SummaryMessage: SummaryAllFailed,
	}

	firstFailure := ""
	for _, o := range outcomes {
		if o.Success {
			res.OverallSuccess = true
		} else if firstFailure == "" && o.ErrorMessage != "" {
			firstFailure = o.ErrorMessage
		}
	}

	switch {
	case res.OverallSuccess:
		res.SummaryMessage = SummaryAlertsSent
	case firstFailure != "":
		res.SummaryMessage = firstFailure
	}

	return res
}

// Result for a user with no registered contacts. The gateway is never called.
func NoContactsResult() domain.DispatchResult {
	return domain.DispatchResult{
		NoContacts:     true,
		Outcomes:       []domain.DispatchOutcome{},
		SummaryMessage: SummaryNoContacts,
	}
}

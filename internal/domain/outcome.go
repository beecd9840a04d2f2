package domain

// Result of one send attempt to one contact. Immutable once built.
// MessageID is set on success; ErrorCode and ErrorMessage on failure.
// PhoneNumber holds the redacted stored number for failed attempts only.
type DispatchOutcome struct {
	ContactName  string
	Success      bool
	MessageID    string
	ErrorCode    string
	ErrorMessage string
	PhoneNumber  string
}

// Combined result of one dispatch.
// OverallSuccess is true when at least one outcome succeeded.
// NoContacts distinguishes "nothing to send to" from "every send failed".
type DispatchResult struct {
	OverallSuccess bool
	NoContacts     bool
	Outcomes       []DispatchOutcome
	SummaryMessage string
}

// Count successful and failed outcomes.
func (r DispatchResult) Counts() (sent int, failed int) {
	for _, o := range r.Outcomes {
		if o.Success {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

package cleaning

// Reasons reported when a cleaning step leaves no rows
const (
	ReasonNoPrisonSentences  = "No Prison sentences found"
	ReasonNoValidRace        = "No valid race values found"
	ReasonNoValidGender      = "No valid gender values found"
	ReasonNoValidTermUnits   = "No valid commitment term units found"
	ReasonNoNullFreeExamples = "No null-free examples found"
)

// RejectionError is returned when no valid record survives a cleaning step
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "INVALID: " + e.Reason
}

func reject(reason string) *RejectionError {
	return &RejectionError{Reason: reason}
}

// Package extraction turns free-form German call transcripts into structured
// intake fields. Three strategies run behind one orchestrator: weighted
// multi-pattern extraction, a looser natural-language fallback, and a parser
// for the explicit DATENERFASSUNG tag the voice agent can emit verbatim.
package extraction

// CallType classifies the inferred purpose of a call.
type CallType string

const (
	CallTypeAppointment CallType = "APPOINTMENT"
	CallTypeCallback    CallType = "CALLBACK"
	CallTypeQuote       CallType = "QUOTE"
)

// DefaultCallType is used whenever intent scoring is inconclusive.
const DefaultCallType = CallTypeCallback

// PlaceholderNotCaptured is the literal the voice agent writes into fields it
// could not fill. The merge pass treats it the same as an empty field.
const PlaceholderNotCaptured = "nicht erfasst"

// Result is the sole output shape of the pipeline. Field pointers are nil
// when extraction did not produce a validated value; Type and Confidence are
// always set. Details carries per-field method names and confidences for
// observability, plus an error marker on total failure.
type Result struct {
	Name        *string                `json:"name"`
	Phone       *string                `json:"phone"`
	Address     *string                `json:"address"`
	Appointment *string                `json:"appointment"`
	Type        CallType               `json:"type"`
	Confidence  float64                `json:"confidence_score"`
	Details     map[string]interface{} `json:"extraction_details"`
}

// Failed reports whether the pipeline produced nothing usable. Callers are
// expected to check the core fields rather than look for an error.
func (r *Result) Failed() bool {
	return r.Name == nil && r.Phone == nil
}

func strptr(s string) *string { return &s }

// blank reports whether a field is unset for merge purposes: nil, empty, or
// the agent's not-captured placeholder.
func blank(p *string) bool {
	return p == nil || *p == "" || *p == PlaceholderNotCaptured
}

func newDegenerateResult(details map[string]interface{}) *Result {
	return &Result{
		Type:       DefaultCallType,
		Confidence: 0,
		Details:    details,
	}
}

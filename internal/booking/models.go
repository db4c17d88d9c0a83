// Package booking is the record-creation collaborator fed by the extraction
// core: customer/intake persistence, transcript archival, duplicate-call
// guarding, and notification dispatch.
package booking

import (
	"time"

	"github.com/Dali1789/KFZ-API-Service/internal/extraction"
)

// Project is the tenant context every intake is filed under. It is resolved
// once at startup (lookup-or-create by number) and injected into the
// service.
type Project struct {
	ID     string
	Number string
	Name   string
}

// Customer is a caller identified by normalized phone number.
type Customer struct {
	ID      string
	Name    string
	Phone   string
	Address string
}

// Intake is one processed call: the envelope, the extraction outcome, and
// the linkage to customer and project.
type Intake struct {
	ID          string
	CallID      string
	ProjectID   string
	CustomerID  string // empty when extraction found no usable customer
	CallType    extraction.CallType
	Appointment string
	Confidence  float64
	Transcript  string
	DurationSec int
	Details     map[string]interface{}
	CreatedAt   time.Time
}

// CallEnvelope is the upstream webhook payload handed to the service. The
// service does not validate it; the intake layer does.
type CallEnvelope struct {
	CallID      string
	Transcript  string
	DurationSec int
}

// Package intake is the HTTP surface: it authenticates and validates
// call-completed webhooks and hands the envelope to the booking service.
package intake

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Dali1789/KFZ-API-Service/internal/booking"
)

// Envelope is the wire form of a finished call delivered by the telephony
// platform.
type Envelope struct {
	CallID      string `json:"call_id"`
	Transcript  string `json:"transcript"`
	DurationSec int    `json:"duration_seconds"`
}

const envelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"call_id": {
			"type": "string",
			"minLength": 1,
			"maxLength": 128
		},
		"transcript": {
			"type": "string"
		},
		"duration_seconds": {
			"type": "integer",
			"minimum": 0
		}
	},
	"required": ["call_id", "transcript"],
	"additionalProperties": true
}`

var envelopeSchemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

// ValidatePayload checks the raw body against the envelope schema and returns
// a readable list of violations.
func ValidatePayload(body []byte) error {
	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(violations, "; "))
}

func (e Envelope) toCallEnvelope() booking.CallEnvelope {
	return booking.CallEnvelope{
		CallID:      e.CallID,
		Transcript:  e.Transcript,
		DurationSec: e.DurationSec,
	}
}

// internal/extraction/engine_test.go
package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
)

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(logger.NewTestLogger(t))
}

func TestEngine_Extract_AdvancedWins(t *testing.T) {
	e := newTestEngine(t)

	transcript := "Guten Tag, mein Name ist Anna Schmidt. Ich hätte gerne einen Termin für eine Besichtigung. " +
		"Meine Telefonnummer ist 0171 2345678. Ich wohne in der Hauptstraße 12 in Berlin."

	result := e.Extract(transcript)
	require.NotNil(t, result)

	assert.Equal(t, "advanced_pattern", result.Details["method"])
	require.NotNil(t, result.Name)
	assert.Equal(t, "Anna Schmidt", *result.Name)
	require.NotNil(t, result.Phone)
	assert.Equal(t, "01712345678", *result.Phone)
	require.NotNil(t, result.Address)
	assert.Equal(t, "Hauptstraße 12", *result.Address)
	assert.Equal(t, CallTypeAppointment, result.Type)
	assert.InDelta(t, 0.9333, result.Confidence, 0.001)
	assert.False(t, result.Failed())
}

func TestEngine_Extract_WeakAdvancedReplacedByNatural(t *testing.T) {
	e := newTestEngine(t)

	// The advanced pass finds name and phone through weaker patterns and
	// stays under the replacement threshold, so the natural result takes
	// over wholesale at its fixed confidence.
	result := e.Extract("Hallo, ich bin Herr Klein, bitte rufen Sie mich zurück unter 030 12345678.")
	require.NotNil(t, result)

	assert.Equal(t, "standard_natural", result.Details["method"])
	assert.Equal(t, naturalConfidence, result.Confidence)
	require.NotNil(t, result.Name)
	assert.Equal(t, "Klein", *result.Name)
	require.NotNil(t, result.Phone)
	assert.Equal(t, "03012345678", *result.Phone)
	assert.Equal(t, CallTypeCallback, result.Type)
}

func TestEngine_Extract_StructuredFallback(t *testing.T) {
	e := newTestEngine(t)

	// No introduction phrasing, so advanced stays under its floor and the
	// natural pass misses too; only the explicit tag remains.
	result := e.Extract("DATENERFASSUNG Name=[Max Mustermann] Telefon=[0171 9876543] Typ=APPOINTMENT")
	require.NotNil(t, result)

	assert.Equal(t, "structured_format", result.Details["method"])
	assert.Equal(t, structuredConfidence, result.Confidence)
	require.NotNil(t, result.Name)
	assert.Equal(t, "Max Mustermann", *result.Name)
	require.NotNil(t, result.Phone)
	assert.Equal(t, "0171 9876543", *result.Phone)
	assert.Equal(t, CallTypeAppointment, result.Type)
}

func TestEngine_Extract_StructuredBackfillsWinner(t *testing.T) {
	e := newTestEngine(t)

	transcript := "Guten Tag, mein Name ist Anna Schmidt. Ich hätte gerne einen Termin für eine Besichtigung. " +
		"Meine Telefonnummer ist 0171 2345678. Ich wohne in der Hauptstraße 12.\n" +
		"DATENERFASSUNG Termin=[Dienstag 10 Uhr] Typ=[QUOTE]"

	result := e.Extract(transcript)
	require.NotNil(t, result)

	assert.Equal(t, "advanced_pattern", result.Details["method"])
	// The tag fills the gap the winning strategy left.
	require.NotNil(t, result.Appointment)
	assert.Equal(t, "Dienstag 10 Uhr", *result.Appointment)
	assert.Equal(t, "structured_tag", result.Details["appointment_method"])
	// The scored intent is not displaced by the tag's type.
	assert.Equal(t, CallTypeAppointment, result.Type)
}

func TestEngine_Extract_EmptyInput(t *testing.T) {
	e := newTestEngine(t)

	for _, transcript := range []string{"", "   ", "\n\t"} {
		result := e.Extract(transcript)
		require.NotNil(t, result)
		assert.True(t, result.Failed())
		assert.Equal(t, DefaultCallType, result.Type)
		assert.Zero(t, result.Confidence)
		assert.Contains(t, result.Details, "error")
	}
}

func TestEngine_Extract_NoStrategySucceeds(t *testing.T) {
	e := newTestEngine(t)

	result := e.Extract("Äh, ja, also, wegen der Sache von neulich.")
	require.NotNil(t, result)

	assert.True(t, result.Failed())
	assert.Equal(t, DefaultCallType, result.Type)
	assert.Zero(t, result.Confidence)
	assert.Contains(t, result.Details, "attempted_methods")
}

func TestEngine_Extract_NeverPanicsAndAlwaysBounded(t *testing.T) {
	e := newTestEngine(t)

	inputs := []string{
		"Mein Name ist " + strings.Repeat("A", 500),
		strings.Repeat("0171 2345678 ", 50),
		"Name=[ Typ=[ DATENERFASSUNG =][",
		"\x00\x01\x02",
	}

	for _, in := range inputs {
		result := e.Extract(in)
		require.NotNil(t, result)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
		switch result.Type {
		case CallTypeAppointment, CallTypeCallback, CallTypeQuote:
		default:
			t.Fatalf("unexpected call type %q", result.Type)
		}
	}
}

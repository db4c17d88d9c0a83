// internal/extraction/advanced_test.go
package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
)

func TestAdvancedStrategy_Extract_FullTranscript(t *testing.T) {
	s := newAdvancedStrategy(logger.NewTestLogger(t))

	transcript := "Guten Tag, mein Name ist Anna Schmidt. Ich hätte gerne einen Termin für eine Besichtigung. " +
		"Meine Telefonnummer ist 0171 2345678. Ich wohne in der Hauptstraße 12 in Berlin."

	result := s.Extract(transcript)
	require.NotNil(t, result)

	require.NotNil(t, result.Name)
	assert.Equal(t, "Anna Schmidt", *result.Name)
	assert.Equal(t, "name_introduction", result.Details["name_method"])

	require.NotNil(t, result.Phone)
	assert.Equal(t, "01712345678", *result.Phone)
	assert.Equal(t, "phone_context", result.Details["phone_method"])

	require.NotNil(t, result.Address)
	assert.Equal(t, "Hauptstraße 12", *result.Address)
	assert.Equal(t, "address_context", result.Details["address_method"])

	assert.Equal(t, CallTypeAppointment, result.Type)
	// (0.95 + 0.95 + 0.9) / 3 scaled by 3/3 populated fields.
	assert.InDelta(t, 0.9333, result.Confidence, 0.001)
}

func TestAdvancedStrategy_Extract_BelowFloorReturnsNil(t *testing.T) {
	s := newAdvancedStrategy(logger.NewTestLogger(t))

	// Only generic shapes match here; two weak fields do not clear the floor.
	transcript := "DATENERFASSUNG Name=[Max Mustermann] Telefon=[0171 9876543] Typ=APPOINTMENT"

	assert.Nil(t, s.Extract(transcript))
}

func TestAdvancedStrategy_Extract_EmptyFields(t *testing.T) {
	s := newAdvancedStrategy(logger.NewTestLogger(t))

	assert.Nil(t, s.Extract("Die Scheibe ist kaputt."))
}

func TestMatchField_ValidationFallthrough(t *testing.T) {
	// The introduction pattern captures a stoplisted noun; no later pattern
	// yields a valid candidate either.
	m := matchField("Ich heiße Fahrzeug", namePatterns, isValidName)
	assert.Nil(t, m)
}

func TestMatchField_PatternOrder(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		patterns   []fieldPattern
		validate   func(string) bool
		wantMethod string
		wantWeight float64
	}{
		{
			name:       "callback phrasing hits the dedicated pattern",
			transcript: "Bitte rufen Sie mich unter 0171 2345678 zurück.",
			patterns:   phonePatterns,
			validate:   isValidGermanPhone,
			wantMethod: "phone_callback",
			wantWeight: 0.9,
		},
		{
			name:       "bare number falls to the generic shape",
			transcript: "Sie erreichen mich: 0171 2345678.",
			patterns:   phonePatterns,
			validate:   isValidGermanPhone,
			wantMethod: "phone_generic",
			wantWeight: 0.75,
		},
		{
			name:       "street shape without residence phrasing",
			transcript: "Das Auto steht Hauptstraße 12.",
			patterns:   addressPatterns,
			validate:   isValidAddress,
			wantMethod: "address_street",
			wantWeight: 0.85,
		},
		{
			name:       "day reference with time wins the composite pattern",
			transcript: "Ich würde morgen um 14 Uhr vorbeikommen.",
			patterns:   appointmentPatterns,
			validate:   nil,
			wantMethod: "appointment_timeref",
			wantWeight: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := matchField(tt.transcript, tt.patterns, tt.validate)
			require.NotNil(t, m)
			assert.Equal(t, tt.wantMethod, m.method)
			assert.Equal(t, tt.wantWeight, m.weight)
		})
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name           string
		transcript     string
		hasAddress     bool
		hasAppointment bool
		want           CallType
	}{
		{
			name:       "appointment keywords",
			transcript: "ich möchte einen termin zur besichtigung vereinbaren",
			want:       CallTypeAppointment,
		},
		{
			name:       "callback keywords",
			transcript: "bitte rufen sie mich zurück",
			want:       CallTypeCallback,
		},
		{
			name:       "quote keywords",
			transcript: "was kostet das, ich brauche ein angebot",
			want:       CallTypeQuote,
		},
		{
			name:       "no keywords falls back to default",
			transcript: "die scheibe ist kaputt",
			want:       CallTypeCallback,
		},
		{
			name:       "address bonus tips the scale",
			transcript: "ich brauche ein angebot",
			hasAddress: true,
			want:       CallTypeAppointment,
		},
		{
			name:       "tie resolves to appointment first",
			transcript: "termin oder angebot",
			want:       CallTypeAppointment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyIntent(tt.transcript, tt.hasAddress, tt.hasAppointment)
			assert.Equal(t, tt.want, got)
		})
	}
}

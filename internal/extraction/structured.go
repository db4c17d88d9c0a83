package extraction

import (
	"regexp"
	"strings"
)

// structuredMarker is the keyword the upstream voice agent emits verbatim on
// a single line when it was able to capture data itself, followed by
// Key=[value] pairs.
const structuredMarker = "DATENERFASSUNG"

var structuredKeyRes = map[string]*regexp.Regexp{
	"name":        regexp.MustCompile(`Name=\[([^\]]+)\]`),
	"phone":       regexp.MustCompile(`Telefon=\[([^\]]+)\]`),
	"address":     regexp.MustCompile(`Adresse=\[([^\]]+)\]`),
	"appointment": regexp.MustCompile(`Termin=\[([^\]]+)\]`),
}

// The agent writes the type with or without brackets; accept both.
var structuredTypeRe = regexp.MustCompile(`Typ=\[?([A-Z]+)\]?`)

type structuredStrategy struct{}

func newStructuredStrategy() *structuredStrategy { return &structuredStrategy{} }

func (s *structuredStrategy) Name() string { return "structured_tag" }

// Fields extracts the Key=[value] pairs from the marker line. Pure key
// extraction, no validation beyond presence. Returns nil when the marker is
// absent or yields no keys.
func (s *structuredStrategy) Fields(transcript string) map[string]string {
	line := markerLine(transcript)
	if line == "" {
		return nil
	}

	fields := map[string]string{}
	for key, re := range structuredKeyRes {
		if sub := re.FindStringSubmatch(line); sub != nil {
			value := strings.TrimSpace(sub[1])
			if value != "" {
				fields[key] = value
			}
		}
	}
	if sub := structuredTypeRe.FindStringSubmatch(line); sub != nil {
		switch CallType(sub[1]) {
		case CallTypeAppointment, CallTypeCallback, CallTypeQuote:
			fields["type"] = sub[1]
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Extract adapts the tag fields into a full result for the adoption path.
func (s *structuredStrategy) Extract(transcript string) *Result {
	fields := s.Fields(transcript)
	if fields == nil {
		return nil
	}

	result := &Result{
		Type:    DefaultCallType,
		Details: map[string]interface{}{"method": s.Name()},
	}
	applyStructuredFields(result, fields)
	return result
}

// applyStructuredFields overwrites every blank target field with the tag's
// value. The call type is taken over only while the result still carries the
// default, so a scored intent is never displaced by the tag.
func applyStructuredFields(r *Result, fields map[string]string) {
	if v, ok := fields["name"]; ok && blank(r.Name) {
		r.Name = strptr(v)
		r.Details["name_method"] = "structured_tag"
	}
	if v, ok := fields["phone"]; ok && blank(r.Phone) {
		r.Phone = strptr(v)
		r.Details["phone_method"] = "structured_tag"
	}
	if v, ok := fields["address"]; ok && blank(r.Address) {
		r.Address = strptr(v)
		r.Details["address_method"] = "structured_tag"
	}
	if v, ok := fields["appointment"]; ok && blank(r.Appointment) {
		r.Appointment = strptr(v)
		r.Details["appointment_method"] = "structured_tag"
	}
	if v, ok := fields["type"]; ok && r.Type == DefaultCallType {
		r.Type = CallType(v)
	}
}

func markerLine(transcript string) string {
	if !strings.Contains(transcript, structuredMarker) {
		return ""
	}
	for _, line := range strings.Split(transcript, "\n") {
		if strings.Contains(line, structuredMarker) {
			return line
		}
	}
	return ""
}

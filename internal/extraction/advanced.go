package extraction

import (
	"regexp"
	"strings"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
)

// fieldPattern pairs a compiled pattern with its confidence weight and a
// human-readable method label recorded into the result details.
type fieldPattern struct {
	re     *regexp.Regexp
	weight float64
	method string
}

// Pattern lists are ordered: the most specific, context-anchored patterns
// come first, generic shapes last. The first structural match whose capture
// survives validation wins the field.
var namePatterns = []fieldPattern{
	{
		re:     regexp.MustCompile(`(?:[Mm]ein Name ist|[Ii]ch heiße|[Ii]ch heisse)\s+(?:Herr\s+|Frau\s+)?([A-ZÄÖÜ][a-zäöüß]+(?:[ -][A-ZÄÖÜ][a-zäöüß]+){0,2})`),
		weight: 0.95,
		method: "name_introduction",
	},
	{
		re:     regexp.MustCompile(`(?:[Ii]ch bin|[Hh]ier ist|[Hh]ier spricht)\s+(?:Herr\s+|Frau\s+)?([A-ZÄÖÜ][a-zäöüß]+(?:[ -][A-ZÄÖÜ][a-zäöüß]+){0,2})`),
		weight: 0.85,
		method: "name_salutation",
	},
	{
		re:     regexp.MustCompile(`(?:Herr|Frau)\s+([A-ZÄÖÜ][a-zäöüß]+(?:[ -][A-ZÄÖÜ][a-zäöüß]+)?)`),
		weight: 0.75,
		method: "name_title",
	},
	{
		re:     regexp.MustCompile(`\b([A-ZÄÖÜ][a-zäöüß]{2,}\s+[A-ZÄÖÜ][a-zäöüß]{2,})\b`),
		weight: 0.5,
		method: "name_generic",
	},
}

var phonePatterns = []fieldPattern{
	{
		re:     regexp.MustCompile(`(?i)(?:meine (?:telefon)?nummer ist|telefonnummer ist|nummer lautet|erreichen sie mich unter|erreichbar unter|unter der nummer)\s*((?:\+49|0)[0-9][0-9\s/.\-]{5,16}[0-9])`),
		weight: 0.95,
		method: "phone_context",
	},
	{
		re:     regexp.MustCompile(`(?i)unter\s+((?:\+49|0)[0-9][0-9\s/.\-]{5,16}[0-9])\s+(?:zurück|an)`),
		weight: 0.9,
		method: "phone_callback",
	},
	{
		re:     regexp.MustCompile(`((?:\+49|0)[1-9][0-9\s/.\-]{6,15}[0-9])`),
		weight: 0.75,
		method: "phone_generic",
	},
}

var addressPatterns = []fieldPattern{
	{
		re:     regexp.MustCompile(`(?i)(?:wohne in der|wohne am|wohne im|wohne auf der|meine adresse ist|adresse lautet)\s+([\p{L}][\p{L}0-9\s.\-]*?[0-9]+[a-z]?)`),
		weight: 0.9,
		method: "address_context",
	},
	{
		re:     regexp.MustCompile(`([A-ZÄÖÜ][\p{L}.\-]*?(?:[Ss]traße|[Ss]trasse|[Ss]tr\.|[Ww]eg|[Pp]latz|[Aa]llee|[Rr]ing|[Dd]amm|[Gg]asse)\s+[0-9]+[a-z]?)`),
		weight: 0.85,
		method: "address_street",
	},
	{
		re:     regexp.MustCompile(`(?i)in der\s+([\p{L}][\p{L}0-9\s.\-]*?[0-9]+[a-z]?)`),
		weight: 0.6,
		method: "address_generic",
	},
}

var appointmentPatterns = []fieldPattern{
	{
		re:     regexp.MustCompile(`(?i)\b((?:heute|morgen|übermorgen|nächste[rn]? woche|am (?:montag|dienstag|mittwoch|donnerstag|freitag|samstag|sonntag))[^.!?]*?(?:uhr|termin\w*|besichtigung|vorbeikommen)[^.,!?]*)`),
		weight: 0.9,
		method: "appointment_timeref",
	},
	{
		re:     regexp.MustCompile(`(?i)\b(um \d{1,2}(?:[:.]\d{2})?\s?uhr)`),
		weight: 0.85,
		method: "appointment_time",
	},
	{
		re:     regexp.MustCompile(`(?i)\b(heute|morgen|übermorgen|nächste[rn]? woche)\b`),
		weight: 0.6,
		method: "appointment_day",
	},
}

// intentKeywords score the transcript per call type; occurrences count.
var intentKeywords = map[CallType][]string{
	CallTypeAppointment: {"termin", "besichtigung", "vorbeikommen", "besuch", "vereinbaren", "uhr", "vor ort"},
	CallTypeCallback:    {"rückruf", "zurückrufen", "rufen sie", "zurück", "melden sie", "erreichen"},
	CallTypeQuote:       {"angebot", "kostenvoranschlag", "preis", "kosten", "was kostet", "unverbindlich"},
}

// intentPriority fixes tie-breaking deterministically.
var intentPriority = []CallType{CallTypeAppointment, CallTypeQuote, CallTypeCallback}

// minAdvancedConfidence is the floor below which an advanced result counts
// as a miss.
const minAdvancedConfidence = 0.3

type advancedStrategy struct {
	log logger.Logger
}

func newAdvancedStrategy(log logger.Logger) *advancedStrategy {
	return &advancedStrategy{log: log}
}

func (s *advancedStrategy) Name() string { return "advanced_pattern" }

// Extract runs the weighted pattern lists over the transcript. Matches that
// fail validation fall through to the next pattern; a structural regex hit
// alone is never accepted. Returns nil when the aggregate confidence does
// not clear the floor.
func (s *advancedStrategy) Extract(transcript string) *Result {
	details := map[string]interface{}{"method": s.Name()}
	result := &Result{Type: DefaultCallType, Details: details}

	var weightSum float64
	populated := 0

	if m := matchField(transcript, namePatterns, isValidName); m != nil {
		name := strings.TrimSpace(m.value)
		result.Name = &name
		details["name_method"] = m.method
		details["name_confidence"] = m.weight
		weightSum += m.weight
		populated++
	}
	if m := matchField(transcript, phonePatterns, isValidGermanPhone); m != nil {
		phone := NormalizePhone(m.value)
		result.Phone = &phone
		details["phone_method"] = m.method
		details["phone_confidence"] = m.weight
		weightSum += m.weight
		populated++
	}
	if m := matchField(transcript, addressPatterns, isValidAddress); m != nil {
		addr := cleanAddress(m.value)
		result.Address = &addr
		details["address_method"] = m.method
		details["address_confidence"] = m.weight
		weightSum += m.weight
		populated++
	}
	if m := matchField(transcript, appointmentPatterns, nil); m != nil {
		phrase := strings.TrimSpace(m.value)
		result.Appointment = &phrase
		details["appointment_method"] = m.method
		details["appointment_confidence"] = m.weight
	}

	result.Type = classifyIntent(transcript, result.Address != nil, result.Appointment != nil)

	// The three expected core fields are name, phone, and address. Dividing
	// the weight sum by three and scaling by the populated share suppresses
	// confidence when only a field or two actually landed.
	confidence := (weightSum / 3.0) * (float64(populated) / 3.0)
	if confidence > 1.0 {
		confidence = 1.0
	}
	result.Confidence = confidence

	if confidence <= minAdvancedConfidence {
		s.log.Debug("advanced extraction below confidence floor", map[string]interface{}{
			"confidence": confidence,
			"populated":  populated,
		})
		return nil
	}
	return result
}

type fieldMatch struct {
	value  string
	weight float64
	method string
}

// matchField returns the first pattern whose capture also passes validate.
// A nil validate accepts any structural match.
func matchField(transcript string, patterns []fieldPattern, validate func(string) bool) *fieldMatch {
	for _, p := range patterns {
		sub := p.re.FindStringSubmatch(transcript)
		if sub == nil {
			continue
		}
		candidate := sub[1]
		if validate != nil && !validate(candidate) {
			continue
		}
		return &fieldMatch{value: candidate, weight: p.weight, method: p.method}
	}
	return nil
}

// classifyIntent scores keyword occurrences in the lowercased transcript and
// adds structural bonuses for the appointment type: an extracted address and
// appointment phrase outweigh raw keyword counting. Ties resolve along
// intentPriority; an all-zero score falls back to the default.
func classifyIntent(transcript string, hasAddress, hasAppointment bool) CallType {
	lower := strings.ToLower(transcript)

	scores := map[CallType]int{}
	for callType, keywords := range intentKeywords {
		for _, kw := range keywords {
			scores[callType] += strings.Count(lower, kw)
		}
	}
	if hasAddress {
		scores[CallTypeAppointment] += 3
	}
	if hasAppointment {
		scores[CallTypeAppointment] += 2
	}

	best := DefaultCallType
	bestScore := 0
	for _, callType := range intentPriority {
		if scores[callType] > bestScore {
			best = callType
			bestScore = scores[callType]
		}
	}
	return best
}

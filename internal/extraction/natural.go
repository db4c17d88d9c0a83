package extraction

import (
	"regexp"
	"strings"

	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
)

// The natural fallback runs a single, looser pattern per field. It trades
// precision for recall and only reports success when it found both a name
// and a phone number.
var (
	naturalNameRe        = regexp.MustCompile(`(?:[Mm]ein Name ist|[Ii]ch heiße|[Ii]ch heisse|[Ii]ch bin|[Hh]ier spricht)\s+(?:Herr\s+|Frau\s+)?([A-ZÄÖÜ][a-zäöüß]+(?: [A-ZÄÖÜ][a-zäöüß]+)?)`)
	naturalPhoneRe       = regexp.MustCompile(`((?:\+49|0)[0-9][0-9\s/.\-]{6,17})`)
	naturalAddressRe     = regexp.MustCompile(`(?i)(?:wohne|adresse)[^.!?]*?([\p{L}][\p{L}\s.\-]*?[0-9]+[a-z]?)`)
	naturalAppointmentRe = regexp.MustCompile(`(?i)\b(heute|morgen|übermorgen|nächste woche)\b`)
)

// Coarse inline stoplist; the fallback deliberately does not share the full
// validator stoplist.
var naturalNameStoplist = []string{"hallo", "herr", "frau", "guten", "danke"}

const naturalMinPhoneDigits = 9

type naturalStrategy struct {
	log logger.Logger
}

func newNaturalStrategy(log logger.Logger) *naturalStrategy {
	return &naturalStrategy{log: log}
}

func (s *naturalStrategy) Name() string { return "natural_language" }

// Extract returns nil unless both name and phone were found.
func (s *naturalStrategy) Extract(transcript string) *Result {
	details := map[string]interface{}{"method": s.Name()}
	result := &Result{Type: DefaultCallType, Details: details}

	if sub := naturalNameRe.FindStringSubmatch(transcript); sub != nil {
		candidate := strings.TrimSpace(sub[1])
		if !naturalStopped(candidate) {
			result.Name = &candidate
			details["name_method"] = "natural_name"
		}
	}

	if sub := naturalPhoneRe.FindStringSubmatch(transcript); sub != nil {
		if digitCount(sub[1]) >= naturalMinPhoneDigits {
			phone := NormalizePhone(sub[1])
			result.Phone = &phone
			details["phone_method"] = "natural_phone"
		}
	}

	if sub := naturalAddressRe.FindStringSubmatch(transcript); sub != nil {
		addr := cleanAddress(sub[1])
		result.Address = &addr
		details["address_method"] = "natural_address"
	}

	if sub := naturalAppointmentRe.FindStringSubmatch(transcript); sub != nil {
		phrase := sub[1]
		result.Appointment = &phrase
		details["appointment_method"] = "natural_appointment"
	}

	result.Type = naturalIntent(transcript)

	if result.Name == nil || result.Phone == nil {
		return nil
	}
	return result
}

// naturalIntent is plain keyword containment without structural bonuses.
func naturalIntent(transcript string) CallType {
	lower := strings.ToLower(transcript)
	scores := map[CallType]int{}
	for callType, keywords := range intentKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				scores[callType]++
			}
		}
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

func naturalStopped(candidate string) bool {
	for _, stop := range naturalNameStoplist {
		if strings.EqualFold(candidate, stop) {
			return true
		}
	}
	return false
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

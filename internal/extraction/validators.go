package extraction

import (
	"regexp"
	"strings"
	"unicode"
)

// nameStoplist holds tokens the name patterns keep mistaking for personal
// names: greetings, salutations, and the generic nouns of this domain.
// Comparison is case-insensitive and exact against the whole candidate.
var nameStoplist = map[string]struct{}{
	"hallo":        {},
	"guten tag":    {},
	"guten morgen": {},
	"guten abend":  {},
	"tag":          {},
	"morgen":       {},
	"danke":        {},
	"bitte":        {},
	"tschüss":      {},
	"wiederhören":  {},
	"herr":         {},
	"frau":         {},
	"fahrzeug":     {},
	"auto":         {},
	"schaden":      {},
	"glasschaden":  {},
	"scheibe":      {},
	"telefon":      {},
	"nummer":       {},
	"termin":       {},
	"adresse":      {},
	"name":         {},
	"kunde":        {},
	"firma":        {},
	"werkstatt":    {},
	"versicherung": {},
}

// isValidName rejects candidates that are too short or long, contain digits,
// contain no letter at all, or exactly match the stoplist.
func isValidName(candidate string) bool {
	c := strings.TrimSpace(candidate)
	if len([]rune(c)) < 2 || len([]rune(c)) > 50 {
		return false
	}
	hasLetter := false
	for _, r := range c {
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasLetter {
		return false
	}
	_, stopped := nameStoplist[strings.ToLower(c)]
	return !stopped
}

// NormalizePhone reduces a raw phone candidate to domestic dial form: digits
// only, +49 rewritten to a leading 0, a 0 prepended when missing. Total and
// idempotent; it never fails, it only reshapes.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(trimmed, "+") {
		digits = "+" + digits
	}
	if strings.HasPrefix(digits, "+49") {
		digits = "0" + digits[3:]
	}
	digits = strings.TrimPrefix(digits, "+")
	if !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	return digits
}

// knownAreaCodes is a closed whitelist of domestic area codes accepted
// regardless of the generic shape check.
var knownAreaCodes = []string{
	"030", "040", "069", "089",
	"0201", "0211", "0221", "0228", "0231", "0421",
	"0511", "0521", "0531", "0541", "0551", "0561", "0571",
	"0611", "0621", "0711", "0911",
}

// domesticShape covers German mobile and landline numbers in normalized form.
var domesticShape = regexp.MustCompile(`^0[1-9][0-9]{8,10}$`)

// isValidGermanPhone normalizes first, then checks length bounds, the leading
// zero, and either a known area code or the generic domestic shape.
func isValidGermanPhone(raw string) bool {
	n := NormalizePhone(raw)
	if len(n) < 10 || len(n) > 12 || !strings.HasPrefix(n, "0") {
		return false
	}
	for _, code := range knownAreaCodes {
		if strings.HasPrefix(n, code) {
			return true
		}
	}
	return domesticShape.MatchString(n)
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	commaRun      = regexp.MustCompile(`\s*,[\s,]*,\s*|\s*,\s*`)
)

// cleanAddress trims, collapses whitespace runs and duplicate commas, and
// strips leading/trailing comma noise.
func cleanAddress(raw string) string {
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	s = commaRun.ReplaceAllString(s, ", ")
	return strings.Trim(s, ", ")
}

// streetTokens are the street-type words an address must contain.
var streetTokens = []string{
	"straße", "strasse", "str.", "weg", "platz", "allee", "ring", "damm", "gasse",
}

// isValidAddress requires minimum length, a street-type token, and at least
// one digit for the house number.
func isValidAddress(candidate string) bool {
	c := cleanAddress(candidate)
	if len([]rune(c)) < 5 {
		return false
	}
	lower := strings.ToLower(c)
	found := false
	for _, tok := range streetTokens {
		if strings.Contains(lower, tok) {
			found = true
			break
		}
	}
	return found && strings.ContainsAny(c, "0123456789")
}

// Package normalize canonicalizes provider names, technology labels, and
// ZIP codes before dimension resolution. All functions are pure and total
// for string input; unknown values pass through unchanged so that new
// upstream vocabulary never breaks ingestion.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// providerAliases maps the naming variants seen in agent payloads to the
// canonical provider name. Matching is exact on the trimmed string.
var providerAliases = map[string]string{
	"AT & T":                  "AT&T",
	"ATT":                     "AT&T",
	"At&t":                    "AT&T",
	"AT&T Inc":                "AT&T",
	"AT&T Inc.":               "AT&T",
	"Comcast":                 "Xfinity",
	"Comcast Cable":           "Xfinity",
	"Charter":                 "Spectrum",
	"Charter Communications":  "Spectrum",
	"T Mobile":                "T-Mobile",
	"TMobile":                 "T-Mobile",
	"T-Mobile US":             "T-Mobile",
	"Verizon Wireless":        "Verizon",
	"Verizon Communications":  "Verizon",
	"CenturyLink":             "Lumen",
	"Lumen Technologies":      "Lumen",
	"Cox Communications":      "Cox",
	"Frontier Communications": "Frontier",
}

var technologyAliases = map[string]string{
	"Fiber Optic":             "Fiber",
	"Fibre":                   "Fiber",
	"FTTH":                    "Fiber",
	"Cellular":                "Mobile",
	"Mobile/Cellular":         "Mobile",
	"LTE":                     "Mobile",
	"5G":                      "Mobile",
	"FWA":                     "Fixed Wireless",
	"Fixed Wireless Access":   "Fixed Wireless",
	"Coax":                    "Cable",
	"Coaxial":                 "Cable",
	"Digital Subscriber Line": "DSL",
}

var validTechnologies = map[string]struct{}{
	"Fiber":          {},
	"Cable":          {},
	"Mobile":         {},
	"DSL":            {},
	"Satellite":      {},
	"Wireless":       {},
	"Fixed Wireless": {},
}

// zipFirstDigitStates gives a coarse state guess from the first digit of
// a normalized ZIP. Approximate only; real ZIP prefixes span many states.
var zipFirstDigitStates = map[byte]string{
	'0': "CT",
	'1': "NY",
	'2': "VA",
	'3': "FL",
	'4': "KY",
	'5': "MN",
	'6': "MO",
	'7': "TX",
	'8': "CO",
	'9': "CA",
}

var (
	zipPattern      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// ProviderName maps known naming variants to the canonical provider name.
// Unknown names pass through unchanged (after trimming).
func ProviderName(raw string) string {
	name := strings.TrimSpace(raw)
	if canonical, ok := providerAliases[name]; ok {
		return canonical
	}
	return name
}

// Technology maps long-form technology labels to the fixed vocabulary.
// Unknown values pass through unchanged (after trimming).
func Technology(raw string) string {
	tech := strings.TrimSpace(raw)
	if canonical, ok := technologyAliases[tech]; ok {
		return canonical
	}
	return tech
}

// IsValidTechnology reports whether tech belongs to the fixed technology set.
func IsValidTechnology(tech string) bool {
	_, ok := validTechnologies[tech]
	return ok
}

// Zip reduces raw to exactly 5 digits: strip non-digits, truncate to the
// first 5, left-pad with zeros. Idempotent for all inputs.
func Zip(raw string) string {
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if len(digits) > 5 {
		digits = digits[:5]
	}
	for len(digits) < 5 {
		digits = "0" + digits
	}
	return digits
}

// ZipFromInt normalizes a numeric ZIP, restoring leading zeros lost by
// upstream JSON encoders that emit ZIPs as integers.
func ZipFromInt(raw int) string {
	return Zip(strconv.Itoa(raw))
}

// IsValidZip reports whether code is a 5-digit ZIP with optional +4 suffix.
func IsValidZip(code string) bool {
	return zipPattern.MatchString(code)
}

// StateFromZip guesses a state code from the first digit of a normalized
// ZIP. The second return is false for empty or non-digit input. This is a
// rough fallback, not authoritative.
func StateFromZip(code string) (string, bool) {
	if code == "" {
		return "", false
	}
	state, ok := zipFirstDigitStates[code[0]]
	if !ok {
		return "", false
	}
	return state, true
}

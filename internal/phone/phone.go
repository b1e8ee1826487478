// Package phone builds the canonical phone representation used as the
// lead deduplication key. Normalization is pure and total: bad input
// produces a best-effort guess, never an error.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultCountryCode is assumed when nothing else matches.
const DefaultCountryCode = "+91"

// knownCodes are the country codes stripped from the national part to avoid
// double-counting. Order matters: longer codes first where they share a
// prefix would not help here because "91" must win over "1" for Indian input.
var knownCodes = []string{"91", "1", "44", "61"}

var regionByCode = map[string]string{
	"+91": "IN",
	"+1":  "US",
	"+44": "GB",
	"+61": "AU",
}

// DetectCountryCode guesses the country code of a raw phone string from its
// `+` prefix or from digit-length heuristics.
func DetectCountryCode(raw string) string {
	digits := digitsOnly(raw)

	switch {
	case strings.HasPrefix(raw, "+91"):
		return "+91"
	case strings.HasPrefix(raw, "+1"):
		return "+1"
	case strings.HasPrefix(raw, "+44"):
		return "+44"
	case strings.HasPrefix(raw, "+61"):
		return "+61"
	}

	if len(digits) == 10 {
		return "+91"
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return "+1"
	}
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		return "+91"
	}

	return DefaultCountryCode
}

// Normalize canonicalizes raw input plus an optional UI-provided country
// code into `<country_code><national_digits>`. An explicit non-default UI
// code wins, then detection from the raw string. Two numbers are duplicates
// exactly when their normalized forms are equal.
func Normalize(raw, countryCodeFromUI string) string {
	code := countryCodeFromUI
	if code == "" || code == DefaultCountryCode {
		code = DetectCountryCode(raw)
	}

	// Happy path: let libphonenumber settle real numbers. E.164 output is
	// identical to the canonical form for every valid number.
	if region, ok := regionByCode[code]; ok {
		if num, err := phonenumbers.Parse(raw, region); err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	digits := digitsOnly(raw)
	for _, c := range knownCodes {
		if strings.HasPrefix(digits, c) {
			digits = digits[len(c):]
			break
		}
	}

	return code + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

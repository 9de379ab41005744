package relay

import "strings"

// DefaultCountryCode is the domestic prefix assumed for bare 10-digit
// numbers (NANP).
const DefaultCountryCode = "1"

// NormalizePhone canonicalizes a sender address into E.164-like form:
// strip non-digits; a 10-digit number is assumed domestic and gets the
// country prefix; an 11-digit number already starting with the country
// digit just gets "+"; anything else passes through with a "+" prefix.
//
// The function is idempotent: NormalizePhone(NormalizePhone(x)) ==
// NormalizePhone(x) for any input.
func NormalizePhone(raw, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var digits strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits.WriteByte(raw[i])
		}
	}
	d := digits.String()
	if d == "" {
		return strings.TrimSpace(raw)
	}

	switch {
	case len(d) == 10:
		return "+" + countryCode + d
	case len(d) == 10+len(countryCode) && strings.HasPrefix(d, countryCode):
		return "+" + d
	default:
		return "+" + d
	}
}

package conversation

import "strings"

// normalizePhoneDigits strips everything that is not a digit.
func normalizePhoneDigits(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// PhoneSuffixes derives the canonical lookup suffixes from a raw provider
// phone string. The 11-digit suffix covers Brazilian mobile numbers with the
// leading "9"; the 10-digit suffix covers landline-length numbers without it.
func PhoneSuffixes(raw string) (suffix11, suffix10 string) {
	digits := normalizePhoneDigits(raw)
	if digits == "" {
		return "", ""
	}
	suffix11 = digits
	if len(digits) > 11 {
		suffix11 = digits[len(digits)-11:]
	}
	suffix10 = digits
	if len(digits) > 10 {
		suffix10 = digits[len(digits)-10:]
	}
	return suffix11, suffix10
}

// Package phone normalizes contact numbers with libphonenumber rules.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion resolves numbers written without a country code.
const DefaultRegion = "FR"

// NormalizeE164 returns input in E.164 form when it parses to a valid number
// for region, and the trimmed input unchanged otherwise. Intake keeps what the
// prospect typed rather than rejecting the lead.
func NormalizeE164(input, region string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}
	if n, err := phonenumbers.Parse(input, region); err == nil && phonenumbers.IsValidNumber(n) {
		return phonenumbers.Format(n, phonenumbers.E164)
	}
	return input
}

// DigitCount counts dialable digits, ignoring separators and the plus sign.
func DigitCount(input string) int {
	return len(phonenumbers.NormalizeDigitsOnly(input))
}

// Package normalize cleans up user-entered and spreadsheet-sourced values
// before they are validated and stored.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// LocalPhoneDigits is the length of a national subscriber number.
const LocalPhoneDigits = 10

// DefaultCallingCode is used when neither the row nor the caller yields one.
const DefaultCallingCode = "91"

var callingCodes = map[string]string{}

func init() {
	for _, c := range []struct{ country, code string }{
		{"india", "91"},
		{"in", "91"},
		{"nepal", "977"},
		{"bangladesh", "880"},
		{"sri lanka", "94"},
		{"united states", "1"},
		{"usa", "1"},
		{"us", "1"},
		{"canada", "1"},
		{"united kingdom", "44"},
		{"uk", "44"},
		{"australia", "61"},
		{"new zealand", "64"},
		{"singapore", "65"},
		{"malaysia", "60"},
		{"uae", "971"},
		{"united arab emirates", "971"},
		{"germany", "49"},
		{"france", "33"},
	} {
		callingCodes[c.country] = c.code
	}
}

// CallingCode returns the calling code for a country name, or "" if unknown.
func CallingCode(country string) string {
	return callingCodes[strings.ToLower(strings.Join(strings.Fields(country), " "))]
}

// CallingCodeOf returns the country prefix of an already normalized phone
// number ("+91…" → "91"), or "" if phone has no prefix.
func CallingCodeOf(phone string) string {
	d := Digits(phone)
	if len(d) <= LocalPhoneDigits {
		return ""
	}
	return d[:len(d)-LocalPhoneDigits]
}

// Digits drops every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone turns a free-form number into "+<code><10 digits>". Longer inputs
// keep only their trailing ten digits, so an existing country prefix is
// replaced rather than doubled. ok is false when fewer than ten digits remain.
func Phone(raw, callingCode string) (phone string, ok bool) {
	d := Digits(raw)
	if len(d) < LocalPhoneDigits {
		return d, false
	}
	d = d[len(d)-LocalPhoneDigits:]
	code := Digits(callingCode)
	if code == "" {
		code = DefaultCallingCode
	}
	return "+" + code + d, true
}

// VerifiedPhone normalizes a number reported by the OTP provider. Those
// already carry a country prefix, so only decoration is removed.
func VerifiedPhone(raw string) (string, bool) {
	d := Digits(raw)
	switch {
	case len(d) < LocalPhoneDigits:
		return "", false
	case len(d) == LocalPhoneDigits:
		return "+" + DefaultCallingCode + d, true
	}
	return "+" + d, true
}

// Email lowercases and trims.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner whitespace; case is kept.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status lowercases and trims.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var serialEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// SerialDate converts a spreadsheet serial day number to a UTC date.
// Day 1 is 1900-01-01 and the spreadsheet's phantom 1900-02-29 shifts every
// later serial by one, hence the two-day offset. Fractions are discarded.
func SerialDate(serial float64) time.Time {
	days := int(math.Floor(serial)) - 2
	return serialEpoch.AddDate(0, 0, days)
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	time.RFC3339,
}

// Date parses a calendar date from a serial number, dd/mm/yyyy, yyyy-mm-dd
// or dd-mm-yyyy. The result is midnight UTC.
func Date(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 {
			return time.Time{}, fmt.Errorf("date serial %q out of range", s)
		}
		return SerialDate(f), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Gender lowercases s and expands the "m"/"f" shorthands.
func Gender(s string) string {
	switch g := strings.ToLower(strings.TrimSpace(s)); g {
	case "m":
		return "male"
	case "f":
		return "female"
	default:
		return g
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package reportrange parses the date and amount filters used by donation
// reports.
//
// Donation dates are stored as midnight UTC of the calendar date, so every
// bound produced here is a UTC midnight as well. Named buckets (week, month,
// year) are resolved against "today" in the report time zone.
package reportrange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is a half-open interval [From, To). A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsAll reports whether the range has no bounds.
func (r DateRange) IsAll() bool { return r.From == nil && r.To == nil }

// AmountRange is an inclusive interval. A nil bound is open.
type AmountRange struct {
	Min *int64
	Max *int64
}

// IsAll reports whether the range has no bounds.
func (r AmountRange) IsAll() bool { return r.Min == nil && r.Max == nil }

var (
	isoPair = regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2})\s*-\s*(\d{4}-\d{1,2}-\d{1,2})$`)
	dmyPair = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4})\s*-\s*(\d{1,2}/\d{1,2}/\d{4})$`)
)

// ParseDate parses "all" (or ""), "week", "month", "year", an inclusive
// "dd/mm/yyyy-dd/mm/yyyy" range, or an inclusive "yyyy-mm-dd-yyyy-mm-dd"
// range. now and loc define "today" for the named buckets.
func ParseDate(s string, now time.Time, loc *time.Location) (DateRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	switch s {
	case "", "all":
		return DateRange{}, nil
	case "week":
		// Weeks start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		from := today.AddDate(0, 0, -offset)
		return bounded(from, from.AddDate(0, 0, 7)), nil
	case "month":
		from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return bounded(from, from.AddDate(0, 1, 0)), nil
	case "year":
		from := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return bounded(from, from.AddDate(1, 0, 0)), nil
	}

	var a, b string
	var layout string
	if m := isoPair.FindStringSubmatch(s); m != nil {
		a, b, layout = m[1], m[2], "2006-1-2"
	} else if m := dmyPair.FindStringSubmatch(s); m != nil {
		a, b, layout = m[1], m[2], "2/1/2006"
	} else {
		return DateRange{}, fmt.Errorf("unrecognized date range %q", s)
	}
	from, err := time.Parse(layout, a)
	if err != nil {
		return DateRange{}, fmt.Errorf("bad start date %q", a)
	}
	to, err := time.Parse(layout, b)
	if err != nil {
		return DateRange{}, fmt.Errorf("bad end date %q", b)
	}
	if to.Before(from) {
		return DateRange{}, fmt.Errorf("date range %q ends before it starts", s)
	}
	return bounded(from, to.AddDate(0, 0, 1)), nil
}

func bounded(from, to time.Time) DateRange {
	return DateRange{From: &from, To: &to}
}

// ParseAmount parses "all" (or ""), "below-N", "N-plus" or an inclusive
// "min-max". The brackets offered by the reports page are "below-1000",
// "1000-9999", "10000-99999" and "100000-plus".
func ParseAmount(s string) (AmountRange, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if s == "" || s == "all" {
		return AmountRange{}, nil
	}
	if rest, ok := strings.CutPrefix(s, "below-"); ok {
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return AmountRange{}, fmt.Errorf("bad amount range %q", s)
		}
		maxv := n - 1
		return AmountRange{Max: &maxv}, nil
	}
	if rest, ok := strings.CutSuffix(s, "-plus"); ok {
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return AmountRange{}, fmt.Errorf("bad amount range %q", s)
		}
		return AmountRange{Min: &n}, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return AmountRange{}, fmt.Errorf("bad amount range %q", s)
	}
	minv, err1 := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	maxv, err2 := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err1 != nil || err2 != nil || maxv < minv {
		return AmountRange{}, fmt.Errorf("bad amount range %q", s)
	}
	return AmountRange{Min: &minv, Max: &maxv}, nil
}

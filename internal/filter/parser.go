package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*` + monthNames + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthNames + `$`)
)

// ParseDateRange parses a date range within a season year.
//
// Supported formats:
//   - "Apr 1-15" or "April 1-15" - same month
//   - "Apr 25 - May 10" - different months
//   - "June" - entire month
//
// A range whose end month precedes its start month ends in the next year.
// Both returned times are midnight UTC on the first and last day.
func ParseDateRange(input string, year int) (time.Time, time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("date range cannot be empty")
	}

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		from, err := day(year, month, m[2])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := day(year, month, m[3])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return ordered(from, to)
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1, month2 := parseMonth(m[1]), parseMonth(m[3])
		year2 := year
		if month2 < month1 {
			year2++
		}
		from, err := day(year, month1, m[2])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := day(year2, month2, m[4])
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return ordered(from, to)
	}

	if m := wholeMonth.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Day 0 of the next month is the last day of this one.
		to := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return from, to, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q (use 'Apr 1-15', 'Apr 25 - May 10' or 'June')", input)
}

func day(year int, month time.Month, s string) (time.Time, error) {
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 {
		return time.Time{}, fmt.Errorf("invalid day: %s", s)
	}
	t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != month {
		return time.Time{}, fmt.Errorf("invalid day: %s %s", month, s)
	}
	return t, nil
}

func ordered(from, to time.Time) (time.Time, time.Time, error) {
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must be before end date")
	}
	return from, to, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) > 3 {
		name = name[:3]
	}
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()[:3]) == name {
			return m
		}
	}
	return 0
}

package importer

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp parses a day-first "D/M/YYYY HH:mm:ss" token as wall-clock time in loc
// and returns the instant in UTC at second precision. A nil loc means UTC.
func ParseTimestamp(token string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(token) == "" {
		return time.Time{}, &ParseError{Reason: reasonEmpty, RawValue: token}
	}
	if loc == nil {
		loc = time.UTC
	}
	invalid := &ParseError{Reason: reasonInvalidDate, RawValue: token}

	parts := strings.Fields(token)
	if len(parts) != 2 {
		return time.Time{}, invalid
	}

	dateParts := strings.Split(parts[0], "/")
	timeParts := strings.Split(parts[1], ":")
	if len(dateParts) != 3 || len(timeParts) != 3 {
		return time.Time{}, invalid
	}

	day, ok1 := component(dateParts[0], 1, 2)
	month, ok2 := component(dateParts[1], 1, 2)
	year, ok3 := component(dateParts[2], 4, 4)
	hour, ok4 := component(timeParts[0], 1, 2)
	minute, ok5 := component(timeParts[1], 2, 2)
	second, ok6 := component(timeParts[2], 2, 2)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return time.Time{}, invalid
	}

	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, invalid
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, invalid
	}

	local := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	return local.UTC().Truncate(time.Second), nil
}

// component parses an all-digit field of minLen..maxLen characters.
func component(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func daysIn(m time.Month, year int) int {
	// day 0 of the following month is the last day of m
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

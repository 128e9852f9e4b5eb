package utils

import "time"

const DefaultDateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string. Returns zero time when the
// value is empty or malformed; callers decide whether that is fatal.
func ParseDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatDate renders a time as YYYY-MM-DD, the format used throughout the
// store and the EDGAR search API.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

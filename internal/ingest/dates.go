package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var gmtSuffixRe = regexp.MustCompile(`\s*GMT.*$`)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/06",
	"1-2-2006",
	"Mon Jan 2 2006 15:04:05",
	"Mon Jan 2 2006",
	"Mon, Jan 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads the date exports write into a UTC-midnight calendar date.
// A trailing "GMT..." annotation is ignored, as are epoch milliseconds.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(gmtSuffixRe.ReplaceAllString(strings.TrimSpace(s), ""))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Civil(t), true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 1e11 {
		return Civil(time.UnixMilli(ms).UTC()), true
	}
	return time.Time{}, false
}

// Civil truncates t to midnight UTC of its own calendar date.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

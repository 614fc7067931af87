package walls

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds how many walls a single range may expand to.
const MaxRangeSpan = 50

var rangeRe = regexp.MustCompile(`(?i)\b([a-z]+)(\d+)\s*-\s*([a-z]*)(\d+)\b`)

// ExpandRanges rewrites wall ranges such as "a1-a4" or "a1-4" into an explicit
// comma-joined list. Endpoints must share their letter prefix; reversed
// endpoints expand the same as ordered ones.
func ExpandRanges(s string) string {
	return rangeRe.ReplaceAllStringFunc(s, func(m string) string {
		g := rangeRe.FindStringSubmatch(m)
		prefix, endPrefix := g[1], g[3]
		if endPrefix != "" && !strings.EqualFold(prefix, endPrefix) {
			return m
		}
		lo, err1 := strconv.Atoi(g[2])
		hi, err2 := strconv.Atoi(g[4])
		if err1 != nil || err2 != nil {
			return m
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo > MaxRangeSpan {
			return m
		}
		parts := make([]string, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			parts = append(parts, fmt.Sprintf("%s%d", prefix, n))
		}
		return strings.Join(parts, ", ")
	})
}

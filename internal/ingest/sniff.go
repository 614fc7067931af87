package ingest

import (
	"bufio"
	"bytes"
	"strings"
)

// Format identifies which export an uploaded file came from.
type Format string

const (
	FormatSchedule    Format = "schedule"
	FormatPayroll     Format = "payroll"
	FormatPerformance Format = "performance"
)

// Sniff classifies a file by its lower-cased header line. Schedule detection
// runs first, then payroll; anything else is treated as a performance export.
func Sniff(firstLine string) Format {
	h := strings.ToLower(firstLine)
	if strings.Contains(h, "start date") && strings.Contains(h, "location") {
		return FormatSchedule
	}
	if strings.Contains(h, "hours") && (strings.Contains(h, "wages") || strings.Contains(h, "payroll")) {
		return FormatPayroll
	}
	return FormatPerformance
}

// FirstLine returns the first non-empty line of data with any UTF-8 BOM removed.
func FirstLine(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}

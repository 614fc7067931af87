package ingest

import (
	"strings"
	"unicode"
)

// Matcher decides whether a normalized header names a logical column.
type Matcher func(normalized string) bool

// Equals matches headers whose normalized form equals one of the synonyms.
func Equals(synonyms ...string) Matcher {
	return func(h string) bool {
		for _, s := range synonyms {
			if h == s {
				return true
			}
		}
		return false
	}
}

// Contains matches headers whose normalized form contains one of the synonyms.
func Contains(synonyms ...string) Matcher {
	return func(h string) bool {
		for _, s := range synonyms {
			if strings.Contains(h, s) {
				return true
			}
		}
		return false
	}
}

// Column is one entry of a declarative column table. Matchers are tried in
// order; an earlier matcher hitting any header wins over later ones.
type Column struct {
	Field    string
	Matchers []Matcher
}

// NormalizeHeader lower-cases a header and drops everything that is not a
// letter or digit, so "Date Set", "date_set" and "DateSet" compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchColumn returns the index of the first header matched by the column,
// honoring matcher priority.
func MatchColumn(headers []string, col Column) (int, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}
	for _, m := range col.Matchers {
		for i, h := range normalized {
			if h != "" && m(h) {
				return i, true
			}
		}
	}
	return -1, false
}

// Index maps every column of a table to its header position; absent columns
// map to -1.
type Index map[string]int

// BuildIndex resolves a whole column table against a header row.
func BuildIndex(headers []string, table []Column) Index {
	idx := make(Index, len(table))
	for _, col := range table {
		i, _ := MatchColumn(headers, col)
		idx[col.Field] = i
	}
	return idx
}

// Has reports whether the field was found in the header.
func (x Index) Has(field string) bool {
	i, ok := x[field]
	return ok && i >= 0
}

// Cell returns the trimmed value of field in row, or "" when absent.
func (x Index) Cell(row []string, field string) string {
	i, ok := x[field]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

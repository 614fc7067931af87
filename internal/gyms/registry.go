// Package gyms holds the gym registry: codes, location matching, week
// alignment, display settings, static wall dictionaries and canvas templates.
package gyms

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed gyms.yaml
var defaultYAML []byte

// WallDef is one entry of a gym's static wall dictionary.
type WallDef struct {
	Type      models.Discipline `yaml:"type" json:"type"`
	Steepness string            `yaml:"steepness,omitempty" json:"steepness,omitempty"`
	Display   string            `yaml:"display,omitempty" json:"display,omitempty"`
}

// Gym is one registered gym.
type Gym struct {
	Code        string             `yaml:"code" json:"code"`
	Name        string             `yaml:"name" json:"name"`
	Keywords    []string           `yaml:"keywords" json:"keywords,omitempty"`
	WeekStart   string             `yaml:"week_start" json:"week_start"`
	DisplayMode models.DisplayMode `yaml:"display_mode" json:"display_mode"`
	TypeDisplay models.TypeDisplay `yaml:"type_display" json:"type_display"`
	Walls       map[string]WallDef `yaml:"walls" json:"walls,omitempty"`
	Template    *Template          `yaml:"template,omitempty" json:"template,omitempty"`
}

type file struct {
	DefaultTemplate Template `yaml:"default_template"`
	Gyms            []Gym    `yaml:"gyms"`
}

// Registry is an immutable set of gyms keyed by upper-case code.
type Registry struct {
	gyms            map[string]*Gym
	order           []string
	defaultTemplate Template
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded gym registry: %v", err))
	}
	return r
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gym registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes a registry document and normalizes codes and wall keys.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing gym registry: %w", err)
	}
	r := &Registry{gyms: make(map[string]*Gym), defaultTemplate: f.DefaultTemplate}
	if r.defaultTemplate.Width == 0 {
		r.defaultTemplate = fallbackTemplate()
	}
	for i := range f.Gyms {
		g := f.Gyms[i]
		g.Code = strings.ToUpper(strings.TrimSpace(g.Code))
		if g.Code == "" {
			return nil, fmt.Errorf("gym %d: code is required", i)
		}
		if _, dup := r.gyms[g.Code]; dup {
			return nil, fmt.Errorf("gym %s: duplicate code", g.Code)
		}
		if _, err := parseWeekday(g.WeekStart); err != nil {
			return nil, fmt.Errorf("gym %s: %w", g.Code, err)
		}
		walls := make(map[string]WallDef, len(g.Walls))
		for name, def := range g.Walls {
			walls[WallKey(name)] = def
		}
		g.Walls = walls
		r.gyms[g.Code] = &g
		r.order = append(r.order, g.Code)
	}
	return r, nil
}

// WallKey is the canonical dictionary key for a wall name.
func WallKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Codes returns registered codes in registry order.
func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}

// Gym returns a registered gym by code.
func (r *Registry) Gym(code string) (*Gym, bool) {
	g, ok := r.gyms[strings.ToUpper(code)]
	return g, ok
}

// Name returns the gym's display name, or the code when unregistered.
func (r *Registry) Name(code string) string {
	if g, ok := r.Gym(code); ok && g.Name != "" {
		return g.Name
	}
	return code
}

// Lookup resolves a free-text location to a registered code. Exact codes win
// over a code appearing as a word, which wins over keyword substrings.
func (r *Registry) Lookup(location string) (string, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return "", false
	}
	for _, code := range r.order {
		if loc == strings.ToLower(code) {
			return code, true
		}
	}
	for _, code := range r.order {
		if HasWord(loc, strings.ToLower(code)) {
			return code, true
		}
	}
	for _, code := range r.order {
		for _, kw := range r.gyms[code].Keywords {
			if kw != "" && strings.Contains(loc, strings.ToLower(kw)) {
				return code, true
			}
		}
	}
	return "", false
}

// WeekStart returns the weekday a gym's schedule window begins on. Unknown
// gyms start on Sunday.
func (r *Registry) WeekStart(code string) time.Weekday {
	if g, ok := r.Gym(code); ok {
		wd, _ := parseWeekday(g.WeekStart)
		return wd
	}
	return time.Sunday
}

// DisplayMode returns the gym's printed row layout, defaulting to separate.
func (r *Registry) DisplayMode(code string) models.DisplayMode {
	if g, ok := r.Gym(code); ok && g.DisplayMode != "" {
		return g.DisplayMode
	}
	return models.DisplaySeparate
}

// TypeDisplay returns what the gym's climb-type column shows.
func (r *Registry) TypeDisplay(code string) models.TypeDisplay {
	if g, ok := r.Gym(code); ok && g.TypeDisplay != "" {
		return g.TypeDisplay
	}
	return models.TypeDisplayType
}

// Wall looks a wall up in a gym's static dictionary.
func (r *Registry) Wall(code, wall string) (WallDef, bool) {
	g, ok := r.Gym(code)
	if !ok {
		return WallDef{}, false
	}
	def, ok := g.Walls[WallKey(wall)]
	return def, ok
}

// WallNames returns a gym's dictionary keys sorted longest first.
func (r *Registry) WallNames(code string) []string {
	g, ok := r.Gym(code)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(g.Walls))
	for k := range g.Walls {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// SynthesizeCode builds a code for an unregistered location from its first
// three letters, appending a numeric suffix while taken reports a collision.
func SynthesizeCode(name string, taken func(string) bool) string {
	var letters []rune
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			letters = append(letters, c)
			if len(letters) == 3 {
				break
			}
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	base := strings.ToUpper(string(letters))
	if taken == nil || !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		code := fmt.Sprintf("%s%d", base, n)
		if !taken(code) {
			return code
		}
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	}
	return time.Sunday, fmt.Errorf("week_start must be sunday or monday, got %q", s)
}

// HasWord reports whether word occurs in s bounded by non-word characters,
// the way a regexp \b match would.
func HasWord(s, word string) bool {
	return len(wordSpans(s, word)) > 0
}

// ReplaceWord replaces every bounded occurrence of word in s with repl.
func ReplaceWord(s, word, repl string) string {
	spans := wordSpans(s, word)
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, at := range spans {
		b.WriteString(s[last:at])
		b.WriteString(repl)
		last = at + len(word)
	}
	b.WriteString(s[last:])
	return b.String()
}

func wordSpans(s, word string) []int {
	if word == "" {
		return nil
	}
	var spans []int
	for from := 0; from <= len(s)-len(word); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			break
		}
		at := from + i
		end := at + len(word)
		if (at == 0 || !isWordByte(s[at-1])) && (end == len(s) || !isWordByte(s[end])) {
			spans = append(spans, at)
			from = end
			continue
		}
		from = at + 1
	}
	return spans
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

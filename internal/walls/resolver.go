// Package walls turns free-text shift titles into canonical wall tokens and a
// rope/boulder/ignored classification, collecting unseen labels for mapping.
package walls

import (
	"regexp"
	"strings"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/models"
)

// DefaultDiscipline is assigned when no resolved wall carries a type. Most
// shifts at the registered gyms are boulder sets, and targets assume it.
const DefaultDiscipline = models.Boulder

var (
	orgPrefixes = []string{"jcca - ", "setting - ", "set - "}
	splitRe     = regexp.MustCompile(`[,/\s+]+`)
	hints       = map[string]models.Discipline{
		"ropes":    models.Rope,
		"routes":   models.Rope,
		"boulders": models.Boulder,
	}
)

// Resolution is the outcome of resolving one title.
type Resolution struct {
	Walls []string
	Type  models.Discipline
	// Hint is set when a literal "ropes"/"boulders" token decided the type.
	Hint bool
	// Unrecognized holds the cleaned title when nothing resolved.
	Unrecognized string
}

// Resolver resolves titles against a gym registry and learned mappings. It
// never mutates either, so repeated calls with the same inputs agree.
type Resolver struct {
	registry *gyms.Registry
	mappings Mappings
}

// NewResolver creates a resolver. A nil mappings table is treated as empty.
func NewResolver(registry *gyms.Registry, mappings Mappings) *Resolver {
	return &Resolver{registry: registry, mappings: mappings}
}

// Tokens expands ranges, strips organizational noise and the gym code, and
// splits what is left into lower-case tokens.
func Tokens(gym, title string) []string {
	s := strings.ToLower(ExpandRanges(title))
	for _, p := range orgPrefixes {
		s = strings.ReplaceAll(s, p, " ")
	}
	if gym != "" {
		s = gyms.ReplaceWord(s, strings.ToLower(gym), " ")
	}
	s = strings.ReplaceAll(s, ".", "")

	var out []string
	for _, tok := range splitRe.Split(s, -1) {
		if strings.Trim(tok, "-") == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Resolve segments a title into walls and classifies it.
func (r *Resolver) Resolve(gym, title string) Resolution {
	tokens := Tokens(gym, title)
	if len(tokens) == 0 {
		return r.resolveBare(gym, title)
	}

	var found []string
	var buf []string
	for _, tok := range tokens {
		buf = append(buf, tok)
		if cand := strings.Join(buf, " "); r.known(gym, cand) {
			found = append(found, cand)
			buf = nil
		}
	}
	for _, tok := range buf {
		if r.known(gym, tok) {
			found = append(found, tok)
		}
	}
	found = dedupe(found)

	if len(found) == 0 {
		res := Resolution{Walls: []string{strings.TrimSpace(title)}, Type: DefaultDiscipline}
		res.Unrecognized = strings.Join(tokens, " ")
		return res
	}
	res := Resolution{Walls: found}
	res.Type, res.Hint = r.classify(gym, found)
	return res
}

// resolveBare handles a title that is nothing but noise, such as "JCCA - DSN".
// The whole title is the label, so it can still be mapped by hand.
func (r *Resolver) resolveBare(gym, title string) Resolution {
	label := NormalizeLabel(title)
	if d, ok := r.mappings.Lookup(gym, label); ok {
		return Resolution{Walls: []string{label}, Type: d}
	}
	return Resolution{Walls: []string{strings.TrimSpace(title)}, Type: DefaultDiscipline, Unrecognized: label}
}

// Type returns the classification of an already-resolved wall list.
func (r *Resolver) Type(gym string, walls []string) models.Discipline {
	d, _ := r.classify(gym, walls)
	return d
}

func (r *Resolver) classify(gym string, walls []string) (models.Discipline, bool) {
	for _, w := range walls {
		if d, ok := hints[w]; ok {
			return d, true
		}
	}
	for _, w := range walls {
		if def, ok := r.registry.Wall(gym, w); ok && def.Type != "" {
			return def.Type, false
		}
		if d, ok := r.mappings.Lookup(gym, w); ok {
			return d, false
		}
	}
	return DefaultDiscipline, false
}

func (r *Resolver) known(gym, cand string) bool {
	if _, ok := hints[cand]; ok {
		return true
	}
	if _, ok := r.registry.Wall(gym, cand); ok {
		return true
	}
	_, ok := r.mappings.Lookup(gym, cand)
	return ok
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

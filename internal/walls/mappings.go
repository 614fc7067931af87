package walls

import (
	"strings"

	"github.com/claude/setops/internal/models"
)

// Mapping is a learned classification for one wall label.
type Mapping struct {
	Type models.Discipline `json:"type"`
}

// Mappings holds learned labels per gym: gym -> label -> mapping. Labels are
// stored in NormalizeLabel form.
type Mappings map[string]map[string]Mapping

// NormalizeLabel lower-cases a label and collapses its whitespace.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Lookup returns the learned type of a label at a gym.
func (m Mappings) Lookup(gym, label string) (models.Discipline, bool) {
	byLabel, ok := m[strings.ToUpper(gym)]
	if !ok {
		return "", false
	}
	mp, ok := byLabel[NormalizeLabel(label)]
	return mp.Type, ok
}

// Set records a learned type, creating the gym's table if needed.
func (m Mappings) Set(gym, label string, d models.Discipline) {
	gym = strings.ToUpper(gym)
	if m[gym] == nil {
		m[gym] = make(map[string]Mapping)
	}
	m[gym][NormalizeLabel(label)] = Mapping{Type: d}
}

// Clone returns a deep copy.
func (m Mappings) Clone() Mappings {
	out := make(Mappings, len(m))
	for gym, byLabel := range m {
		cp := make(map[string]Mapping, len(byLabel))
		for k, v := range byLabel {
			cp[k] = v
		}
		out[gym] = cp
	}
	return out
}

package render

import (
	"fmt"
	"strings"

	"github.com/claude/setops/internal/models"
)

// Overrides maps "gym-isoDate-dataType-field" to a literal cell value.
type Overrides map[string]string

// OverrideKey builds the key for one cell on one calendar date.
func OverrideKey(gym, isoDate string, dt models.DataType, f models.Field) string {
	return fmt.Sprintf("%s-%s-%s-%s", strings.ToUpper(gym), isoDate, dt, f)
}

// Get returns the override for a cell.
func (o Overrides) Get(gym, isoDate string, dt models.DataType, f models.Field) (string, bool) {
	v, ok := o[OverrideKey(gym, isoDate, dt, f)]
	return v, ok
}

// Set stores an override.
func (o Overrides) Set(gym, isoDate string, dt models.DataType, f models.Field, value string) {
	o[OverrideKey(gym, isoDate, dt, f)] = value
}

// Delete removes an override.
func (o Overrides) Delete(gym, isoDate string, dt models.DataType, f models.Field) {
	delete(o, OverrideKey(gym, isoDate, dt, f))
}

// ClearGym removes every override for one gym and returns how many went.
func (o Overrides) ClearGym(gym string) int {
	prefix := strings.ToUpper(gym) + "-"
	n := 0
	for k := range o {
		if strings.HasPrefix(k, prefix) {
			delete(o, k)
			n++
		}
	}
	return n
}

// Clone returns a copy.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

package render

import (
	"strings"
	"unicode"

	"github.com/claude/setops/internal/gyms"
)

// DisplayNames maps gym -> wall key -> printed name.
type DisplayNames map[string]map[string]string

// WallInfo supplies printed names and steepness for walls.
type WallInfo interface {
	Display(gym, wall string) string
	Steepness(gym, wall string) string
}

// RegistryWalls answers WallInfo from the gym registry, with user display
// names taking precedence over dictionary names.
type RegistryWalls struct {
	Registry *gyms.Registry
	Names    DisplayNames
}

// Display returns the printed name for a wall.
func (r RegistryWalls) Display(gym, wall string) string {
	if n, ok := r.Names[strings.ToUpper(gym)][gyms.WallKey(wall)]; ok && n != "" {
		return n
	}
	if r.Registry != nil {
		if def, ok := r.Registry.Wall(gym, wall); ok && def.Display != "" {
			return def.Display
		}
	}
	return Capitalize(wall)
}

// Steepness returns the wall's configured steepness, or "".
func (r RegistryWalls) Steepness(gym, wall string) string {
	if r.Registry == nil {
		return ""
	}
	def, _ := r.Registry.Wall(gym, wall)
	return def.Steepness
}

// Capitalize upper-cases the first letter of every word.
func Capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Package grade normalizes raw boulder and rope grade tokens into canonical
// keys and a sortable numeric score.
package grade

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	BoulderIntro = "V-Intro"
	RopeIntro    = "5.Intro"
)

// Score bases. Every boulder score is below ropeBase so the two scales never
// interleave.
const (
	boulderIntroScore = -1
	ropeBase          = 200
	ropeIntroScore    = ropeBase + 5
)

var (
	firstIntRe = regexp.MustCompile(`\d+`)
	ropeBodyRe = regexp.MustCompile(`^(\d+)([a-d])?`)
	boulderKey = regexp.MustCompile(`^V(\d+)$`)
	ropeKey    = regexp.MustCompile(`^5\.(\d+)([a-d])?$`)
)

var suffixIncrement = map[string]float64{"": 0, "a": 0.2, "b": 0.4, "c": 0.6, "d": 0.8}

// Vocabulary returns the canonical grade keys in ascending difficulty order,
// boulder grades first.
func Vocabulary() []string {
	keys := []string{BoulderIntro}
	for i := 0; i <= 12; i++ {
		keys = append(keys, "V"+strconv.Itoa(i))
	}
	keys = append(keys, RopeIntro, "5.6", "5.7", "5.8", "5.9")
	for n := 10; n <= 13; n++ {
		for _, s := range []string{"a", "b", "c", "d"} {
			keys = append(keys, "5."+strconv.Itoa(n)+s)
		}
	}
	return keys
}

// Normalize maps a raw grade token ("V4", "5.10", "10b", "Vintro") to its
// canonical key. Tokens that cannot be read as either scale are returned
// unchanged.
func Normalize(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return raw
	}

	if strings.Contains(lower, "intro") {
		if strings.HasPrefix(lower, "v") {
			return BoulderIntro
		}
		return RopeIntro
	}

	if strings.HasPrefix(lower, "v") {
		m := firstIntRe.FindString(lower[1:])
		if m == "" {
			return BoulderIntro
		}
		n, _ := strconv.Atoi(m)
		return "V" + strconv.Itoa(n)
	}

	m := ropeBodyRe.FindStringSubmatch(strings.TrimPrefix(lower, "5."))
	if m == nil {
		return raw
	}
	n, _ := strconv.Atoi(m[1])
	if n < 10 {
		return "5." + strconv.Itoa(n)
	}
	suffix := m[2]
	if suffix == "" {
		suffix = "a"
	}
	return "5." + strconv.Itoa(n) + suffix
}

// Score returns the sort key for a canonical grade key. The second result is
// false for keys outside both scales.
func Score(key string) (float64, bool) {
	switch key {
	case BoulderIntro:
		return boulderIntroScore, true
	case RopeIntro:
		return ropeIntroScore, true
	}
	if m := boulderKey.FindStringSubmatch(key); m != nil {
		n, _ := strconv.Atoi(m[1])
		return float64(n), true
	}
	if m := ropeKey.FindStringSubmatch(key); m != nil {
		n, _ := strconv.Atoi(m[1])
		return float64(ropeBase+n) + suffixIncrement[m[2]], true
	}
	return 0, false
}

// IsRope reports whether a canonical key belongs to the rope scale.
func IsRope(key string) bool {
	return strings.HasPrefix(key, "5.")
}

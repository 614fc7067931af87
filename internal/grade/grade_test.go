package grade

import (
	"math"
	"testing"
)

// TestNormalize covers both scales, intro spellings, default rope suffixes and
// the pass-through fallback for unreadable tokens.
func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"V4", "V4"},
		{"v04", "V4"},
		{"V10+", "V10"},
		{"VB", BoulderIntro},
		{"Vintro", BoulderIntro},
		{"V-Intro", BoulderIntro},
		{"5.Intro", RopeIntro},
		{"intro", RopeIntro},
		{"5.9", "5.9"},
		{"5.10", "5.10a"},
		{"5.10+", "5.10a"},
		{"5.11c", "5.11c"},
		{"12d", "5.12d"},
		{"5.12C", "5.12c"},
		{" 5.7 ", "5.7"},
		{"Unrated", "Unrated"},
		{"Project", "Project"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestScoreMonotonic verifies the vocabulary scores strictly increase within
// each scale and that every boulder score sits below every rope score.
func TestScoreMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	maxBoulder := math.Inf(-1)
	minRope := math.Inf(1)
	for _, key := range Vocabulary() {
		score, ok := Score(Normalize(key))
		if !ok {
			t.Fatalf("Score(%q) not recognized", key)
		}
		if score <= prev {
			t.Errorf("Score(%q) = %v, not greater than previous %v", key, score, prev)
		}
		prev = score
		if IsRope(key) {
			minRope = math.Min(minRope, score)
		} else {
			maxBoulder = math.Max(maxBoulder, score)
		}
	}
	if maxBoulder >= minRope {
		t.Errorf("max boulder score %v >= min rope score %v", maxBoulder, minRope)
	}
}

// TestScoreSuffix pins the fractional suffix increments.
func TestScoreSuffix(t *testing.T) {
	cases := map[string]float64{
		"5.12c": 212.6,
		"5.10a": 210.2,
		"5.13d": 213.8,
		"5.9":   209,
		"V0":    0,
	}
	for key, want := range cases {
		got, _ := Score(key)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Score(%q) = %v, want %v", key, got, want)
		}
	}
	if _, ok := Score("Unrated"); ok {
		t.Error("Score(Unrated) should not be recognized")
	}
}

package walls

import (
	"testing"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/models"
	"github.com/google/go-cmp/cmp"
)

// TestExpandRanges covers prefixed, bare, reversed and mismatched ranges.
func TestExpandRanges(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a1-a4", "a1, a2, a3, a4"},
		{"a4-a1", "a1, a2, a3, a4"},
		{"A1-4", "A1, A2, A3, A4"},
		{"a1 - a3 / b2", "a1, a2, a3 / b2"},
		{"a1-b4", "a1-b4"},
		{"a1-a999", "a1-a999"},
		{"sandy beaches", "sandy beaches"},
	}
	for _, tt := range tests {
		if got := ExpandRanges(tt.in); got != tt.want {
			t.Errorf("ExpandRanges(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestTokens verifies noise stripping and splitting.
func TestTokens(t *testing.T) {
	got := Tokens("DSN", "JCCA - DSN A1-A2 / Sandy Beaches + B3.")
	want := []string{"a1", "a2", "sandy", "beaches", "b3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

// TestResolveDictionary resolves single and multi-word walls against the
// static dictionary and classifies by the first known wall.
func TestResolveDictionary(t *testing.T) {
	r := NewResolver(gyms.Default(), nil)
	res := r.Resolve("DSN", "Setting - Sandy Beaches, B1-B2, sandy beaches")
	want := []string{"sandy beaches", "b1", "b2"}
	if diff := cmp.Diff(want, res.Walls); diff != "" {
		t.Errorf("walls mismatch (-want +got):\n%s", diff)
	}
	if res.Type != models.Boulder || res.Unrecognized != "" {
		t.Errorf("res = %+v, want boulder with nothing unrecognized", res)
	}

	res = r.Resolve("DSN", "JCCA - A1-A4 / B2")
	if res.Type != models.Rope {
		t.Errorf("type = %q, want rope", res.Type)
	}
	if len(res.Walls) != 5 {
		t.Errorf("walls = %v, want 5", res.Walls)
	}
}

// TestResolveLeftoverTokens verifies that unknown leading words do not block
// later walls.
func TestResolveLeftoverTokens(t *testing.T) {
	r := NewResolver(gyms.Default(), nil)
	res := r.Resolve("PLN", "reset C1 and C2")
	if diff := cmp.Diff([]string{"c1", "c2"}, res.Walls); diff != "" {
		t.Errorf("walls mismatch (-want +got):\n%s", diff)
	}
}

// TestResolveHints verifies literal discipline tokens short-circuit the type.
func TestResolveHints(t *testing.T) {
	r := NewResolver(gyms.Default(), nil)
	res := r.Resolve("XYZ", "Ropes")
	if res.Type != models.Rope || !res.Hint {
		t.Errorf("res = %+v, want rope hint", res)
	}
	res = r.Resolve("DSN", "A1 boulders")
	if res.Type != models.Boulder {
		t.Errorf("type = %q, want boulder from hint", res.Type)
	}
}

// TestResolveUnrecognized verifies the fallback pseudo-wall and the learning
// loop: once mapped, the same title resolves without being flagged.
func TestResolveUnrecognized(t *testing.T) {
	reg := gyms.Default()
	title := "JCCA - Zorp Flange"
	res := NewResolver(reg, nil).Resolve("GVN", title)
	if diff := cmp.Diff([]string{title}, res.Walls); diff != "" {
		t.Errorf("walls mismatch (-want +got):\n%s", diff)
	}
	if res.Unrecognized != "zorp flange" {
		t.Errorf("unrecognized = %q, want %q", res.Unrecognized, "zorp flange")
	}
	if res.Type != DefaultDiscipline {
		t.Errorf("type = %q, want default", res.Type)
	}

	m := Mappings{}
	m.Set("gvn", "Zorp  Flange", models.Rope)
	res = NewResolver(reg, m).Resolve("GVN", title)
	if res.Unrecognized != "" || res.Type != models.Rope {
		t.Errorf("after mapping res = %+v, want rope and recognized", res)
	}
}

// TestResolveNoiseOnlyTitle verifies a title with nothing but prefixes and
// the gym code is still flagged, and resolves once mapped.
func TestResolveNoiseOnlyTitle(t *testing.T) {
	reg := gyms.Default()
	res := NewResolver(reg, nil).Resolve("DSN", "JCCA - DSN")
	if res.Unrecognized != "jcca - dsn" {
		t.Errorf("unrecognized = %q, want %q", res.Unrecognized, "jcca - dsn")
	}
	if res.Type != DefaultDiscipline {
		t.Errorf("type = %q, want default", res.Type)
	}

	m := Mappings{}
	m.Set("DSN", "JCCA - DSN", models.Ignored)
	res = NewResolver(reg, m).Resolve("DSN", "JCCA  - DSN")
	if res.Unrecognized != "" || res.Type != models.Ignored {
		t.Errorf("after mapping res = %+v, want ignored and recognized", res)
	}
}

// TestStaticWinsOverMapping verifies a learned mapping cannot reclassify a
// wall the dictionary already defines.
func TestStaticWinsOverMapping(t *testing.T) {
	m := Mappings{}
	m.Set("DSN", "a1", models.Boulder)
	r := NewResolver(gyms.Default(), m)
	if got := r.Resolve("DSN", "A1").Type; got != models.Rope {
		t.Errorf("type = %q, want rope", got)
	}
}

// TestResolveIdempotent verifies repeated resolution yields the same result.
func TestResolveIdempotent(t *testing.T) {
	r := NewResolver(gyms.Default(), nil)
	a := r.Resolve("DSN", "A1-A3 / the cave / mystery")
	b := r.Resolve("DSN", "A1-A3 / the cave / mystery")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second resolve differs (-first +second):\n%s", diff)
	}
}

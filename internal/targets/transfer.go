package targets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidImport is returned when pasted or fetched data is not a target
// export.
var ErrInvalidImport = errors.New("invalid target import")

// maxFetchBytes bounds a remote sync body.
const maxFetchBytes = 10 << 20

// Bundle is the combined export of wall and orbit targets.
type Bundle struct {
	WallTargets  WallMap  `json:"wall_targets,omitempty"`
	OrbitTargets OrbitMap `json:"orbit_targets,omitempty"`
}

// ExportWalls encodes {gym: {wall: target}}.
func (s *Store) ExportWalls() ([]byte, error) {
	return json.MarshalIndent(s.walls, "", "  ")
}

// ExportOrbits encodes {gym: [orbit]}.
func (s *Store) ExportOrbits() ([]byte, error) {
	return json.MarshalIndent(s.orbits, "", "  ")
}

// ExportAll encodes both maps in one document.
func (s *Store) ExportAll() ([]byte, error) {
	return json.MarshalIndent(Bundle{WallTargets: s.walls, OrbitTargets: s.orbits}, "", "  ")
}

// Decode reads a combined export, a wall-only export or an orbit-only export.
// Nothing is applied; the caller swaps the result in on success.
func Decode(data []byte) (Bundle, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	_, hasWalls := probe["wall_targets"]
	_, hasOrbits := probe["orbit_targets"]
	if hasWalls || hasOrbits {
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return b, nil
	}

	var walls WallMap
	if err := json.Unmarshal(data, &walls); err == nil && looksLikeWalls(walls) {
		return Bundle{WallTargets: walls}, nil
	}
	var orbits OrbitMap
	if err := json.Unmarshal(data, &orbits); err == nil && looksLikeOrbits(orbits) {
		return Bundle{OrbitTargets: orbits}, nil
	}
	return Bundle{}, fmt.Errorf("%w: unrecognized document", ErrInvalidImport)
}

// Apply replaces the store's maps with whatever the bundle carries.
func (s *Store) Apply(b Bundle) {
	if b.WallTargets != nil {
		s.walls = normalizeWalls(b.WallTargets)
	}
	if b.OrbitTargets != nil {
		orbits := make(OrbitMap, len(b.OrbitTargets))
		for gym, list := range b.OrbitTargets {
			orbits[strings.ToUpper(gym)] = list
		}
		s.orbits = orbits
	}
}

// Import decodes data and applies it. The store is unchanged on error.
func (s *Store) Import(data []byte) error {
	b, err := Decode(data)
	if err != nil {
		return err
	}
	s.Apply(b)
	return nil
}

// Fetch downloads and decodes a target export. It never touches a store.
func Fetch(ctx context.Context, client *http.Client, url string) (Bundle, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Bundle{}, fmt.Errorf("building sync request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Bundle{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Bundle{}, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Bundle{}, fmt.Errorf("reading sync body: %w", err)
	}
	return Decode(data)
}

func normalizeWalls(in WallMap) WallMap {
	out := make(WallMap, len(in))
	for gym, byKey := range in {
		m := make(map[string]WallTarget, len(byKey))
		for k, t := range byKey {
			if t.Wall == "" {
				t.Wall = k
			}
			m[Key(k)] = t
		}
		out[strings.ToUpper(gym)] = m
	}
	return out
}

func looksLikeWalls(m WallMap) bool {
	if len(m) == 0 {
		return false
	}
	for _, byKey := range m {
		for _, t := range byKey {
			if t.Type == "" && t.TargetVolume == 0 && t.TargetEfficiency == 0 && t.Wall == "" {
				return false
			}
		}
	}
	return true
}

func looksLikeOrbits(m OrbitMap) bool {
	if len(m) == 0 {
		return false
	}
	for _, list := range m {
		for _, o := range list {
			if o.Name == "" {
				return false
			}
		}
	}
	return true
}

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/storage"
	"github.com/claude/setops/internal/targets"
	"github.com/claude/setops/internal/walls"
)

// Persisted state keys. Each slice is stored whole under its own key.
const (
	KeyEmailSettings     = "email_settings"
	KeyBaselines         = "baselines"
	KeyWallMappings      = "wall_mappings"
	KeyGymSettings       = "gym_settings"
	KeyDisplayNames      = "display_names"
	KeyScheduleOverrides = "schedule_overrides"
	KeyWallTargets       = "wall_targets"
	KeyOrbitTargets      = "orbit_targets"
	KeyFinancialRecords  = "financial_records"
	KeySyncURL           = "sync_url"
)

// Keys lists every persisted key.
var Keys = []string{
	KeyEmailSettings, KeyBaselines, KeyWallMappings, KeyGymSettings, KeyDisplayNames,
	KeyScheduleOverrides, KeyWallTargets, KeyOrbitTargets, KeyFinancialRecords, KeySyncURL,
}

// ErrNoStore is returned by Save and Load on an App without storage.
var ErrNoStore = errors.New("no storage configured")

// Save writes every persisted slice in one atomic batch.
func (a *App) Save(ctx context.Context) error {
	if a.store == nil {
		return ErrNoStore
	}
	a.mu.RLock()
	values := map[string]any{
		KeyEmailSettings:     a.email,
		KeyBaselines:         a.baselines,
		KeyWallMappings:      a.mappings,
		KeyGymSettings:       a.gymSettings,
		KeyDisplayNames:      a.displayNames,
		KeyScheduleOverrides: a.overrides,
		KeyWallTargets:       a.targets.Walls(),
		KeyOrbitTargets:      a.targets.OrbitTargets(),
		KeyFinancialRecords:  a.financials,
		KeySyncURL:           a.syncURL,
	}
	entries := make(map[string][]byte, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			a.mu.RUnlock()
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		entries[k] = data
	}
	a.mu.RUnlock()

	if err := a.store.PutMany(ctx, entries); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	a.log.Info("state saved", "keys", len(entries))
	return nil
}

// Load replaces persisted slices with stored values merged over the built-in
// defaults. Missing keys keep their defaults. A value that cannot be decoded
// is logged and skipped; only a storage failure returns an error.
func (a *App) Load(ctx context.Context) error {
	if a.store == nil {
		return ErrNoStore
	}
	raw := make(map[string][]byte, len(Keys))
	for _, k := range Keys {
		data, err := a.store.Get(ctx, k)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", k, err)
		}
		raw[k] = data
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetPersisted()

	decode := func(key string, v any) bool {
		data, ok := raw[key]
		if !ok {
			return false
		}
		if err := json.Unmarshal(data, v); err != nil {
			a.log.Warn("ignoring unreadable state", "key", key, "error", err)
			return false
		}
		return true
	}

	var email EmailSettings
	if decode(KeyEmailSettings, &email) {
		if email.Subject == "" {
			email.Subject = a.email.Subject
		}
		a.email = email
	}

	var baselines map[string]analysis.Baseline
	if decode(KeyBaselines, &baselines) {
		for k, b := range baselines {
			a.baselines[strings.ToUpper(k)] = b
		}
	}

	var mappings walls.Mappings
	if decode(KeyWallMappings, &mappings) {
		for gym, byLabel := range mappings {
			for label, m := range byLabel {
				d, err := models.ParseDiscipline(string(m.Type))
				if err != nil {
					a.log.Warn("ignoring wall mapping", "gym", gym, "label", label, "type", m.Type)
					continue
				}
				a.mappings.Set(gym, label, d)
			}
		}
	}

	var settings map[string]render.Settings
	if decode(KeyGymSettings, &settings) {
		for gym, s := range settings {
			a.gymSettings[strings.ToUpper(gym)] = s
		}
	}

	var names render.DisplayNames
	if decode(KeyDisplayNames, &names) {
		for gym, m := range names {
			a.displayNames[strings.ToUpper(gym)] = m
		}
	}

	var overrides render.Overrides
	if decode(KeyScheduleOverrides, &overrides) && overrides != nil {
		a.overrides = overrides
	}

	var wallTargets targets.WallMap
	var orbitTargets targets.OrbitMap
	hasWalls := decode(KeyWallTargets, &wallTargets)
	hasOrbits := decode(KeyOrbitTargets, &orbitTargets)
	if hasWalls || hasOrbits {
		a.targets.Apply(targets.Bundle{WallTargets: wallTargets, OrbitTargets: orbitTargets})
	}

	var financials []models.FinancialRecord
	if decode(KeyFinancialRecords, &financials) {
		a.financials = financials
	}

	var syncURL string
	if decode(KeySyncURL, &syncURL) {
		a.syncURL = syncURL
	}

	a.log.Info("state loaded", "keys", len(raw))
	return nil
}

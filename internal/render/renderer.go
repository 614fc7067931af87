package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/models"
	"golang.org/x/sync/errgroup"
)

// Image is one rendered PNG page.
type Image struct {
	Gym  string `json:"gym"`
	Name string `json:"name"`
	Page int    `json:"page"`
	PNG  []byte `json:"-"`
}

// Input is what a render run needs beyond the schedules themselves.
type Input struct {
	Overrides Overrides
	Names     DisplayNames
	// Settings overrides the registry's display settings per gym.
	Settings map[string]Settings
}

// Renderer turns schedules into PNG pages.
type Renderer struct {
	registry    *gyms.Registry
	backgrounds *Backgrounds
	log         *slog.Logger
}

// New creates a renderer. A nil backgrounds value always paints the
// generated header.
func New(registry *gyms.Registry, backgrounds *Backgrounds, log *slog.Logger) *Renderer {
	return &Renderer{registry: registry, backgrounds: backgrounds, log: log}
}

// SettingsFor returns the effective display settings for a gym.
func (r *Renderer) SettingsFor(gym string, in Input) Settings {
	if s, ok := in.Settings[gym]; ok && s.Mode != "" {
		if s.TypeDisplay == "" {
			s.TypeDisplay = r.registry.TypeDisplay(gym)
		}
		return s
	}
	return Settings{Mode: r.registry.DisplayMode(gym), TypeDisplay: r.registry.TypeDisplay(gym)}
}

// Pages lays out one schedule.
func (r *Renderer) Pages(s *models.GymSchedule, in Input) []Page {
	info := RegistryWalls{Registry: r.registry, Names: in.Names}
	return Layout(s, r.registry.Template(s.Gym), r.SettingsFor(s.Gym, in), in.Overrides, info, r.registry.Name(s.Gym))
}

// FileName is the output name of a page: {dateRange}_{gym}_map_{index}.png.
func FileName(s *models.GymSchedule, index int) string {
	return fmt.Sprintf("%s_%s_map_%d.png", s.FileDateRange, s.Gym, index)
}

// Render paints every page of one schedule. Pages are numbered from 1.
func (r *Renderer) Render(ctx context.Context, s *models.GymSchedule, in Input) ([]Image, error) {
	var out []Image
	for i, p := range r.Pages(s, in) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bg, name, err := r.backgrounds.Load(ctx, s.Gym, backgroundType(p))
		if err != nil && !errors.Is(err, ErrNoBackground) {
			return nil, err
		}
		if err != nil {
			r.log.Debug("using generated header", "gym", s.Gym, "page", i+1)
		} else {
			r.log.Debug("loaded background", "gym", s.Gym, "file", name)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, Paint(p, bg)); err != nil {
			return nil, fmt.Errorf("encoding %s page %d: %w", s.Gym, i+1, err)
		}
		out = append(out, Image{Gym: s.Gym, Name: FileName(s, i+1), Page: i + 1, PNG: buf.Bytes()})
	}
	return out, nil
}

// RenderAll renders every gym concurrently and returns the pages sorted by
// file name once all have finished.
func (r *Renderer) RenderAll(ctx context.Context, schedules map[string]*models.GymSchedule, in Input) ([]Image, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([][]Image, 0, len(schedules))
	slots := make(map[string]int, len(schedules))
	for code := range schedules {
		slots[code] = len(results)
		results = append(results, nil)
	}
	for code, s := range schedules {
		slot := slots[code]
		g.Go(func() error {
			imgs, err := r.Render(ctx, s, in)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", code, err)
			}
			results[slot] = imgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Image
	for _, imgs := range results {
		all = append(all, imgs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// WriteFiles writes rendered pages into dir.
func WriteFiles(dir string, imgs []Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	for _, img := range imgs {
		if err := os.WriteFile(filepath.Join(dir, img.Name), img.PNG, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", img.Name, err)
		}
	}
	return nil
}

func backgroundType(p Page) models.DataType {
	if p.Merged {
		return MergedDataType
	}
	return p.DataType
}

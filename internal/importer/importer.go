// Package importer parses a batch of uploaded exports concurrently and merges
// the results. A file that fails to parse is reported and skipped; it never
// stops the rest of the batch.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/ingest"
	"github.com/claude/setops/internal/ingest/payroll"
	"github.com/claude/setops/internal/ingest/performance"
	"github.com/claude/setops/internal/ingest/schedule"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/walls"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// File is one uploaded export.
type File struct {
	Name string
	// Gym labels the climbs of a performance export. Empty infers the gym
	// from the file name.
	Gym  string
	Data []byte
}

// Options configures parsing.
type Options struct {
	Registry *gyms.Registry
	Mappings walls.Mappings
	Now      func() time.Time
	// Concurrency bounds parallel parses. Zero uses GOMAXPROCS.
	Concurrency int
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int               `json:"files_processed"`
	FilesErrored   int               `json:"files_errored"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// Batch is the merged outcome of one import.
type Batch struct {
	ID           string                         `json:"id"`
	Climbs       map[string][]models.Climb      `json:"-"`
	Financials   []models.FinancialRecord       `json:"financials"`
	Schedules    map[string]*models.GymSchedule `json:"schedules"`
	Unrecognized map[string][]string            `json:"unrecognized"`
	NewGyms      map[string]string              `json:"new_gyms"`
	Results      []ingest.Result                `json:"results"`
	// ScheduleSources maps each scheduled gym to the file it came from, so a
	// gym can be rebuilt after a wall mapping is learned.
	ScheduleSources map[string]File `json:"-"`
	Stats
}

// ClimbCount is the number of climbs across all gyms.
func (b *Batch) ClimbCount() int {
	n := 0
	for _, list := range b.Climbs {
		n += len(list)
	}
	return n
}

// Importer parses batches of exports.
type Importer struct {
	opts Options
	log  *slog.Logger
}

// New creates a new Importer.
func New(opts Options, log *slog.Logger) *Importer {
	if opts.Registry == nil {
		opts.Registry = gyms.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{opts: opts, log: log}
}

type outcome struct {
	result     ingest.Result
	climbs     []models.Climb
	financials []models.FinancialRecord
	schedule   *schedule.Output
	err        error
}

// Import parses every file concurrently, then merges the outcomes in input
// order. Only context cancellation returns an error.
func (imp *Importer) Import(ctx context.Context, files []File) (*Batch, error) {
	files, err := Expand(files)
	if err != nil {
		return nil, err
	}

	limit := imp.opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	outs := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outs[i] = imp.parse(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("importing batch: %w", err)
	}

	b := &Batch{
		ID:           uuid.NewString(),
		Climbs:       make(map[string][]models.Climb),
		Schedules:    make(map[string]*models.GymSchedule),
		Unrecognized: make(map[string][]string),
		NewGyms:      make(map[string]string),
		Stats:        Stats{Errors: make(map[string]string)},

		ScheduleSources: make(map[string]File),
	}
	for i, o := range outs {
		imp.merge(b, files[i], o)
	}
	return b, nil
}

// ImportDir imports every supported file directly under dir.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (*Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	files, err := ReadFiles(paths)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, files)
}

// ReadFiles loads paths from disk.
func ReadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func (imp *Importer) parse(f File) outcome {
	o := outcome{result: ingest.Result{File: f.Name}}

	if strings.EqualFold(path.Ext(f.Name), ".xlsx") {
		o.result.Format = ingest.FormatPayroll
		o.financials, o.err = payroll.ParseXLSX(bytes.NewReader(f.Data), imp.opts.Registry)
		o.result.RowsReceived = len(o.financials)
		o.result.RowsAccepted = len(o.financials)
		o.result.FinancialParsed = len(o.financials)
		return o
	}

	o.result.Format = ingest.Sniff(ingest.FirstLine(f.Data))
	switch o.result.Format {
	case ingest.FormatSchedule:
		out, err := schedule.Parse(bytes.NewReader(f.Data), schedule.Options{
			Registry: imp.opts.Registry,
			Mappings: imp.opts.Mappings,
		})
		if err != nil {
			o.err = err
			return o
		}
		o.schedule = out
		o.result.RowsReceived = out.RowsReceived
		o.result.RowsAccepted = out.RowsAccepted
		o.result.GymsScheduled = len(out.Schedules)
		o.result.Unrecognized = out.Unrecognized
		o.result.NewGyms = out.NewGyms

	case ingest.FormatPayroll:
		o.financials, o.err = payroll.Parse(bytes.NewReader(f.Data), imp.opts.Registry)
		o.result.RowsAccepted = len(o.financials)
		o.result.FinancialParsed = len(o.financials)

	default:
		o.climbs, o.err = performance.Parse(bytes.NewReader(f.Data), performance.Options{
			Gym:      imp.gymLabel(f),
			Registry: imp.opts.Registry,
			Now:      imp.opts.Now,
		})
		o.result.RowsReceived = len(o.climbs)
		o.result.RowsAccepted = len(o.climbs)
		o.result.ClimbsParsed = len(o.climbs)
	}
	return o
}

var nonLetters = regexp.MustCompile(`[^a-zA-Z]+`)

// gymLabel returns the file's gym label, or a registered gym named in its
// file name.
func (imp *Importer) gymLabel(f File) string {
	if f.Gym != "" {
		return f.Gym
	}
	base := strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
	words := nonLetters.ReplaceAllString(base, " ")
	if code, ok := imp.opts.Registry.Lookup(words); ok {
		return code
	}
	return ""
}

func (imp *Importer) merge(b *Batch, f File, o outcome) {
	if o.err != nil {
		imp.log.Warn("parse failed", "file", f.Name, "format", o.result.Format, "error", o.err)
		b.FilesErrored++
		b.Errors[f.Name] = o.err.Error()
		o.result.Message = o.err.Error()
		b.Results = append(b.Results, o.result)
		return
	}
	b.FilesProcessed++
	b.Results = append(b.Results, o.result)
	imp.log.Info("parsed file", "file", f.Name, "format", o.result.Format, "rows", o.result.RowsAccepted)

	if len(o.climbs) > 0 {
		byGym := make(map[string][]models.Climb)
		for _, c := range o.climbs {
			byGym[c.Gym] = append(byGym[c.Gym], c)
		}
		for gym, list := range byGym {
			b.Climbs[gym] = list
		}
	}
	if len(o.financials) > 0 {
		b.Financials = MergeFinancials(b.Financials, o.financials)
	}
	if o.schedule != nil {
		for code, s := range o.schedule.Schedules {
			b.Schedules[code] = s
			b.ScheduleSources[code] = f
		}
		for code, name := range o.schedule.NewGyms {
			b.NewGyms[code] = name
		}
		UnionLabels(b.Unrecognized, o.schedule.Unrecognized)
	}
}

// UnionLabels adds src's labels to dst without duplicates, keeping first-seen
// order per gym.
func UnionLabels(dst, src map[string][]string) {
	for gym, labels := range src {
		seen := make(map[string]bool, len(dst[gym]))
		for _, l := range dst[gym] {
			seen[l] = true
		}
		for _, l := range labels {
			if !seen[l] {
				seen[l] = true
				dst[gym] = append(dst[gym], l)
			}
		}
	}
}

// MergeFinancials adds records to existing, replacing any record for the same
// gym and pay period.
func MergeFinancials(existing, records []models.FinancialRecord) []models.FinancialRecord {
	key := func(r models.FinancialRecord) string {
		return r.Gym + "|" + r.PayPeriodStart.Format("2006-01-02") + "|" + r.PayPeriodEnd.Format("2006-01-02")
	}
	pos := make(map[string]int, len(existing))
	out := append([]models.FinancialRecord(nil), existing...)
	for i, r := range out {
		pos[key(r)] = i
	}
	for _, r := range records {
		k := key(r)
		if i, ok := pos[k]; ok {
			out[i] = r
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

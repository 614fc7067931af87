package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/setops/internal/importer"
	"github.com/claude/setops/internal/render"
	"github.com/spf13/cobra"
)

type importFlags struct {
	gym  string
	out  string
	save bool
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var f importFlags

	c := &cobra.Command{
		Use:   "import FILE|DIR...",
		Short: "Parse a batch of exports and print a summary",
		Long: "Parse performance, payroll and schedule exports (CSV, XLSX or ZIP). " +
			"Directories are read one level deep. --out renders the schedule maps and " +
			"--save persists learned settings and financial records.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), g, f, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	c.Flags().StringVar(&f.gym, "gym", "", "gym code for performance files whose names carry none")
	c.Flags().StringVar(&f.out, "out", "", "directory to write rendered map PNGs into")
	c.Flags().BoolVar(&f.save, "save", false, "persist state to the configured store")
	return c
}

func runImport(ctx context.Context, g *globalFlags, f importFlags, args []string, stdout, stderr io.Writer) error {
	e, err := g.setup(ctx, stderr, f.save)
	if err != nil {
		return err
	}
	defer e.Close()

	files, err := collect(args)
	if err != nil {
		return err
	}
	for i := range files {
		files[i].Gym = f.gym
	}

	batch, err := importer.New(e.app.ImportOptions(), e.log).Import(ctx, files)
	if err != nil {
		return err
	}
	e.app.ApplyBatch(batch)
	printSummary(stdout, batch)

	if f.out != "" {
		imgs, err := e.renderer.RenderAll(ctx, e.app.Schedules(), e.app.RenderInput())
		if err != nil {
			return fmt.Errorf("rendering maps: %w", err)
		}
		if err := render.WriteFiles(f.out, imgs); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %d map(s) to %s\n", len(imgs), f.out)
	}

	if f.save {
		if err := e.app.Save(ctx); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
		fmt.Fprintf(stdout, "state saved (%s)\n", e.cfg.Database.Driver)
	}

	if batch.FilesErrored > 0 {
		return fmt.Errorf("%d of %d file(s) failed", batch.FilesErrored, batch.FilesProcessed)
	}
	return nil
}

// collect reads file arguments, expanding directories one level.
func collect(args []string) ([]importer.File, error) {
	var paths []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", a, err)
		}
		if !info.IsDir() {
			paths = append(paths, a)
			continue
		}
		entries, err := os.ReadDir(a)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", a, err)
		}
		for _, ent := range entries {
			if !ent.IsDir() && importer.Supported(ent.Name()) {
				paths = append(paths, filepath.Join(a, ent.Name()))
			}
		}
	}
	return importer.ReadFiles(paths)
}

func printSummary(w io.Writer, b *importer.Batch) {
	fmt.Fprintf(w, "batch %s: %d file(s), %d failed\n", b.ID, b.FilesProcessed, b.FilesErrored)
	for _, r := range b.Results {
		line := fmt.Sprintf("  %-32s %-12s %d/%d rows", r.File, r.Format, r.RowsAccepted, r.RowsReceived)
		if r.Message != "" {
			line += "  " + r.Message
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "climbs: %d  financial records: %d\n", b.ClimbCount(), len(b.Financials))

	codes := make([]string, 0, len(b.Schedules))
	for code := range b.Schedules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		s := b.Schedules[code]
		n := 0
		for _, d := range s.Days {
			n += len(d.Routes) + len(d.Boulders)
		}
		fmt.Fprintf(w, "schedule %s %s: %d entries\n", code, s.DateRangeLabel, n)
	}

	gyms := make([]string, 0, len(b.Unrecognized))
	for code := range b.Unrecognized {
		gyms = append(gyms, code)
	}
	sort.Strings(gyms)
	for _, code := range gyms {
		if labels := b.Unrecognized[code]; len(labels) > 0 {
			fmt.Fprintf(w, "unrecognized %s: %s\n", code, strings.Join(labels, ", "))
		}
	}
}

// Package upload pushes export files from a drop folder to a running setops
// server, skipping files it has already sent unchanged.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/claude/setops/internal/importer"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	Climbs       int
	Unrecognized map[string][]string
}

// Uploader walks a directory of exports and sends new or changed files to
// the server in one batch, so the server merges them together.
type Uploader struct {
	client *Client
	ledger *Ledger
	target string
	dir    string
	gym    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates an Uploader that records deliveries in ledger.
func New(client *Client, ledger *Ledger, dir, gym string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		ledger: ledger,
		target: Target(client.serverURL, gym),
		dir:    dir,
		gym:    gym,
		dryRun: dryRun,
		log:    log,
	}
}

type pending struct {
	delivery Delivery
	file     File
}

// Run executes the upload pipeline. Files are marked sent only after the
// server accepted the batch.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && importer.Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var queue []pending
	for _, name := range names {
		u.stats.FilesTotal++
		path := filepath.Join(u.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			u.log.Warn("read failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}
		hash := Hash(data)
		sent, err := u.ledger.Delivered(ctx, u.target, name, hash)
		if err != nil {
			u.log.Warn("ledger check failed", "file", path, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if sent {
			u.stats.FilesSkipped++
			continue
		}
		queue = append(queue, pending{
			delivery: Delivery{Name: name, Hash: hash, Size: int64(len(data))},
			file:     File{Name: name, Data: data},
		})
	}

	if len(queue) == 0 {
		u.log.Info("nothing to upload", "dir", u.dir)
		return &u.stats, nil
	}
	if u.dryRun {
		for _, p := range queue {
			u.log.Info("would upload", "file", p.delivery.Name, "bytes", p.delivery.Size)
		}
		return &u.stats, nil
	}

	files := make([]File, len(queue))
	batch := make([]Delivery, len(queue))
	for i, p := range queue {
		files[i] = p.file
		batch[i] = p.delivery
	}
	res, err := u.client.Send(ctx, files, u.gym)
	if err != nil {
		u.stats.FilesErrored += len(queue)
		return &u.stats, fmt.Errorf("sending batch: %w", err)
	}
	u.stats.Climbs = res.Climbs
	u.stats.Unrecognized = res.Unrecognized

	u.stats.FilesUploaded = len(queue)
	if err := u.ledger.Record(ctx, u.target, batch, time.Now()); err != nil {
		// The server has the files; the next run will just resend them.
		u.log.Warn("ledger update failed", "target", u.target, "error", err)
	}
	return &u.stats, nil
}

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
	"golang.org/x/image/webp"
)

// DefaultLoadTimeout bounds one background lookup cascade.
const DefaultLoadTimeout = 3 * time.Second

// ErrNoBackground is returned when no candidate image could be loaded.
var ErrNoBackground = errors.New("no background image")

// Backgrounds loads gym map backgrounds from a filesystem.
type Backgrounds struct {
	FS      fs.FS
	Timeout time.Duration
}

// Candidates lists the file names tried for a page, in order, without
// duplicates: the page's own discipline, then routes, then boulders.
func Candidates(gym string, dt models.DataType) []string {
	gym = strings.ToUpper(gym)
	var out []string
	seen := make(map[string]bool)
	for _, t := range []models.DataType{dt, models.Routes, models.Boulders} {
		if t == "" {
			continue
		}
		name := fmt.Sprintf("%s_%s.png", gym, t)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Load tries each candidate in turn and returns the first that decodes,
// along with its name. The cascade stops at the first success and gives up
// when the context or the timeout expires.
func (b *Backgrounds) Load(ctx context.Context, gym string, dt models.DataType) (image.Image, string, error) {
	if b == nil || b.FS == nil {
		return nil, "", ErrNoBackground
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, name := range Candidates(gym, dt) {
		img, err := b.loadOne(ctx, name)
		if err == nil {
			return img, name, nil
		}
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrNoBackground, ctx.Err())
		}
	}
	return nil, "", ErrNoBackground
}

func (b *Backgrounds) loadOne(ctx context.Context, name string) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := fs.ReadFile(b.FS, name)
		if err != nil {
			ch <- result{err: err}
			return
		}
		img, err := decode(data)
		ch <- result{img: img, err: err}
	}()
	select {
	case r := <-ch:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// decode handles PNG and JPEG, and WebP content saved under a .png name.
func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if w, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return w, nil
	}
	return nil, fmt.Errorf("decoding image: %w", err)
}

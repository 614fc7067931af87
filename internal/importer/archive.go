package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxEntryBytes bounds a single archive member.
const maxEntryBytes = 64 << 20

// Supported reports whether a file name is an export the importer can parse.
func Supported(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".xlsx", ".zip":
		return true
	}
	return false
}

// Expand replaces zip archives with the supported files they contain. Other
// files pass through untouched. Archive members keep the archive's gym label.
func Expand(files []File) ([]File, error) {
	var out []File
	for _, f := range files {
		if !strings.EqualFold(path.Ext(f.Name), ".zip") {
			out = append(out, f)
			continue
		}
		members, err := unzip(f)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

func unzip(f File) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", f.Name, err)
	}
	var out []File
	for _, zf := range zr.File {
		name := path.Base(zf.Name)
		if zf.FileInfo().IsDir() || strings.HasPrefix(name, ".") || !Supported(name) || strings.EqualFold(path.Ext(name), ".zip") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in %s: %w", zf.Name, f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s in %s: %w", zf.Name, f.Name, err)
		}
		out = append(out, File{Name: f.Name + "/" + name, Gym: f.Gym, Data: data})
	}
	return out, nil
}

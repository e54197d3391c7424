package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Snapshot is a saved page used as a content surface. It never grows, so a
// load over a snapshot stops as stable after one iteration.
type Snapshot struct {
	Path   string
	markup string
}

// NewSnapshot wraps markup already in memory.
func NewSnapshot(name, markup string) *Snapshot {
	return &Snapshot{Path: name, markup: markup}
}

// OpenSnapshot reads a saved page. Files ending in .gz or .br are decompressed.
func OpenSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, f)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer closeFn()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return &Snapshot{Path: path, markup: string(data)}, nil
}

func decompressor(path string, r io.Reader) (io.Reader, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, gz.Close, nil
	case ".br":
		return brotli.NewReader(r), func() error { return nil }, nil
	default:
		return r, func() error { return nil }, nil
	}
}

// WriteSnapshot saves markup to path, compressing by extension like OpenSnapshot.
func WriteSnapshot(path, markup string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		w = gzip.NewWriter(f)
	case ".br":
		w = brotli.NewWriterLevel(f, brotli.DefaultCompression)
	}

	if w == nil {
		_, err = io.WriteString(f, markup)
		return err
	}
	if _, err := io.WriteString(w, markup); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Grow is a no-op; a snapshot has no more content to load.
func (s *Snapshot) Grow(ctx context.Context) error { return ctx.Err() }

// Extent returns the markup length, which never changes.
func (s *Snapshot) Extent(ctx context.Context) (int, error) {
	return len(s.markup), ctx.Err()
}

// Source returns the saved markup.
func (s *Snapshot) Source(ctx context.Context) (string, error) {
	return s.markup, ctx.Err()
}

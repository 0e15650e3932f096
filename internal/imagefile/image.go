// Package imagefile tracks one image on disk: its measured stats, the
// transforms staged against it and the commit that rewrites the file.
//
// An Image is not safe for concurrent use. Distinct Images touch distinct
// paths and may be committed in parallel.
package imagefile

import (
	"fmt"
	"path/filepath"

	"savile/internal/codec"
)

// Stats are the measured properties of the file currently on disk.
type Stats struct {
	Width  int
	Height int
	// SizeKB is the file size rounded up to whole KiB.
	SizeKB int
	Bytes  int64
	// Progressive is set for JPEGs encoded with progressive scans.
	Progressive bool
	// Metadata lists EXIF categories embedded in the file.
	Metadata []string
}

// OpKind tags a staged transform.
type OpKind int

const (
	OpResize OpKind = iota + 1
	OpOptimise
	OpReformat
	OpProgressive
)

func (k OpKind) String() string {
	switch k {
	case OpResize:
		return "resize"
	case OpOptimise:
		return "optimise"
	case OpReformat:
		return "reformat"
	case OpProgressive:
		return "progressive"
	default:
		return "unknown"
	}
}

// Op is one staged transform. Format is the record's format at the time
// the op was staged (the target format for OpReformat).
type Op struct {
	Kind    OpKind
	Width   int
	Quality int
	Format  codec.Format
}

func (o Op) String() string {
	switch o.Kind {
	case OpResize:
		return fmt.Sprintf("resize(%d)", o.Width)
	case OpOptimise:
		return fmt.Sprintf("optimise(%d)", o.Quality)
	case OpReformat:
		return fmt.Sprintf("reformat(%s)", o.Format)
	default:
		return o.Kind.String()
	}
}

// Image is a discovered image file.
type Image struct {
	path     string
	relPath  string
	tempPath string
	format   codec.Format
	stats    *Stats
	ops      []Op
}

// New creates a record for the file at path, which must sit under root.
func New(path, root string) *Image {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return &Image{
		path:     path,
		relPath:  rel,
		tempPath: UniqueSibling(path),
		format:   codec.FormatFromExt(filepath.Ext(path)),
	}
}

// Path is where the file lives on disk right now.
func (img *Image) Path() string { return img.path }

// RelPath is the path relative to the discovery root at construction.
// It does not follow a format change.
func (img *Image) RelPath() string { return img.relPath }

// TempPath is the sibling written during commit.
func (img *Image) TempPath() string { return img.tempPath }

// Format reflects the most recently staged reformat, even before commit.
func (img *Image) Format() codec.Format { return img.format }

// Stats returns the last measurement. ok is false before Measure.
func (img *Image) Stats() (s Stats, ok bool) {
	if img.stats == nil {
		return Stats{}, false
	}
	return *img.stats, true
}

// Width is the measured width, or 0 before Measure.
func (img *Image) Width() int {
	if img.stats == nil {
		return 0
	}
	return img.stats.Width
}

// SizeKB is the measured size, or 0 before Measure.
func (img *Image) SizeKB() int {
	if img.stats == nil {
		return 0
	}
	return img.stats.SizeKB
}

// Pending returns a copy of the staged ops in staging order.
func (img *Image) Pending() []Op {
	return append([]Op(nil), img.ops...)
}

// Resize stages a downscale to maxWidth. It is a no-op when the measured
// width already fits; images are never upscaled.
func (img *Image) Resize(maxWidth int) error {
	if img.stats == nil {
		return ErrNotMeasured
	}
	if maxWidth <= 0 {
		return fmt.Errorf("resize %s: width must be greater than 0, got %d", img.relPath, maxWidth)
	}
	if img.stats.Width <= maxWidth {
		return nil
	}
	img.ops = append(img.ops, Op{Kind: OpResize, Width: maxWidth, Format: img.format})
	return nil
}

// Optimise stages a re-encode at quality (1-100). WebP output is always
// lossless; PNG maps quality to compression effort.
func (img *Image) Optimise(quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("optimise %s: quality must be between 1 and 100, got %d", img.relPath, quality)
	}
	img.ops = append(img.ops, Op{Kind: OpOptimise, Quality: quality, Format: img.format})
	return nil
}

// Reformat stages a conversion to format. The record's format and temp
// path extension change immediately.
func (img *Image) Reformat(format codec.Format) error {
	if format == codec.Unknown {
		return fmt.Errorf("reformat %s: unsupported target format", img.relPath)
	}
	if format == img.format {
		return nil
	}
	img.ops = append(img.ops, Op{Kind: OpReformat, Format: format})
	img.format = format
	img.tempPath = WithExtension(img.tempPath, format.Ext())
	return nil
}

// MakeProgressive stages progressive scan encoding. Only JPEGs are affected.
func (img *Image) MakeProgressive() {
	if img.format != codec.JPEG {
		return
	}
	img.ops = append(img.ops, Op{Kind: OpProgressive, Format: img.format})
}

// encodePlan folds the staged ops into the resize widths to apply, in
// order, and the options for the single final encode. A reformat resets
// encoder options, matching a fresh encoder for the new format.
func (img *Image) encodePlan() (widths []int, opts codec.Options) {
	for _, op := range img.ops {
		switch op.Kind {
		case OpResize:
			widths = append(widths, op.Width)
		case OpOptimise:
			opts.Quality = op.Quality
			switch op.Format {
			case codec.JPEG:
				opts.Progressive = true
			case codec.WebP:
				opts.Lossless = true
			}
		case OpReformat:
			opts = codec.Options{}
		case OpProgressive:
			opts.Progressive = true
		}
	}

	opts.Format = img.format
	if opts.Format != codec.JPEG {
		opts.Progressive = false
	}
	if opts.Format != codec.WebP {
		opts.Lossless = false
	}
	return widths, opts
}

// finalPath is where the committed file lands: the current path, or the
// same path with the new format's extension after a reformat.
func (img *Image) finalPath() string {
	if codec.FormatFromExt(filepath.Ext(img.path)) == img.format {
		return img.path
	}
	return WithExtension(img.path, img.format.Ext())
}

func (img *Image) String() string {
	return fmt.Sprintf("%s (%s)", img.relPath, img.format)
}

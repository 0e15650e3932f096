// Package savile discovers images under a root directory and runs the
// resize, optimise, reformat and progressive workflows over them.
package savile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"savile/internal/batch"
	"savile/internal/codec"
	"savile/internal/imagefile"
	"savile/internal/match"
)

// ErrNoRoot is returned by Discover when the root directory is missing.
var ErrNoRoot = errors.New("images directory not found")

// Extensions are the file extensions discovery picks up, compared
// case-insensitively.
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".avif"}

// Engine owns the discovered image set for one run.
type Engine struct {
	root    string
	prompt  Prompter
	tracker Tracker
	log     *zap.Logger

	concurrency int
	minDuration time.Duration

	images  []*imagefile.Image
	skipped []error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTracker shows batch progress through t.
func WithTracker(t Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithConcurrency caps in-flight measure and commit operations.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// WithMinDuration pads every batch to at least d.
func WithMinDuration(d time.Duration) Option {
	return func(e *Engine) { e.minDuration = d }
}

// New creates an engine for root. A relative root is resolved against the
// working directory.
func New(root string, p Prompter, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	e := &Engine{
		root:        abs,
		prompt:      p,
		log:         zap.NewNop(),
		concurrency: batch.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Root is the absolute images directory.
func (e *Engine) Root() string { return e.root }

// Images returns the discovered, measured images in discovery order.
func (e *Engine) Images() []*imagefile.Image { return e.images }

// Skipped returns the measurement errors of files left out by Discover.
func (e *Engine) Skipped() []error { return e.skipped }

// Discover walks the root for image files and measures each one. Files
// that cannot be measured are left out and reported through Skipped.
func (e *Engine) Discover(ctx context.Context) error {
	info, err := os.Stat(e.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoRoot, e.root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNoRoot, e.root)
	}

	var found []*imagefile.Image
	err = fs.WalkDir(os.DirFS(e.root), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !hasImageExt(path) {
			return nil
		}
		found = append(found, imagefile.New(filepath.Join(e.root, filepath.FromSlash(path)), e.root))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", e.root, err)
	}
	e.log.Info("discovered images", zap.String("root", e.root), zap.Int("count", len(found)))
	e.prompt.Info(fmt.Sprintf("Found %s images.", accentStyle.Render(fmt.Sprint(len(found)))))

	results := e.run(ctx, "Measuring images", found, func(_ context.Context, img *imagefile.Image) (*imagefile.Image, error) {
		if _, err := img.Measure(); err != nil {
			return nil, err
		}
		return img, nil
	})

	e.images = results.Values()
	e.skipped = nil
	for _, r := range results {
		if r.Err != nil {
			e.skipped = append(e.skipped, r.Err)
			e.log.Warn("skipping unmeasurable image", zap.Error(r.Err))
		}
	}
	if n := len(e.skipped); n > 0 {
		e.prompt.Info(fmt.Sprintf("Skipped %d file(s) that could not be read as images.", n))
	}
	e.ReportMetadata()
	return nil
}

func hasImageExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// MatchQuery returns the images whose path matches the glob query.
func (e *Engine) MatchQuery(query string) []*imagefile.Image {
	return match.ByPattern(e.images, query)
}

// MatchWidth returns the images wider than width.
func (e *Engine) MatchWidth(width int) []*imagefile.Image {
	return match.ByWidthAbove(e.images, width)
}

// JPEGs returns the images with a JPEG extension.
func (e *Engine) JPEGs() []*imagefile.Image {
	return jpegsOf(e.images)
}

func jpegsOf(images []*imagefile.Image) []*imagefile.Image {
	var out []*imagefile.Image
	for _, img := range images {
		if match.IsJPEG(img.Path()) {
			out = append(out, img)
		}
	}
	return out
}

// ResizeImages downscales every image wider than width and commits it.
func (e *Engine) ResizeImages(ctx context.Context, images []*imagefile.Image, width int) ([]*imagefile.Image, error) {
	return e.apply(ctx, "Resizing images", images, func(img *imagefile.Image) error {
		return img.Resize(width)
	})
}

// OptimiseImages re-encodes every image at quality and commits it.
func (e *Engine) OptimiseImages(ctx context.Context, images []*imagefile.Image, quality int) ([]*imagefile.Image, error) {
	return e.apply(ctx, "Optimising images", images, func(img *imagefile.Image) error {
		return img.Optimise(quality)
	})
}

// ReformatImages converts every image to format and commits it.
func (e *Engine) ReformatImages(ctx context.Context, images []*imagefile.Image, format codec.Format) ([]*imagefile.Image, error) {
	return e.apply(ctx, "Reformatting images", images, func(img *imagefile.Image) error {
		return img.Reformat(format)
	})
}

// ProgressiviseImages re-encodes JPEGs with progressive scans.
func (e *Engine) ProgressiviseImages(ctx context.Context, images []*imagefile.Image) ([]*imagefile.Image, error) {
	return e.apply(ctx, "Making progressive JPEGs", images, func(img *imagefile.Image) error {
		img.MakeProgressive()
		return nil
	})
}

// apply stages a transform on every image and commits it. It returns the
// images that committed; per-image failures are combined into the error as
// *ImageError values.
func (e *Engine) apply(ctx context.Context, label string, images []*imagefile.Image, stage func(*imagefile.Image) error) ([]*imagefile.Image, error) {
	results := e.run(ctx, label, images, func(_ context.Context, img *imagefile.Image) (*imagefile.Image, error) {
		if err := stage(img); err != nil {
			return nil, &ImageError{Path: img.Path(), Err: err}
		}
		before, _ := img.Stats()
		from := img.Path()
		after, err := img.Commit()
		if err != nil {
			e.log.Error("commit failed", zap.String("path", from), zap.Error(err))
			return nil, &ImageError{Path: from, Err: err}
		}
		e.log.Info("committed image",
			zap.String("path", img.Path()),
			zap.String("from", from),
			zap.Int64("bytes_before", before.Bytes),
			zap.Int64("bytes_after", after.Bytes),
			zap.Int("width_before", before.Width),
			zap.Int("width_after", after.Width),
		)
		return img, nil
	})
	return results.Values(), results.Err()
}

func (e *Engine) run(ctx context.Context, label string, images []*imagefile.Image, op func(context.Context, *imagefile.Image) (*imagefile.Image, error)) batch.Results[*imagefile.Image] {
	opts := batch.Options{Concurrency: e.concurrency, MinDuration: e.minDuration}
	if e.tracker != nil {
		updates, done := e.tracker.Track(label)
		defer done()
		opts.Updates = updates
	}
	return batch.Run(ctx, images, op, opts)
}

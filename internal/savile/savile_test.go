package savile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"savile/internal/batch"
	"savile/internal/codec"
	"savile/internal/imagefile"
)

// scriptedPrompter answers prompts from queues. Text answers are tried in
// order until one passes validation; rejected answers are recorded.
type scriptedPrompter struct {
	t        *testing.T
	texts    []string
	selects  []string
	confirms []bool

	rejected []string
	notes    []string
	infos    []string
}

func (p *scriptedPrompter) Text(_ context.Context, tp TextPrompt) (string, error) {
	for len(p.texts) > 0 {
		answer := p.texts[0]
		p.texts = p.texts[1:]
		if tp.Validate != nil {
			if err := tp.Validate(answer); err != nil {
				p.rejected = append(p.rejected, err.Error())
				continue
			}
		}
		return answer, nil
	}
	return "", ErrCancelled
}

func (p *scriptedPrompter) Select(_ context.Context, _ string, choices []Choice) (string, error) {
	if len(p.selects) == 0 {
		return "", ErrCancelled
	}
	answer := p.selects[0]
	p.selects = p.selects[1:]
	for _, c := range choices {
		if c.Value == answer {
			return answer, nil
		}
	}
	p.t.Fatalf("answer %q is not one of the offered choices", answer)
	return "", nil
}

func (p *scriptedPrompter) Confirm(context.Context, string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, ErrCancelled
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *scriptedPrompter) Note(title, _ string) { p.notes = append(p.notes, title) }
func (p *scriptedPrompter) Info(msg string)      { p.infos = append(p.infos, msg) }

type countingTracker struct {
	mu     sync.Mutex
	labels []string
	done   int
	failed int
}

func (c *countingTracker) Track(label string) (chan<- batch.Update, func()) {
	updates := make(chan batch.Update)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for u := range updates {
			c.mu.Lock()
			c.done += u.DoneDelta
			c.failed += u.FailedDelta
			c.mu.Unlock()
		}
	}()
	c.mu.Lock()
	c.labels = append(c.labels, label)
	c.mu.Unlock()
	return updates, func() {
		close(updates)
		<-finished
	}
}

func writeFixture(t *testing.T, path string, w, h int, opts codec.Options) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y * 7), B: uint8(x ^ y), A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, img, opts))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// sixImages lays out three wide JPEGs and three PNGs of 1200-1800px.
func sixImages(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	jpeg := codec.Options{Format: codec.JPEG, Quality: 90}
	png := codec.Options{Format: codec.PNG}
	writeFixture(t, filepath.Join(root, "a.jpg"), 2200, 8, jpeg)
	writeFixture(t, filepath.Join(root, "photos", "b.jpeg"), 2100, 8, jpeg)
	writeFixture(t, filepath.Join(root, "photos", "deep", "c.JPG"), 2400, 8, jpeg)
	writeFixture(t, filepath.Join(root, "d.png"), 1200, 8, png)
	writeFixture(t, filepath.Join(root, "graphics", "e.png"), 1500, 8, png)
	writeFixture(t, filepath.Join(root, "graphics", "f.png"), 1800, 8, png)
	return root
}

func newEngine(t *testing.T, root string, p *scriptedPrompter, opts ...Option) *Engine {
	t.Helper()
	p.t = t
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	e, err := New(root, p, opts...)
	require.NoError(t, err)
	require.NoError(t, e.Discover(context.Background()))
	return e
}

func snapshot(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestDiscoverMissingRoot(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "nope"), &scriptedPrompter{t: t})
	require.NoError(t, err)
	assert.ErrorIs(t, e.Discover(context.Background()), ErrNoRoot)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	e, err = New(file, &scriptedPrompter{t: t})
	require.NoError(t, err)
	assert.ErrorIs(t, e.Discover(context.Background()), ErrNoRoot)
}

func TestDiscoverMeasuresAndSkips(t *testing.T) {
	root := sixImages(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.jpg"), []byte("not a jpeg at all"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	p := &scriptedPrompter{}
	tracker := &countingTracker{}
	e := newEngine(t, root, p, WithTracker(tracker))

	assert.Len(t, e.Images(), 6)
	require.Len(t, e.Skipped(), 1)
	var merr *imagefile.MeasurementError
	assert.ErrorAs(t, e.Skipped()[0], &merr)
	for _, img := range e.Images() {
		_, ok := img.Stats()
		assert.True(t, ok, "%s measured", img.RelPath())
	}
	assert.Equal(t, []string{"Measuring images"}, tracker.labels)
	assert.Equal(t, 7, tracker.done)
	assert.Equal(t, 1, tracker.failed)
	assert.Contains(t, p.infos, "Skipped 1 file(s) that could not be read as images.")
}

func TestBucketsPartitionOnBoundaries(t *testing.T) {
	values := []int{0, 250, 251, 350, 351, 500, 501, 9000}
	b := bucketize(values, func(v int) int { return v }, SizeTiers)
	assert.Equal(t, Buckets{Over: 2, Upper: 2, Middle: 2, OK: 2}, b)
	assert.Equal(t, len(values), b.Total())

	root := sixImages(t)
	e := newEngine(t, root, &scriptedPrompter{})
	wb := WidthBuckets(e.Images())
	assert.Equal(t, Buckets{Over: 0, Upper: 3, Middle: 2, OK: 1}, wb)
	assert.Equal(t, 6, SizeBuckets(e.Images()).Total())
}

func TestResizeByQuery(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		selects:  []string{"query"},
		texts:    []string{"", "*.gif", "*.{jpg,jpeg}", "abc", "0", "600"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)

	resized, err := e.Resize(context.Background())
	require.NoError(t, err)
	require.Len(t, resized, 3)
	for _, img := range resized {
		assert.Equal(t, 600, img.Width(), img.RelPath())
	}
	assert.Empty(t, e.MatchWidth(2000))
	assert.Len(t, e.Images(), 6)
	assert.Equal(t, []string{
		"A query is required",
		"Your query didn't match any images. Try another?",
		"Value must be a number",
		"Width must be greater than 0",
	}, p.rejected)
	assert.Contains(t, p.notes, "Images by pixel width")
	assert.Contains(t, p.notes, "Found 3 images")
}

func TestResizeByMaxWidth(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		selects:  []string{"max"},
		texts:    []string{"5000", "1600"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)

	resized, err := e.Resize(context.Background())
	require.NoError(t, err)
	assert.Len(t, resized, 4)
	assert.Empty(t, e.MatchWidth(1600))
	assert.Equal(t, []string{"Found no images bigger than 5000px. Try a different width?"}, p.rejected)
	assert.Contains(t, p.notes, "Images > 1600px")
}

func TestDeclinedConfirmLeavesFilesUntouched(t *testing.T) {
	root := sixImages(t)
	before := snapshot(t, root)
	p := &scriptedPrompter{
		selects:  []string{"query"},
		texts:    []string{"*.png", "300"},
		confirms: []bool{false},
	}
	e := newEngine(t, root, p)

	_, err := e.Resize(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, before, snapshot(t, root))
}

func TestOptimiseValidatesQuality(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		texts:    []string{"photos/*", "", "high", "0", "101", "40"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)
	target := e.MatchQuery("photos/b.jpeg")
	require.Len(t, target, 1)
	sizeBefore, _ := target[0].Stats()

	optimised, err := e.Optimise(context.Background())
	require.NoError(t, err)
	require.Len(t, optimised, 1)
	sizeAfter, _ := optimised[0].Stats()
	assert.Less(t, sizeAfter.Bytes, sizeBefore.Bytes)
	assert.Equal(t, []string{
		"A value is required",
		"Value must be a number",
		"Quality must be a number between 0 - 100",
		"Quality must be a number between 0 - 100",
	}, p.rejected)
}

func TestReformatMovesFiles(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		texts:    []string{"graphics/*"},
		selects:  []string{"webp"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)

	reformatted, err := e.Reformat(context.Background())
	require.NoError(t, err)
	require.Len(t, reformatted, 2)

	files := snapshot(t, root)
	assert.Contains(t, files, "graphics/e.webp")
	assert.Contains(t, files, "graphics/f.webp")
	assert.NotContains(t, files, "graphics/e.png")
	assert.NotContains(t, files, "graphics/f.png")
	for _, img := range reformatted {
		assert.Equal(t, codec.WebP, img.Format())
	}
}

func TestCommitFailureIsIsolated(t *testing.T) {
	root := sixImages(t)
	// d.png cannot be reformatted: d.webp already exists.
	writeFixture(t, filepath.Join(root, "d.webp"), 40, 8, codec.Options{Format: codec.WebP})
	e := newEngine(t, root, &scriptedPrompter{})

	pngs := e.MatchQuery("*.png")
	require.Len(t, pngs, 3)
	done, err := e.ReformatImages(context.Background(), pngs, codec.WebP)
	require.Error(t, err)
	assert.Len(t, done, 2)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	var cerr *imagefile.CommitError
	require.ErrorAs(t, errs[0], &cerr)
	var ierr *ImageError
	require.ErrorAs(t, errs[0], &ierr)
	assert.Equal(t, filepath.Join(root, "d.png"), ierr.Path)
	assert.True(t, errors.Is(err, fs.ErrExist))

	files := snapshot(t, root)
	assert.Contains(t, files, "d.png", "failed image keeps its original")
	assert.Contains(t, files, "graphics/e.webp")
	assert.Contains(t, files, "graphics/f.webp")
}

func TestProgressiviseAll(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{selects: []string{"all"}, confirms: []bool{true}}
	e := newEngine(t, root, p)

	done, err := e.Progressivise(context.Background())
	require.NoError(t, err)
	require.Len(t, done, 3)
	for _, img := range done {
		stats, _ := img.Stats()
		assert.True(t, stats.Progressive, img.RelPath())
	}
}

func TestProgressiviseQueryRetriesWithoutJPEGs(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		selects:  []string{"query"},
		texts:    []string{"*.png", "a.jpg"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)

	done, err := e.Progressivise(context.Background())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a.jpg", done[0].RelPath())
	assert.Contains(t, p.infos, "No JPEGs found with your query. Try again?")
}

func TestProgressiviseAllWithoutJPEGs(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "only.png"), 20, 8, codec.Options{Format: codec.PNG})
	p := &scriptedPrompter{selects: []string{"all"}}
	e := newEngine(t, root, p)

	done, err := e.Progressivise(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
	assert.Contains(t, p.infos, "No JPEG images found.")
}

func TestRowDispatches(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		selects:  []string{"reformat", "png"},
		texts:    []string{"a.jpg"},
		confirms: []bool{true},
	}
	e := newEngine(t, root, p)

	done, err := e.Row(context.Background())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, codec.PNG, done[0].Format())
	assert.Contains(t, p.notes, "Images by file size")
	assert.FileExists(t, filepath.Join(root, "a.png"))
}

func TestCancelledPromptPropagates(t *testing.T) {
	root := sixImages(t)
	e := newEngine(t, root, &scriptedPrompter{})
	_, err := e.Row(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestQueryRejectsMalformedPattern(t *testing.T) {
	root := sixImages(t)
	p := &scriptedPrompter{
		texts:    []string{"*.{jpg", "a.jpg", "50"},
		confirms: []bool{false},
	}
	e := newEngine(t, root, p)

	_, err := e.Optimise(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{"That query isn't a valid pattern. Check its braces and brackets?"}, p.rejected)
}

func TestReportMetadataCountsTaggedImages(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "tagged.png")
	writeFixture(t, path, 16, 8, codec.Options{Format: codec.PNG})
	writeFixture(t, filepath.Join(root, "plain.png"), 16, 8, codec.Options{Format: codec.PNG})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	payload := []byte("Camera Model\x00Pixel")
	var chunk bytes.Buffer
	require.NoError(t, binary.Write(&chunk, binary.BigEndian, uint32(len(payload))))
	chunk.WriteString("tEXt")
	chunk.Write(payload)
	require.NoError(t, binary.Write(&chunk, binary.BigEndian, crc32.ChecksumIEEE(append([]byte("tEXt"), payload...))))
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	tagged := append(append(append([]byte{}, data[:ihdrEnd]...), chunk.Bytes()...), data[ihdrEnd:]...)
	require.NoError(t, os.WriteFile(path, tagged, 0o644))

	p := &scriptedPrompter{}
	e := newEngine(t, root, p)

	assert.Equal(t, 1, e.ReportMetadata())
	assert.Contains(t, p.infos,
		"1 image(s) embed metadata (Device Model 1). Re-encoding an image drops it; images left unchanged keep it.")
}

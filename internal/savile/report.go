package savile

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"savile/internal/imagefile"
	"savile/internal/tui"
)

// Tiers are the three upper bounds that split images into four buckets:
// above Over, above Upper, above Middle, and the rest.
type Tiers struct {
	Over   int
	Upper  int
	Middle int
}

var (
	// SizeTiers bucket by file size in KB.
	SizeTiers = Tiers{Over: 500, Upper: 350, Middle: 250}
	// WidthTiers bucket by pixel width.
	WidthTiers = Tiers{Over: 2400, Upper: 1800, Middle: 1200}
)

// Buckets count images per tier. Every image lands in exactly one bucket.
type Buckets struct {
	Over   int
	Upper  int
	Middle int
	OK     int
}

// Total is the number of bucketed images.
func (b Buckets) Total() int { return b.Over + b.Upper + b.Middle + b.OK }

func bucketize[T any](items []T, value func(T) int, t Tiers) Buckets {
	var b Buckets
	for _, item := range items {
		switch v := value(item); {
		case v > t.Over:
			b.Over++
		case v > t.Upper:
			b.Upper++
		case v > t.Middle:
			b.Middle++
		default:
			b.OK++
		}
	}
	return b
}

// SizeBuckets buckets images by measured file size.
func SizeBuckets(images []*imagefile.Image) Buckets {
	return bucketize(images, (*imagefile.Image).SizeKB, SizeTiers)
}

// WidthBuckets buckets images by measured width.
func WidthBuckets(images []*imagefile.Image) Buckets {
	return bucketize(images, (*imagefile.Image).Width, WidthTiers)
}

var (
	accentStyle = lipgloss.NewStyle().Foreground(tui.ColorAccent)
	dangerStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorDanger)
	dimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func renderBuckets(b Buckets, t Tiers, unit string) string {
	lines := []string{
		"Possibly oversized:",
		fmt.Sprintf("🔴 %s > %d%s", dangerStyle.Render(fmt.Sprint(b.Over)), t.Over, unit),
		fmt.Sprintf("🟠 %d > %d%s", b.Upper, t.Upper, unit),
		fmt.Sprintf("🟡 %d > %d%s", b.Middle, t.Middle, unit),
		"",
		"OK:",
		fmt.Sprintf("🟢 %s ≤ %d%s", accentStyle.Render(fmt.Sprint(b.OK)), t.Middle, unit),
	}
	return strings.Join(lines, "\n")
}

// ReportSizes shows the size buckets.
func (e *Engine) ReportSizes() Buckets {
	b := SizeBuckets(e.images)
	e.prompt.Note("Images by file size", renderBuckets(b, SizeTiers, "KB"))
	return b
}

// ReportWidths shows the width buckets.
func (e *Engine) ReportWidths() Buckets {
	b := WidthBuckets(e.images)
	e.prompt.Note("Images by pixel width", renderBuckets(b, WidthTiers, "px"))
	return b
}

// ReportMetadata tells the user how many images embed metadata, which a
// re-encode drops. It returns that count.
func (e *Engine) ReportMetadata() int {
	counts := map[string]int{}
	n := 0
	for _, img := range e.images {
		stats, ok := img.Stats()
		if !ok || len(stats.Metadata) == 0 {
			continue
		}
		n++
		for _, cat := range stats.Metadata {
			counts[cat]++
		}
	}
	if n == 0 {
		return 0
	}

	var parts []string
	for _, cat := range []string{imagefile.MetaGPS, imagefile.MetaModel, imagefile.MetaTimestamp} {
		if counts[cat] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", cat, counts[cat]))
		}
	}
	e.prompt.Info(fmt.Sprintf("%d image(s) embed metadata (%s). Re-encoding an image drops it; images left unchanged keep it.", n, strings.Join(parts, ", ")))
	return n
}

func listWidths(images []*imagefile.Image) string {
	return listImages(images, func(img *imagefile.Image) string {
		return fmt.Sprintf("(%dpx)", img.Width())
	})
}

func listSizes(images []*imagefile.Image) string {
	return listImages(images, func(img *imagefile.Image) string {
		return fmt.Sprintf("(%dKB)", img.SizeKB())
	})
}

func listImages(images []*imagefile.Image, detail func(*imagefile.Image) string) string {
	lines := make([]string, 0, len(images))
	for _, img := range images {
		line := "- " + img.RelPath()
		if detail != nil {
			line += " " + dimStyle.Render(detail(img))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Package codec wraps the pixel-level work: decoding, downscaling and
// encoding to each supported format.
package codec

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/jpegli"
)

// Format is an output image format.
type Format string

const (
	Unknown Format = ""
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	WebP    Format = "webp"
	AVIF    Format = "avif"
)

// Encoder defaults when no quality is requested.
const (
	DefaultJPEGQuality = 80
	DefaultWebPQuality = 80
	DefaultAVIFQuality = 50

	avifSpeed        = 10
	progressiveLevel = 2
)

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{JPEG, PNG, WebP, AVIF}
}

// FormatFromExt maps a file extension (with or without the dot, any case)
// to its Format.
func FormatFromExt(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return PNG
	case "jpg", "jpeg":
		return JPEG
	case "webp":
		return WebP
	case "avif":
		return AVIF
	default:
		return Unknown
	}
}

// Ext returns the extension written for files of this format.
func (f Format) Ext() string {
	if f == Unknown {
		return ""
	}
	return "." + string(f)
}

func (f Format) String() string {
	if f == Unknown {
		return "unknown"
	}
	return string(f)
}

// Options control a single encode.
type Options struct {
	Format Format
	// Quality is 1-100; 0 selects the format default. For PNG it picks a
	// compression level instead.
	Quality int
	// Lossless applies to WebP only.
	Lossless bool
	// Progressive applies to JPEG only.
	Progressive bool
}

// Decode reads a full image from r.
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// DecodeConfig reads dimensions and the registered format name without
// decoding pixel data.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	return image.DecodeConfig(r)
}

// Resize scales img down to width, keeping the aspect ratio. Images already
// at or below width are returned unchanged.
func Resize(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Encode writes img to w according to opts.
func Encode(w io.Writer, img image.Image, opts Options) error {
	switch opts.Format {
	case JPEG:
		q := qualityOr(opts.Quality, DefaultJPEGQuality)
		if opts.Progressive {
			return jpegli.Encode(w, img, &jpegli.EncodingOptions{
				Quality:          q,
				ProgressiveLevel: progressiveLevel,
				OptimizeCoding:   true,
			})
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(q))
	case PNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(PNGCompression(opts.Quality)))
	case WebP:
		return webp.Encode(w, img, &webp.Options{
			Lossless: opts.Lossless,
			Quality:  float32(qualityOr(opts.Quality, DefaultWebPQuality)),
		})
	case AVIF:
		q := qualityOr(opts.Quality, DefaultAVIFQuality)
		return avif.Encode(w, img, avif.Options{
			Quality:      q,
			QualityAlpha: q,
			Speed:        avifSpeed,
		})
	default:
		return fmt.Errorf("encode: unsupported format %q", opts.Format)
	}
}

// PNGCompression maps a 1-100 quality onto a zlib effort: lower quality
// spends more effort on a smaller file.
func PNGCompression(quality int) png.CompressionLevel {
	switch {
	case quality <= 0:
		return png.DefaultCompression
	case quality <= 33:
		return png.BestCompression
	case quality <= 66:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

func qualityOr(q, def int) int {
	if q <= 0 {
		return def
	}
	if q > 100 {
		return 100
	}
	return q
}

package imagefile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"savile/internal/codec"
	"savile/pkg/imgutil"
)

// Measure reads size, dimensions, scan mode and metadata of the file at
// Path and stores the result.
func (img *Image) Measure() (Stats, error) {
	file, err := os.Open(img.path)
	if err != nil {
		return Stats{}, &MeasurementError{Path: img.path, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Stats{}, &MeasurementError{Path: img.path, Err: err}
	}

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		return Stats{}, &MeasurementError{Path: img.path, Err: err}
	}
	if kind == imgutil.KindUnknown {
		return Stats{}, &MeasurementError{Path: img.path, Err: errors.New("unrecognised image data")}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Stats{}, &MeasurementError{Path: img.path, Err: err}
	}
	cfg, _, err := codec.DecodeConfig(file)
	if err != nil {
		return Stats{}, &MeasurementError{Path: img.path, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Stats{}, &MeasurementError{Path: img.path, Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	stats := Stats{
		Width:  cfg.Width,
		Height: cfg.Height,
		SizeKB: int((info.Size() + 1023) / 1024),
		Bytes:  info.Size(),
	}

	if kind == imgutil.KindJPEG {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if frame, err := codec.JPEGFrame(file); err == nil {
				stats.Progressive = codec.IsProgressiveFrame(frame)
			}
		}
	}

	// Metadata is informational; an unreadable block does not fail the
	// measurement.
	var flags metaFlags
	if f, err := analyzeExif(file); err == nil {
		flags = f
	}
	if kind == imgutil.KindPNG {
		if f, err := analyzePNGText(file); err == nil {
			flags = flags.or(f)
		}
	}
	stats.Metadata = flags.categories()

	img.stats = &stats
	return stats, nil
}

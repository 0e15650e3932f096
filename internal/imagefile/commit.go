package imagefile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"savile/internal/codec"
)

// Commit applies the staged ops and replaces the file on disk, then
// re-measures it.
//
// The new content is written to TempPath and synced. When the path is
// unchanged the temp file is renamed over it. When a reformat changed the
// extension the new path is claimed with a hard link, which fails if any
// file already holds that name, and the original is removed only after
// that. A crash therefore leaves at least one complete copy. With nothing
// staged the original bytes are rewritten unchanged.
//
// A failed commit leaves the original in place and the staged ops intact.
func (img *Image) Commit() (Stats, error) {
	info, err := os.Stat(img.path)
	if err != nil {
		return Stats{}, &CommitError{Path: img.path, Op: "read", Err: err}
	}

	final := img.finalPath()
	if final != img.path {
		if _, err := os.Lstat(final); err == nil {
			return Stats{}, &CommitError{Path: img.path, Op: "rename", Err: fmt.Errorf("%s: %w", final, fs.ErrExist)}
		}
	}

	data, err := img.render()
	if err != nil {
		return Stats{}, err
	}

	if err := writeSynced(img.tempPath, data, info.Mode().Perm()); err != nil {
		_ = os.Remove(img.tempPath)
		return Stats{}, &CommitError{Path: img.path, Op: "write temp", Err: err}
	}

	if final == img.path {
		err = os.Rename(img.tempPath, final)
	} else {
		err = claimFile(img.tempPath, final)
	}
	if err != nil {
		_ = os.Remove(img.tempPath)
		return Stats{}, &CommitError{Path: img.path, Op: "rename", Err: err}
	}

	original := img.path
	img.path = final
	img.ops = nil
	img.tempPath = UniqueSibling(final)

	if final != original {
		if err := os.Remove(original); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Stats{}, &CommitError{Path: original, Op: "remove original", Err: err}
		}
	}

	stats, err := img.Measure()
	if err != nil {
		return Stats{}, &CommitError{Path: final, Op: "measure", Err: err}
	}
	return stats, nil
}

// render produces the bytes to write: the original file when nothing is
// staged, otherwise one decode, the staged resizes and one encode.
func (img *Image) render() ([]byte, error) {
	if len(img.ops) == 0 {
		data, err := os.ReadFile(img.path)
		if err != nil {
			return nil, &CommitError{Path: img.path, Op: "read", Err: err}
		}
		return data, nil
	}

	file, err := os.Open(img.path)
	if err != nil {
		return nil, &CommitError{Path: img.path, Op: "read", Err: err}
	}
	decoded, err := codec.Decode(file)
	_ = file.Close()
	if err != nil {
		return nil, &CommitError{Path: img.path, Op: "read", Err: err}
	}

	widths, opts := img.encodePlan()
	for _, w := range widths {
		decoded = codec.Resize(decoded, w)
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, decoded, opts); err != nil {
		return nil, &CommitError{Path: img.path, Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

func writeSynced(path string, data []byte, perm fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// claimFile moves tmpPath to destPath only if destPath does not exist. Two
// commits racing for the same name cannot both win.
func claimFile(tmpPath, destPath string) error {
	err := os.Link(tmpPath, destPath)
	if err == nil {
		_ = os.Remove(tmpPath)
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}

	// No hard links on this filesystem: reserve the name, then rename over
	// the reservation.
	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	_ = f.Close()
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

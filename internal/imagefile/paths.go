package imagefile

import (
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const tempMarker = ".temp."

// UniqueSibling returns a path next to path with ".temp.<6 hex chars>"
// inserted before the extension, e.g. a/photo.temp.3f9c1a.jpg.
func UniqueSibling(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), base+tempMarker+randomSuffix()+ext)
}

// WithExtension replaces the final extension of path with ext. The leading
// dot on ext is optional.
func WithExtension(path, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func randomSuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:3])
}

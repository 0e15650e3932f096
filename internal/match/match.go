// Package match selects images by glob query or by measured width.
//
// Queries are case-insensitive globs (doublestar syntax: *, ?, [...], {a,b}
// and **) matched against any trailing run of path segments, so "one.png"
// finds every one.png and "sub/*" finds the direct children of any
// directory named sub.
package match

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// JPEGQuery selects JPEG files by extension.
const JPEGQuery = "*.{jpg,jpeg}"

// Pathed is anything with a filesystem path.
type Pathed interface {
	Path() string
}

// Sized is anything with a measured pixel width.
type Sized interface {
	Width() int
}

// Valid reports whether pattern is non-empty and well formed.
func Valid(pattern string) bool {
	pattern = normalize(pattern)
	return pattern != "" && doublestar.ValidatePattern(pattern)
}

// Path reports whether pattern matches path.
func Path(pattern, path string) bool {
	pattern = normalize(pattern)
	if pattern == "" {
		return false
	}
	p := normalize(path)

	if strings.HasPrefix(pattern, "/") {
		ok, _ := doublestar.Match(pattern, p)
		return ok
	}

	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if ok, err := doublestar.Match(pattern, strings.Join(segs[i:], "/")); err != nil {
			return false
		} else if ok {
			return true
		}
	}
	return false
}

// ByPattern keeps the items whose path matches pattern, in input order.
// An empty or malformed pattern matches nothing.
func ByPattern[T Pathed](items []T, pattern string) []T {
	var out []T
	for _, item := range items {
		if Path(pattern, item.Path()) {
			out = append(out, item)
		}
	}
	return out
}

// ByWidthAbove keeps the items strictly wider than threshold.
func ByWidthAbove[T Sized](items []T, threshold int) []T {
	var out []T
	for _, item := range items {
		if item.Width() > threshold {
			out = append(out, item)
		}
	}
	return out
}

// IsJPEG reports whether path has a JPEG extension.
func IsJPEG(path string) bool {
	ok, _ := doublestar.Match(JPEGQuery, normalize(filepath.Base(path)))
	return ok
}

func normalize(s string) string {
	return strings.ToLower(filepath.ToSlash(strings.TrimSpace(s)))
}

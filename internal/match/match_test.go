package match

import (
	"testing"
)

type file struct {
	path  string
	width int
}

func (f file) Path() string { return f.path }
func (f file) Width() int   { return f.width }

var library = []file{
	{path: "/srv/images/one.png"},
	{path: "/srv/images/two.jpg"},
	{path: "/srv/images/sub/one.png"},
	{path: "/srv/images/sub/two.JPEG"},
	{path: "/srv/images/sub2/thingy-one.jpg"},
	{path: "/srv/images/sub2/thingy-two.png"},
}

func TestByPattern(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"*.jpg", 2},
		{"*.jpeg", 1},
		{"*.JPG", 2},
		{"*.{jpg,jpeg}", 3},
		{"sub/*", 2},
		{"thingy-*.jpg", 1},
		{"thingy-*.*", 2},
		{"one.png", 2},
		{"sub2/thingy-two.png", 1},
		{"images/**/*.png", 3},
		{"/srv/images/*.png", 1},
		{"missing.gif", 0},
		{"", 0},
		{"[", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := ByPattern(library, tt.query); len(got) != tt.want {
				t.Errorf("ByPattern(%q) matched %d (%v), want %d", tt.query, len(got), got, tt.want)
			}
		})
	}
}

func TestByPatternKeepsOrder(t *testing.T) {
	got := ByPattern(library, "*.png")
	want := []string{"/srv/images/one.png", "/srv/images/sub/one.png", "/srv/images/sub2/thingy-two.png"}
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].path != want[i] {
			t.Errorf("match %d = %q, want %q", i, got[i].path, want[i])
		}
	}
}

func TestByWidthAbove(t *testing.T) {
	set := []file{
		{width: 2400}, {width: 3000}, {width: 2001},
		{width: 2000}, {width: 1500}, {width: 1001},
	}
	if got := ByWidthAbove(set, 2000); len(got) != 3 {
		t.Errorf("ByWidthAbove(2000) = %d, want 3", len(got))
	}
	if got := ByWidthAbove(set, 1000); len(got) != 6 {
		t.Errorf("ByWidthAbove(1000) = %d, want 6", len(got))
	}
	if got := ByWidthAbove(set, 3000); len(got) != 0 {
		t.Errorf("ByWidthAbove(3000) = %d, want 0", len(got))
	}
}

func TestIsJPEG(t *testing.T) {
	tests := map[string]bool{
		"/a/photo.jpg":      true,
		"/a/photo.JPEG":     true,
		"/a/photo.png":      false,
		"/a/jpg/photo.webp": false,
	}
	for path, want := range tests {
		if got := IsJPEG(path); got != want {
			t.Errorf("IsJPEG(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if Valid("") || Valid("   ") {
		t.Error("empty pattern reported valid")
	}
	if Valid("{a,b") {
		t.Error("unbalanced brace reported valid")
	}
	if !Valid("*.{jpg,png}") {
		t.Error("brace pattern reported invalid")
	}
}

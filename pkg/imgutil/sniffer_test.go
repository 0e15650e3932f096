package imgutil

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 8)...), KindJPEG},
		{"png", []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d}, KindPNG},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBP"), KindWebP},
		{"avif", []byte("\x00\x00\x00\x1cftypavif"), KindAVIF},
		{"avif sequence", []byte("\x00\x00\x00\x1cftypavis"), KindAVIF},
		{"heic is not avif", []byte("\x00\x00\x00\x1cftypheic"), KindUnknown},
		{"riff wave", []byte("RIFF\x24\x00\x00\x00WAVE"), KindUnknown},
		{"text", []byte("hello, world"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHeader(tt.header)
			if err != nil {
				t.Fatalf("DetectHeader: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectHeader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSniffReaderShort(t *testing.T) {
	_, err := SniffReader(bytes.NewReader([]byte{0xff, 0xd8}))
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

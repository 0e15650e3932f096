package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies an image container recognised by its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindWebP
	KindAVIF
)

// HeaderSize is the number of bytes DetectHeader needs to tell every Kind apart.
const HeaderSize = 12

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindWebP:
		return "webp"
	case KindAVIF:
		return "avif"
	default:
		return "unknown"
	}
}

var (
	pngSig  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig = []byte{0xff, 0xd8, 0xff}
	riffSig = []byte("RIFF")
	webpSig = []byte("WEBP")
	ftypSig = []byte("ftyp")

	avifBrands = [][]byte{[]byte("avif"), []byte("avis")}
)

var ErrShortHeader = errors.New("header too short")

// DetectHeader inspects the first HeaderSize bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, ErrShortHeader
	}

	if bytes.HasPrefix(header, jpegSig) {
		return KindJPEG, nil
	}
	if bytes.HasPrefix(header, pngSig) {
		return KindPNG, nil
	}
	if bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], webpSig) {
		return KindWebP, nil
	}
	if bytes.Equal(header[4:8], ftypSig) {
		for _, brand := range avifBrands {
			if bytes.Equal(header[8:12], brand) {
				return KindAVIF, nil
			}
		}
	}

	return KindUnknown, nil
}

// SniffFile reads the head of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return KindUnknown, ErrShortHeader
		}
		return KindUnknown, err
	}

	return DetectHeader(header)
}

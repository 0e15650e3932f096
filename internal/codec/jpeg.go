package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	markerSOF0  = 0xc0
	markerDHT   = 0xc4
	markerJPG   = 0xc8
	markerDAC   = 0xcc
	markerSOF15 = 0xcf
	markerEOI   = 0xd9
	markerSOS   = 0xda
)

// progressiveFrames are SOF2, SOF6, SOF10 and SOF14.
var progressiveFrames = map[byte]bool{0xc2: true, 0xc6: true, 0xca: true, 0xce: true}

// JPEGFrame walks JPEG segments up to the first start-of-frame marker and
// returns it (0xc0 baseline, 0xc2 progressive, ...).
func JPEGFrame(r io.Reader) (byte, error) {
	br := bufio.NewReader(r)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return 0, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return 0, fmt.Errorf("invalid JPEG SOI")
	}

	for {
		prefix, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		for prefix != 0xff {
			if prefix, err = br.ReadByte(); err != nil {
				return 0, err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		for marker == 0xff {
			if marker, err = br.ReadByte(); err != nil {
				return 0, err
			}
		}

		switch {
		case marker == markerEOI || marker == markerSOS:
			return 0, fmt.Errorf("no JPEG frame header before scan data")
		case marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			continue
		case marker >= markerSOF0 && marker <= markerSOF15 &&
			marker != markerDHT && marker != markerJPG && marker != markerDAC:
			return marker, nil
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return 0, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return 0, fmt.Errorf("invalid JPEG segment length")
		}
		if _, err := br.Discard(segLen - 2); err != nil {
			return 0, err
		}
	}
}

// IsProgressiveJPEG reports whether data is a JPEG whose frame uses
// progressive scans.
func IsProgressiveJPEG(data []byte) bool {
	frame, err := JPEGFrame(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return IsProgressiveFrame(frame)
}

// IsProgressiveFrame reports whether a start-of-frame marker from JPEGFrame
// denotes progressive scans.
func IsProgressiveFrame(frame byte) bool {
	return progressiveFrames[frame]
}

package imagefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Metadata categories found in embedded EXIF or PNG text chunks. Every
// rewrite drops them.
const (
	MetaGPS       = "GPS"
	MetaModel     = "Device Model"
	MetaTimestamp = "Timestamp"
)

type metaFlags struct {
	gps       bool
	model     bool
	timestamp bool
}

func (f metaFlags) or(o metaFlags) metaFlags {
	return metaFlags{gps: f.gps || o.gps, model: f.model || o.model, timestamp: f.timestamp || o.timestamp}
}

func (f metaFlags) categories() []string {
	var cats []string
	if f.gps {
		cats = append(cats, MetaGPS)
	}
	if f.model {
		cats = append(cats, MetaModel)
	}
	if f.timestamp {
		cats = append(cats, MetaTimestamp)
	}
	return cats
}

func analyzeExif(rs io.ReadSeeker) (metaFlags, error) {
	var flags metaFlags
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return flags, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return flags, nil
		}
		return flags, err
	}

	for _, tag := range tags {
		switch name := tag.TagName; {
		case strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS"):
			flags.gps = true
		case name == "Model" || name == "CameraModelName":
			flags.model = true
		case name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime":
			flags.timestamp = true
		}
	}
	return flags, nil
}

func isNoExif(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}

// maxKeywordLen is the longest keyword a PNG text chunk may carry.
const maxKeywordLen = 79

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// analyzePNGText walks PNG chunks and classifies text chunk keywords. A tIME
// chunk counts as a timestamp.
func analyzePNGText(rs io.ReadSeeker) (metaFlags, error) {
	var flags metaFlags
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return flags, err
	}
	br := bufio.NewReader(rs)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return flags, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return flags, errors.New("invalid PNG signature")
	}

	var header [8]byte
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return flags, nil
			}
			return flags, err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))
		chunk := string(header[4:])

		switch chunk {
		case "tEXt", "zTXt", "iTXt":
			// Only the keyword is needed; the length field is untrusted.
			head := make([]byte, min(length, maxKeywordLen+1))
			if _, err := io.ReadFull(br, head); err != nil {
				return flags, err
			}
			if i := bytes.IndexByte(head, 0); i > 0 {
				flags = flags.or(classifyKeyword(string(head[:i])))
			}
			length -= int64(len(head))
		case "tIME":
			flags.timestamp = true
		}

		// Skip the remaining payload and the CRC.
		if _, err := io.CopyN(io.Discard, br, length+4); err != nil {
			return flags, err
		}
		if chunk == "IEND" {
			return flags, nil
		}
	}
}

func classifyKeyword(key string) metaFlags {
	lower := strings.ToLower(key)
	return metaFlags{
		gps:       strings.Contains(lower, "gps") || strings.Contains(lower, "latitude") || strings.Contains(lower, "longitude"),
		model:     strings.Contains(lower, "model") || strings.Contains(lower, "make"),
		timestamp: strings.Contains(lower, "date") || strings.Contains(lower, "time"),
	}
}

package source

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is returned when file content is neither UTF-8 nor
// BOM-marked UTF-16.
var ErrInvalidEncoding = errors.New("invalid text encoding")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText converts raw file bytes into UTF-8 without a byte order mark.
// Generators on Windows often emit UTF-16 with a BOM; everything else must
// already be valid UTF-8.
func decodeText(raw []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		flags |= FileHadBOM
	case bytes.HasPrefix(raw, bomUTF16LE), bytes.HasPrefix(raw, bomUTF16BE):
		flags |= FileHadBOM | FileDecodedUTF16
	}

	out := raw
	if flags&FileHadBOM != 0 {
		decoded, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), raw)
		if err != nil {
			return nil, flags, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		out = decoded
	}
	if !utf8.Valid(out) {
		return nil, flags, ErrInvalidEncoding
	}
	return out, flags, nil
}

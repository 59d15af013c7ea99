package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// PrimaryEncoding is always tried first.
	PrimaryEncoding = "utf-8"
	// byteOrderMark is stripped from the head of fallback-decoded text.
	byteOrderMark = "\ufeff"
)

// ErrDecode indicates content that decodes under neither the primary nor the
// secondary encoding. Callers can check for it using errors.Is.
var ErrDecode = errors.New("content could not be decoded")

// ErrUnknownEncoding indicates a secondary encoding name that cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Result is the outcome of a successful decode.
type Result struct {
	// Text is the decoded content as UTF-8.
	Text string
	// Encoding is the name of the encoding that succeeded.
	Encoding string
	// Fallback reports whether the secondary encoding was needed.
	Fallback bool
}

// Decoder converts raw file content to text.
type Decoder interface {
	// Decode tries the primary encoding and, only if that fails, the secondary
	// encoding once. It returns an error wrapping ErrDecode when both fail.
	Decode(content []byte) (Result, error)
}

// twoStageDecoder implements Decoder with strict UTF-8 as the primary stage
// and a single configurable secondary encoding.
type twoStageDecoder struct {
	secondaryName string
	secondary     textenc.Encoding
	wide          bool // secondary is a 16-bit encoding; odd byte counts are truncated data
	bigEndian     bool // default code unit order when wide
	honourBOM     bool // a leading byte order mark overrides bigEndian
}

// NewTwoStageDecoder creates a Decoder whose fallback is the named encoding.
// "utf-16" honours a byte order mark and defaults to little-endian. Other
// names are resolved through the WHATWG label table (e.g. "windows-1252").
func NewTwoStageDecoder(secondary string) (Decoder, error) {
	enc, name, wide, err := LookupSecondary(secondary)
	if err != nil {
		return nil, err
	}
	return &twoStageDecoder{
		secondaryName: name,
		secondary:     enc,
		wide:          wide,
		bigEndian:     name == "utf-16be",
		honourBOM:     name == "utf-16",
	}, nil
}

// LookupSecondary resolves a secondary encoding name.
func LookupSecondary(name string) (enc textenc.Encoding, canonical string, wide bool, err error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "utf-16", true, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "utf-16le", true, nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "utf-16be", true, nil
	case "":
		return nil, "", false, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	enc, canonical = charset.Lookup(normalized)
	if enc == nil {
		return nil, "", false, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, canonical, false, nil
}

// Decode implements the Decoder interface.
func (d *twoStageDecoder) Decode(content []byte) (Result, error) {
	if utf8.Valid(content) {
		return Result{Text: string(content), Encoding: PrimaryEncoding}, nil
	}

	if d.wide {
		if len(content)%2 != 0 {
			return Result{}, fmt.Errorf("%w: %s: truncated data (%d bytes)", ErrDecode, d.secondaryName, len(content))
		}
		if err := d.validateSurrogates(content); err != nil {
			return Result{}, fmt.Errorf("%w: %s: %w", ErrDecode, d.secondaryName, err)
		}
	}

	reader := transform.NewReader(bytes.NewReader(content), d.secondary.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrDecode, d.secondaryName, err)
	}
	// x/text substitutes U+FFFD for invalid input instead of failing. UTF-16
	// input was validated above, so any U+FFFD left there is literal. For other
	// encodings a literal U+FFFD survives re-encoding, a substituted one does not.
	if !d.wide && bytes.ContainsRune(decoded, utf8.RuneError) {
		reencoded, err := d.secondary.NewEncoder().Bytes(decoded)
		if err != nil || !bytes.Equal(reencoded, content) {
			return Result{}, fmt.Errorf("%w: %s: invalid byte sequence", ErrDecode, d.secondaryName)
		}
	}

	return Result{
		Text:     strings.TrimPrefix(string(decoded), byteOrderMark),
		Encoding: d.secondaryName,
		Fallback: true,
	}, nil
}

// validateSurrogates rejects UTF-16 content with unpaired surrogate code units.
func (d *twoStageDecoder) validateSurrogates(content []byte) error {
	bigEndian := d.bigEndian
	if d.honourBOM && len(content) >= 2 {
		switch {
		case content[0] == 0xfe && content[1] == 0xff:
			bigEndian = true
		case content[0] == 0xff && content[1] == 0xfe:
			bigEndian = false
		}
	}
	unit := func(i int) uint16 {
		if bigEndian {
			return uint16(content[i])<<8 | uint16(content[i+1])
		}
		return uint16(content[i+1])<<8 | uint16(content[i])
	}

	for i := 0; i < len(content); i += 2 {
		u := unit(i)
		switch {
		case u >= 0xd800 && u < 0xdc00:
			if i+2 >= len(content) {
				return fmt.Errorf("unpaired surrogate at byte %d", i)
			}
			if next := unit(i + 2); next < 0xdc00 || next >= 0xe000 {
				return fmt.Errorf("unpaired surrogate at byte %d", i)
			}
			i += 2
		case u >= 0xdc00 && u < 0xe000:
			return fmt.Errorf("unpaired surrogate at byte %d", i)
		}
	}
	return nil
}

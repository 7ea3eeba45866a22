// Package textcodec resolves text encodings by name and converts file bytes
// to and from Go strings, refusing content that does not belong to the
// encoding instead of silently substituting replacement characters.
package textcodec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when no encoding name is configured.
const DefaultEncoding = "utf-8"

var (
	// ErrUnknownEncoding is returned by Lookup for names no index recognizes.
	ErrUnknownEncoding = errors.New("unknown text encoding")

	// ErrUndecodable is returned by Decode when the bytes are not valid text
	// in the codec's encoding (typically a binary file).
	ErrUndecodable = errors.New("content is not valid text in the configured encoding")

	// ErrUnencodable is returned by Encode when the text contains characters
	// the encoding cannot represent.
	ErrUnencodable = errors.New("text cannot be represented in the configured encoding")
)

// Codec decodes and encodes whole file contents.
type Codec struct {
	name string
	enc  encoding.Encoding
	// bom marks utf-8-sig: an optional leading BOM is stripped on decode and
	// always written on encode
	bom bool
}

// utf8BOM is the UTF-8 encoding of U+FEFF.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// aliases maps common spellings that neither index resolves, or that the
// WHATWG index would reinterpret, to IANA names.
var aliases = map[string]string{
	"ascii":   "us-ascii",
	"utf8":    "utf-8",
	"latin-1": "iso-8859-1",
	"cp1252":  "windows-1252",
}

// bomNames select UTF-8 with a byte order mark.
var bomNames = map[string]bool{
	"utf-8-sig": true,
	"utf8-sig":  true,
}

// SupportedNames lists example names accepted by Lookup, for help texts.
const SupportedNames = "utf-8, utf-8-sig, ascii, latin-1, windows-1252, shift_jis, euc-jp, gbk, utf-16le, or any IANA charset name"

// Lookup returns the codec registered under name. Known aliases are mapped
// first, then IANA names, then MIME names. A WHATWG label is accepted only
// when it is the encoding's canonical name, so labels such as "ascii" are
// never silently widened to windows-1252. Underscores are accepted in place
// of hyphens ("utf_8", "iso_8859_1").
func Lookup(name string) (*Codec, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = DefaultEncoding
	}

	candidates := []string{strings.ToLower(trimmed)}
	if alt := strings.ReplaceAll(candidates[0], "_", "-"); alt != candidates[0] {
		candidates = append(candidates, alt)
	}

	for _, candidate := range candidates {
		if bomNames[candidate] {
			return &Codec{name: trimmed, enc: unicode.UTF8, bom: true}, nil
		}
		if alias, ok := aliases[candidate]; ok {
			candidate = alias
		}
		if enc := lookupIndexes(candidate); enc != nil {
			return &Codec{name: trimmed, enc: enc}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

func lookupIndexes(label string) encoding.Encoding {
	for _, index := range []*ianaindex.Index{ianaindex.IANA, ianaindex.MIME} {
		if enc, err := index.Encoding(label); err == nil && enc != nil {
			return enc
		}
	}
	if enc, err := htmlindex.Get(label); err == nil && enc != nil {
		if canonical, err := htmlindex.Name(enc); err == nil && canonical == label {
			return enc
		}
	}
	return nil
}

// Name returns the name the codec was looked up with.
func (c *Codec) Name() string {
	return c.name
}

func (c *Codec) isUTF8() bool {
	return c.enc == unicode.UTF8
}

// Decode converts raw file content to a string. A decode is accepted only if
// encoding the result reproduces the input byte for byte.
func (c *Codec) Decode(raw []byte) (string, error) {
	if c.bom {
		raw = bytes.TrimPrefix(raw, utf8BOM)
	}
	if c.isUTF8() {
		if !utf8.Valid(raw) {
			return "", ErrUndecodable
		}
		return string(raw), nil
	}

	decoded, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	roundTrip, err := c.enc.NewEncoder().Bytes(decoded)
	if err != nil || !bytes.Equal(roundTrip, raw) {
		return "", ErrUndecodable
	}

	return string(decoded), nil
}

// Encode converts text back to the codec's byte representation.
func (c *Codec) Encode(text string) ([]byte, error) {
	if c.bom {
		return append(bytes.Clone(utf8BOM), text...), nil
	}
	if c.isUTF8() {
		return []byte(text), nil
	}

	out, err := c.enc.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return []byte(out), nil
}

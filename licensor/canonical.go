package licensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Encoding names recorded in license files.
const (
	EncodingLine = "line"
	EncodingJCS  = "jcs"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Encoder turns a feature set into the exact bytes that are signed and verified.
// Implementations must be deterministic and injective: equal sets give equal
// bytes regardless of insertion order, different sets never collide.
type Encoder interface {
	Name() string
	Encode(f Features) ([]byte, error)
}

// LineEncoder is the default canonical form. Entries are sorted by name and
// written as escape(name) '=' escape(value) '\n', where escape replaces
// '\' with `\\`, '=' with `\=`, LF with `\n` and CR with `\r`.
// An empty set encodes to zero bytes.
type LineEncoder struct{}

var lineEscaper = strings.NewReplacer(
	`\`, `\\`,
	`=`, `\=`,
	"\n", `\n`,
	"\r", `\r`,
)

func (LineEncoder) Name() string { return EncodingLine }

func (LineEncoder) Encode(f Features) ([]byte, error) {
	var buf bytes.Buffer
	for _, name := range f.Names() {
		value := f[name]
		if !utf8.ValidString(name) || !utf8.ValidString(value) {
			return nil, &EncodingError{Encoding: EncodingLine, Feature: name, Err: errInvalidUTF8}
		}
		buf.WriteString(lineEscaper.Replace(name))
		buf.WriteByte('=')
		buf.WriteString(lineEscaper.Replace(value))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// JCSEncoder encodes the feature set as a JSON object canonicalized per
// RFC 8785 (sorted keys, minimal escaping).
type JCSEncoder struct{}

func (JCSEncoder) Name() string { return EncodingJCS }

func (JCSEncoder) Encode(f Features) ([]byte, error) {
	for name, value := range f {
		if !utf8.ValidString(name) || !utf8.ValidString(value) {
			return nil, &EncodingError{Encoding: EncodingJCS, Feature: name, Err: errInvalidUTF8}
		}
	}
	if f == nil {
		f = Features{}
	}
	raw, err := json.Marshal(map[string]string(f))
	if err != nil {
		return nil, &EncodingError{Encoding: EncodingJCS, Err: err}
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, &EncodingError{Encoding: EncodingJCS, Err: err}
	}
	return out, nil
}

// EncoderByName returns the encoder registered under name.
func EncoderByName(name string) (Encoder, error) {
	switch name {
	case EncodingLine, "":
		return LineEncoder{}, nil
	case EncodingJCS:
		return JCSEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown canonical encoding %q", ErrEncoding, name)
	}
}

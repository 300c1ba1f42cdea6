package ms670x

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/kentavv/ms670x/internal/stream"
)

// Result is one decoded stream event.
type Result = stream.Result

// NewReader returns a stream reader decoding meter bytes from r. r may be a
// serial port, a capture file or stdin.
func NewReader(r io.Reader, opts Options) *stream.Reader {
	return stream.NewReader(stream.NewIOSource(r), opts.readerOptions()...)
}

// DecodeHex decodes a hex dump of a raw meter stream into its events.
func DecodeHex(ctx context.Context, raw string) ([]Result, error) {
	return DecodeHexWithOptions(ctx, raw, Options{})
}

// DecodeHexWithOptions decodes a hex dump with custom options.
func DecodeHexWithOptions(ctx context.Context, raw string, opts Options) ([]Result, error) {
	data, err := decodeHex(raw)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(ctx, data, opts)
}

// DecodeBytes decodes a complete raw capture into its events.
func DecodeBytes(ctx context.Context, data []byte, opts Options) ([]Result, error) {
	r := NewReader(bytes.NewReader(data), opts)
	var out []Result
	for {
		res, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, res)
	}
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(strings.ToUpper(clean), "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex capture must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

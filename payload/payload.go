package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

var (
	// ErrCorrupt is returned when stored bytes are not a JSON object.
	ErrCorrupt = errors.New("payload: corrupt session data")
	// ErrUnsupportedValue is returned when a payload holds a value JSON cannot represent.
	ErrUnsupportedValue = errors.New("payload: unsupported value")
)

// Payload is the native session data mapping.
type Payload map[string]any

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// ToStore serializes p to compact JSON. HTML-sensitive characters are written
// literally, matching JSON.stringify. A nil payload encodes as {}.
//
// Go types are not preserved: every number comes back from FromStore as a
// json.Number, structs and typed maps as map[string]any, and typed slices as
// []any. FromStore(ToStore(p)) equals p only when p is already in that shape,
// which Normalize produces.
func ToStore(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	if err := validate(map[string]any(p), "$"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(p)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FromStore parses stored bytes. Empty input and a JSON null both mean "no
// session data" and yield an empty payload. Anything that is not a single
// JSON object fails with ErrCorrupt.
//
// Numbers decode as json.Number so integers beyond 2^53 keep their digits.
// Objects decode as map[string]any and arrays as []any.
func FromStore(data []byte) (Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Payload{}, nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrCorrupt)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrCorrupt)
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrCorrupt, v)
	}
	return Payload(m), nil
}

// Normalize returns p as it will look after a store round trip.
func Normalize(p Payload) (Payload, error) {
	data, err := ToStore(p)
	if err != nil {
		return nil, err
	}
	return FromStore(data)
}

func validate(v any, path string) error {
	switch x := v.(type) {
	case nil, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case string:
		if !utf8.ValidString(x) {
			return fmt.Errorf("%w: invalid UTF-8 at %s", ErrUnsupportedValue, path)
		}
		return nil
	case float64:
		return checkFloat(x, path)
	case float32:
		return checkFloat(float64(x), path)
	case json.Number:
		if _, err := x.Float64(); err != nil {
			return fmt.Errorf("%w: bad number %q at %s", ErrUnsupportedValue, x.String(), path)
		}
		return nil
	case []any:
		for i, e := range x {
			if err := validate(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for i, e := range x {
			if err := validate(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		return validateMap(x, path)
	case Payload:
		return validateMap(x, path)
	case map[string]string:
		for k, e := range x {
			if err := validate(e, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T at %s", ErrUnsupportedValue, v, path)
	}
}

func validateMap(m map[string]any, path string) error {
	for k, e := range m {
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: invalid UTF-8 key at %s", ErrUnsupportedValue, path)
		}
		if err := validate(e, path+"."+k); err != nil {
			return err
		}
	}
	return nil
}

func checkFloat(f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: non-finite number at %s", ErrUnsupportedValue, path)
	}
	return nil
}

package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// EncodingError indicates that an answer payload contained a value that
// cannot be canonically serialized. It is fatal to the capture operation
// that supplied the payload.
type EncodingError struct {
	Field string // Path of the offending field, e.g. "answers.sector"
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("encoding error [field=%s]: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("encoding error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// NewEncodingError creates a new EncodingError.
func NewEncodingError(field string, cause error) *EncodingError {
	return &EncodingError{Field: field, Cause: cause}
}

// Canonicalize serializes an answer payload into its canonical byte form.
// The result is deterministic: two payloads with equal contents produce
// byte-identical output regardless of map iteration order, platform, or
// the Go runtime version.
//
// Returns an EncodingError if the payload contains a value outside the
// supported set.
func Canonicalize(answers map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeMap(&buf, answers, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustCanonicalize is a test and fixture helper; it panics on encoding
// failure.
func MustCanonicalize(answers map[string]any) []byte {
	b, err := Canonicalize(answers)
	if err != nil {
		panic(err)
	}
	return b
}

func encodeValue(buf *bytes.Buffer, v any, path string) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return encodeString(buf, val)
	case json.Number:
		// json.Number is already a decimal literal; emit verbatim after
		// confirming it parses.
		if _, err := val.Float64(); err != nil {
			return NewEncodingError(path, fmt.Errorf("invalid number literal %q", string(val)))
		}
		buf.WriteString(string(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		return encodeFloat(buf, float64(val), path)
	case float64:
		return encodeFloat(buf, val, path)
	case []any:
		return encodeSlice(buf, val, path)
	case []string:
		converted := make([]any, len(val))
		for i, s := range val {
			converted[i] = s
		}
		return encodeSlice(buf, converted, path)
	case map[string]any:
		return encodeMap(buf, val, path)
	default:
		return NewEncodingError(path, fmt.Errorf("unsupported value type %T", v))
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NewEncodingError(path, fmt.Errorf("non-finite float %v", f))
	}
	// Whole-valued floats are emitted as integers so that YAML and JSON
	// decodings of the same answer agree byte-for-byte.
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.Write(strconv.AppendFloat(nil, f, 'g', -1, 64))
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	// encoding/json escaping is stable across platforms and Go releases
	// for the escape set we rely on.
	b, err := json.Marshal(s)
	if err != nil {
		return NewEncodingError("", err)
	}
	buf.Write(b)
	return nil
}

func encodeSlice(buf *bytes.Buffer, vals []any, path string) error {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		if err := encodeValue(buf, v, elemPath); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeMap(buf *bytes.Buffer, m map[string]any, path string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		if err := encodeValue(buf, m[k], childPath); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// Decode parses a canonical payload back into a map. Canonical payloads
// are valid JSON, so this is a thin wrapper that keeps number fidelity by
// decoding into json.Number.
func Decode(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, NewEncodingError("", err)
	}
	return m, nil
}

// Package json turns JSON documents into records.
//
// Accepted layouts:
//
//   - a top-level array of objects (the usual export format),
//   - a single object,
//   - newline-delimited objects (NDJSON), also after a leading array.
//
// Numbers are decoded as json.Number so identifiers keep their literal text.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"rxetl/pkg/records"
)

// ErrEmptyInput is returned when the input holds no JSON value at all.
var ErrEmptyInput = errors.New("json parser: empty input")

// Options controls which top-level layouts DecodeAll accepts.
type Options struct {
	AllowArrays bool
}

// decoder reads a stream of top-level JSON objects.
type decoder struct {
	dec *json.Decoder
}

// newDecoder constructs a decoder over r.
func newDecoder(r io.Reader) *decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &decoder{dec: d}
}

// next returns the next object in the stream, or io.EOF when it is
// exhausted. A non-object top-level value is an error.
func (d *decoder) next() (records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json parser: top-level %s is not an object", kindOf(raw))
	}
	return records.Record(m), nil
}

// DecodeAll reads every object from r.
func DecodeAll(r io.Reader, opt Options) ([]records.Record, error) {
	d := json.NewDecoder(r)
	d.UseNumber()

	var root any
	if err := d.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("json parser: decode root: %w", err)
	}

	out := []records.Record{}
	switch v := root.(type) {
	case map[string]any:
		out = append(out, records.Record(v))
	case []any:
		if !opt.AllowArrays {
			return nil, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
		}
		for i, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json parser: element %d in array is %s, not an object", i, kindOf(elem))
			}
			out = append(out, records.Record(obj))
		}
	default:
		return nil, fmt.Errorf("json parser: unsupported top-level %s", kindOf(v))
	}

	// Trailing values are read as NDJSON.
	rest := &decoder{dec: d}
	for {
		rec, err := rest.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

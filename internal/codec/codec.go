// Package codec converts record field values to and from the primitive value
// set a Datastore accepts.
//
// The store accepts nil, bool, integers, floats, strings, time.Time, ordered
// sequences ([]any) and string-keyed mappings (map[string]any) of those.
// UUIDs are stored as their canonical string form. Anything else is rejected
// before a write with an *EncodeError naming the field path and Go type.
package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

// ErrEncode is the sentinel wrapped by every *EncodeError.
var ErrEncode = errors.New("value cannot be stored")

// EncodeError reports a value outside the store's primitive set.
type EncodeError struct {
	Path string // field path, e.g. "tags[2]" or "meta.owner"
	Type string // Go type of the offending value
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: %s at %q must be one of "+
		"nil, bool, int, float, string, time.Time, uuid.UUID, list, map",
		ErrEncode, e.Type, e.Path)
}

// Unwrap returns ErrEncode.
func (e *EncodeError) Unwrap() error { return ErrEncode }

var uuidType = reflect.TypeOf(uuid.UUID{})

// Encode converts a record's field mapping into store-safe values.
func Encode(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		ev, err := encode(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = ev
	}
	return out, nil
}

// EncodeValue converts a single value into a store-safe value.
func EncodeValue(v any) (any, error) {
	return encode("", v)
}

func encode(path string, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return x.String(), nil
	case bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case []any:
		if x == nil {
			return nil, nil
		}
		return encodeSlice(path, reflect.ValueOf(x))
	case map[string]any:
		if x == nil {
			return nil, nil
		}
		return encodeMap(path, reflect.ValueOf(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeSlice(path, rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return nil, nil
		}
		return encodeMap(path, rv)
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
	}
	return nil, &EncodeError{Path: path, Type: rv.Type().String()}
}

func encodeSlice(path string, rv reflect.Value) ([]any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		ev, err := encode(path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func encodeMap(path string, rv reflect.Value) (map[string]any, error) {
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		p := k
		if path != "" {
			p = path + "." + k
		}
		ev, err := encode(p, iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		out[k] = ev
	}
	return out, nil
}

// Decode fills out, a pointer to a record struct, from a raw property
// mapping returned by a Datastore. UUID fields are parsed from their string
// form and timestamps from RFC 3339 strings when the store returns text.
// Properties without a matching field are ignored.
func Decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToUUIDHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}

// stringToUUIDHook parses string identifiers, leaving an empty string as
// uuid.Nil so that missing references surface in Validate.
func stringToUUIDHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != uuidType || from.Kind() != reflect.String {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parsing uuid %q: %w", s, err)
	}
	return id, nil
}

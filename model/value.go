package model

import (
	"fmt"
	"reflect"
	"strconv"
)

// Normalize converts an arbitrary plain Go value into the store value model:
//   - nil, bool, string;
//   - every number becomes float64;
//   - maps with string keys become map[string]interface{} (nil entries dropped, empty maps become nil);
//   - slices and arrays become maps keyed by decimal index.
func Normalize(v interface{}) (interface{}, error) {
	return normalize(reflect.ValueOf(v))
}

func normalize(rv reflect.Value) (interface{}, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s: must be string", rv.Type().Key())
		}

		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			if err := ValidateKey(key); err != nil {
				return nil, err
			}

			child, err := normalize(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if child != nil {
				out[key] = child
			}
		}
		if len(out) == 0 {
			return nil, nil
		}

		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}

		out := make(map[string]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			child, err := normalize(rv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if child != nil {
				out[strconv.Itoa(i)] = child
			}
		}
		if len(out) == 0 {
			return nil, nil
		}

		return out, nil
	}

	return nil, fmt.Errorf("unsupported value type %s", rv.Type())
}

// Equal compares two values after normalization.
func Equal(a, b interface{}) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}

	return reflect.DeepEqual(na, nb)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}

	return 0, false
}

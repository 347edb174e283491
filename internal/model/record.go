package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawRecord is one backend record decoded from JSON without a fixed schema.
// Backend shapes vary between endpoints and API versions, so display fields
// are extracted through path lookups rather than struct tags.
type RawRecord map[string]any

// Lookup resolves a dot-separated path such as "shipper.pickUpLocations.0.city".
// Numeric segments index into arrays. It returns nil when any segment is missing.
func (r RawRecord) Lookup(path string) any {
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			cur = v[seg]
		case RawRecord:
			cur = v[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			cur = v[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// String returns the trimmed string at path. Numbers are formatted without
// trailing zeros; anything else (objects, arrays, bools, null) is absent.
func (r RawRecord) String(path string) (string, bool) {
	switch v := r.Lookup(path).(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

// Float returns the finite number at path. Numeric strings are accepted;
// NaN and infinities are treated as absent.
func (r RawRecord) Float(path string) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := r.Lookup(path).(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		f, err = v.Float64()
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Object returns the nested object at path.
func (r RawRecord) Object(path string) (RawRecord, bool) {
	switch v := r.Lookup(path).(type) {
	case map[string]any:
		return RawRecord(v), true
	case RawRecord:
		return v, true
	}
	return nil, false
}

// First returns the first element of the array at path.
func (r RawRecord) First(path string) (any, bool) {
	arr, ok := r.Lookup(path).([]any)
	if !ok || len(arr) == 0 || arr[0] == nil {
		return nil, false
	}
	return arr[0], true
}

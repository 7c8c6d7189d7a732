package config

import "strconv"

// Options is a free-form option bag decoded from JSON parser/source configs.
//
// Accessors are forgiving by design: a missing key or a value of the wrong
// shape falls back to the provided default. Parsers treat options as hints,
// not as a validated schema.
type Options map[string]any

// Bool returns the boolean option value, or def when absent/invalid.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return def
}

// Int returns the integer option value, or def when absent/invalid.
// JSON numbers decode as float64, so both forms are accepted.
func (o Options) Int(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

// String returns the string option value, or def when absent/invalid.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Rune returns the first rune of a string option, or def when absent/empty.
// Used for CSV delimiters.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	return []rune(s)[0]
}

// StringMap returns a string-to-string option value, or an empty map.
func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch t := o[key].(type) {
	case map[string]string:
		return t
	case map[string]any:
		for k, v := range t {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

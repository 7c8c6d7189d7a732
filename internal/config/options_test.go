package config

import (
	"reflect"
	"testing"
)

func TestOptionsBool(t *testing.T) {
	t.Parallel()

	o := Options{"a": true, "b": "true", "c": "nope", "d": 1}
	cases := []struct {
		key  string
		def  bool
		want bool
	}{
		{"a", false, true},
		{"b", false, true},
		{"c", true, true},
		{"d", false, false},
		{"missing", true, true},
	}
	for _, tc := range cases {
		if got := o.Bool(tc.key, tc.def); got != tc.want {
			t.Errorf("Bool(%q, %v)=%v, want %v", tc.key, tc.def, got, tc.want)
		}
	}
}

func TestOptionsInt(t *testing.T) {
	t.Parallel()

	o := Options{"i": 3, "f": 4.0, "s": "5", "bad": "x"}
	cases := []struct {
		key  string
		def  int
		want int
	}{
		{"i", 0, 3},
		{"f", 0, 4}, // JSON numbers arrive as float64
		{"s", 0, 5},
		{"bad", 7, 7},
		{"missing", 9, 9},
	}
	for _, tc := range cases {
		if got := o.Int(tc.key, tc.def); got != tc.want {
			t.Errorf("Int(%q, %d)=%d, want %d", tc.key, tc.def, got, tc.want)
		}
	}
}

func TestOptionsString(t *testing.T) {
	t.Parallel()

	o := Options{"s": "v", "n": 3}
	if got := o.String("s", "d"); got != "v" {
		t.Errorf("String(s)=%q, want v", got)
	}
	if got := o.String("n", "d"); got != "d" {
		t.Errorf("String(n)=%q, want default", got)
	}
	if got := o.String("missing", "d"); got != "d" {
		t.Errorf("String(missing)=%q, want default", got)
	}
}

func TestOptionsRune(t *testing.T) {
	t.Parallel()

	o := Options{"semi": ";", "empty": "", "multi": "ab"}
	if got := o.Rune("semi", ','); got != ';' {
		t.Errorf("Rune(semi)=%q, want ;", got)
	}
	if got := o.Rune("empty", ','); got != ',' {
		t.Errorf("Rune(empty)=%q, want default", got)
	}
	if got := o.Rune("multi", ','); got != 'a' {
		t.Errorf("Rune(multi)=%q, want first rune", got)
	}
	if got := o.Rune("missing", '\t'); got != '\t' {
		t.Errorf("Rune(missing)=%q, want default", got)
	}
}

func TestOptionsStringMap(t *testing.T) {
	t.Parallel()

	o := Options{
		"typed": map[string]string{"a": "1"},
		"json":  map[string]any{"b": "2", "n": 3},
	}
	if got := o.StringMap("typed"); !reflect.DeepEqual(got, map[string]string{"a": "1"}) {
		t.Errorf("StringMap(typed)=%v", got)
	}
	if got := o.StringMap("json"); !reflect.DeepEqual(got, map[string]string{"b": "2"}) {
		t.Errorf("StringMap(json)=%v, want non-string values dropped", got)
	}
	if got := o.StringMap("missing"); len(got) != 0 {
		t.Errorf("StringMap(missing)=%v, want empty", got)
	}
}

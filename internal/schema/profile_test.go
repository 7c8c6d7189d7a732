package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

func table(t *testing.T, cols ...*frame.Column) *frame.Table {
	t.Helper()
	tbl := frame.New()
	for _, c := range cols {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatalf("AddColumn(%s): %v", c.Name, err)
		}
	}
	return tbl
}

func TestProfileClassification(t *testing.T) {
	t.Parallel()

	tbl := table(t,
		&frame.Column{Name: "cont_int", Kind: frame.Int64, Vals: []any{1.0, 2.0, 3.0}},
		&frame.Column{Name: "flag", Kind: frame.Int64, Vals: []any{0.0, 1.0, 0.0}},
		&frame.Column{Name: "amt", Kind: frame.Float64, Vals: []any{1.5, nil, 9.5}},
		&frame.Column{Name: "cat", Kind: frame.String, Vals: []any{"b", "a", "b"}},
	)

	s := Profile(tbl)
	if len(s) != 4 {
		t.Fatalf("descriptors=%d, want 4", len(s))
	}

	byName := map[string]Descriptor{}
	for _, d := range s {
		byName[d.Column] = d
	}

	ci := byName["cont_int"]
	if !ci.Continuous || ci.Type != "int64" || ci.Min != 1 || ci.Max != 3 {
		t.Errorf("cont_int=%+v, want continuous int64 [1,3]", ci)
	}

	// two distinct values keep an int column categorical
	flag := byName["flag"]
	if flag.Continuous {
		t.Errorf("flag=%+v, want categorical", flag)
	}
	if !reflect.DeepEqual(flag.Values, []any{0.0, 1.0}) {
		t.Errorf("flag values=%v, want encountered order", flag.Values)
	}

	amt := byName["amt"]
	if !amt.Continuous || amt.Type != "float64" || amt.Min != 1 || amt.Max != 9 {
		t.Errorf("amt=%+v, want continuous float64 [1,9]", amt)
	}

	cat := byName["cat"]
	if cat.Continuous || !reflect.DeepEqual(cat.Values, []any{"b", "a"}) {
		t.Errorf("cat=%+v, want values in encountered order", cat)
	}
}

func TestProfileNarrowRangeBumped(t *testing.T) {
	t.Parallel()

	tbl := table(t,
		&frame.Column{Name: "same", Kind: frame.Float64, Vals: []any{5.0, 5.0}},
		&frame.Column{Name: "adjacent", Kind: frame.Float64, Vals: []any{5.0, 6.0}},
	)
	s := Profile(tbl)

	if s[0].Min != 5 || s[0].Max != 6 {
		t.Errorf("same range=[%d,%d], want [5,6]", s[0].Min, s[0].Max)
	}
	if s[1].Min != 5 || s[1].Max != 6 {
		t.Errorf("adjacent range=[%d,%d], want [5,6]", s[1].Min, s[1].Max)
	}
}

func TestProfileAllNullNumeric(t *testing.T) {
	t.Parallel()

	tbl := table(t,
		&frame.Column{Name: "empty", Kind: frame.Float64, Vals: []any{nil, nil}},
	)
	s := Profile(tbl)
	if !s[0].Continuous || s[0].Min != 0 || s[0].Max != 1 {
		t.Errorf("all-null profile=%+v, want degenerate [0,1]", s[0])
	}
}

func TestSchemaMarshalJSONOrdered(t *testing.T) {
	t.Parallel()

	tbl := table(t,
		&frame.Column{Name: "z", Kind: frame.Float64, Vals: []any{1.0, 2.5}},
		&frame.Column{Name: "a", Kind: frame.String, Vals: []any{"x", "y"}},
	)
	raw, err := json.Marshal(Profile(tbl))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := string(raw)
	if strings.Index(got, `"z"`) > strings.Index(got, `"a"`) {
		t.Errorf("json=%s, want dataset column order preserved", got)
	}
	want := `{"z":{"type":"float64","min":1,"max":2},"a":{"type":"object","values":["x","y"]}}`
	if got != want {
		t.Errorf("json=%s\nwant %s", got, want)
	}
}

func TestSchemaWriteFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	tbl := table(t, &frame.Column{Name: "v", Kind: frame.Float64, Vals: []any{0.0, 10.0}})

	if err := Profile(tbl).WriteFile(dir, "data_structure.json"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "data_structure.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "    \"type\"") {
		t.Error("output not indented with four spaces")
	}
	if !strings.HasSuffix(string(raw), "\n") {
		t.Error("output missing trailing newline")
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["v"]["min"] != 0.0 || decoded["v"]["max"] != 10.0 {
		t.Errorf("decoded=%v", decoded)
	}
}

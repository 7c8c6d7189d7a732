package storage

import (
	"context"
	"reflect"
	"testing"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

type fakeRepo struct{ cfg Config }

func (fakeRepo) Close() {}
func (fakeRepo) ReplaceFeatures(context.Context, string, []ColumnDef, [][]any) (int64, error) {
	return 0, nil
}
func (fakeRepo) SaveSchema(context.Context, string, []byte) error { return nil }

func TestRegisterAndNew(t *testing.T) {
	Register("faketest", func(_ context.Context, cfg Config) (Repository, error) {
		return fakeRepo{cfg: cfg}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "faketest", DSN: "dsn://x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := repo.(fakeRepo).cfg.DSN; got != "dsn://x" {
		t.Errorf("factory cfg DSN=%q", got)
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(context.Background(), Config{Kind: "nope"}); err == nil {
		t.Error("unknown kind accepted")
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("empty kind accepted")
	}
}

func TestRegisterPanics(t *testing.T) {
	mustPanic := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		fn()
	}

	mustPanic("empty kind", func() { Register("", func(context.Context, Config) (Repository, error) { return nil, nil }) })
	mustPanic("nil factory", func() { Register("nilfactory", nil) })

	Register("duptest", func(context.Context, Config) (Repository, error) { return nil, nil })
	mustPanic("duplicate kind", func() {
		Register("duptest", func(context.Context, Config) (Repository, error) { return nil, nil })
	})
}

func featureTable(t *testing.T) *frame.Table {
	t.Helper()
	tbl := frame.New()
	for _, c := range []*frame.Column{
		{Name: "SK_ID_CURR", Kind: frame.Int64, Vals: []any{1.0, 2.0}},
		{Name: "AMT_ANNUITY_mean", Kind: frame.Float64, Vals: []any{1200.5, nil}},
		{Name: "NAME_TYPE", Kind: frame.String, Vals: []any{"a", "b"}},
	} {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatalf("AddColumn: %v", err)
		}
	}
	return tbl
}

func TestFeatureColumns(t *testing.T) {
	t.Parallel()

	got := FeatureColumns(featureTable(t))
	want := []ColumnDef{
		{Name: "SK_ID_CURR", Numeric: true},
		{Name: "AMT_ANNUITY_mean", Numeric: true},
		{Name: "NAME_TYPE", Numeric: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FeatureColumns=%v, want %v", got, want)
	}
}

func TestFeatureRows(t *testing.T) {
	t.Parallel()

	got := FeatureRows(featureTable(t))
	want := [][]any{
		{1.0, 1200.5, "a"},
		{2.0, nil, "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FeatureRows=%v, want %v", got, want)
	}
}

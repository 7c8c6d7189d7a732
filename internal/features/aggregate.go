package features

import (
	"fmt"
	"strings"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// Reduction is a named aggregation function.
type Reduction string

const (
	Max   Reduction = "max"
	Min   Reduction = "min"
	Mean  Reduction = "mean"
	Sum   Reduction = "sum"
	Count Reduction = "count"
)

// ColumnAgg lists the reductions applied to one source column.
type ColumnAgg struct {
	Column     string
	Reductions []Reduction
}

// Spec is an ordered aggregation specification. Order matters: output
// columns appear in spec order, so the spec doubles as the summary schema.
// Specs are static per satellite table and never mutated at runtime.
type Spec []ColumnAgg

// Aggregate groups t by groupKey and applies every reduction listed in the
// spec, producing one row per distinct key, sorted ascending by key.
//
// Before grouping, the spec is extended with a {col: sum} entry for every
// column whose name starts with one of indicatorPrefixes + "_". This picks
// up indicator columns produced by Expander without naming them
// individually; a column already in the spec keeps its position but its
// reductions are replaced by sum.
//
// Output columns are named "<column>_<reduction>", plus the group key
// restored as the first column.
//
// Null semantics:
//   - reductions skip nulls
//   - max/min/mean over an all-null group yield null
//   - sum over an all-null group yields 0 (indicators are never null)
//   - count counts non-null cells
//   - rows with a null group key are dropped
func Aggregate(t *frame.Table, spec Spec, indicatorPrefixes []string, groupKey string) (*frame.Table, error) {
	extended := make(Spec, len(spec))
	copy(extended, spec)

	pos := make(map[string]int, len(extended))
	for i, e := range extended {
		pos[e.Column] = i
	}
	for _, prefix := range indicatorPrefixes {
		for _, name := range t.Columns() {
			if !strings.HasPrefix(name, prefix+"_") {
				continue
			}
			if i, ok := pos[name]; ok {
				extended[i].Reductions = []Reduction{Sum}
				continue
			}
			pos[name] = len(extended)
			extended = append(extended, ColumnAgg{Column: name, Reductions: []Reduction{Sum}})
		}
	}

	key, err := t.Col(groupKey)
	if err != nil {
		return nil, fmt.Errorf("features: aggregate: %w", err)
	}

	// Group rows by normalized key, then order groups by ascending key so
	// the summary is reproducible.
	groups := make(map[string][]int)
	keyVal := make(map[string]any)
	for i, v := range key.Vals {
		if v == nil {
			continue
		}
		s := frame.FormatValue(v)
		if _, ok := groups[s]; !ok {
			keyVal[s] = v
		}
		groups[s] = append(groups[s], i)
	}
	keys := make([]any, 0, len(groups))
	for s := range groups {
		keys = append(keys, keyVal[s])
	}
	frame.SortValues(keys)

	out := frame.New()
	keyCol := &frame.Column{Name: groupKey, Kind: key.Kind, Vals: keys}
	if err := out.AddColumn(keyCol); err != nil {
		return nil, err
	}

	for _, e := range extended {
		src, err := t.Col(e.Column)
		if err != nil {
			return nil, fmt.Errorf("features: aggregate: %w", err)
		}
		if src.Kind == frame.String {
			return nil, fmt.Errorf("features: aggregate: column %q is not numeric", e.Column)
		}
		for _, red := range e.Reductions {
			vals := make([]any, len(keys))
			for gi, k := range keys {
				vals[gi] = reduce(src, groups[frame.FormatValue(k)], red)
			}
			col := &frame.Column{
				Name: e.Column + "_" + string(red),
				Kind: outputKind(src.Kind, red),
				Vals: vals,
			}
			col.NormalizeKind()
			if err := out.AddColumn(col); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func outputKind(in frame.Kind, red Reduction) frame.Kind {
	switch red {
	case Mean:
		return frame.Float64
	case Count:
		return frame.Int64
	default:
		return in
	}
}

func reduce(c *frame.Column, rows []int, red Reduction) any {
	var (
		n    int
		sum  float64
		mn   float64
		mx   float64
	)
	for _, i := range rows {
		f, ok := c.Float(i)
		if !ok {
			continue
		}
		if n == 0 {
			mn, mx = f, f
		} else {
			if f < mn {
				mn = f
			}
			if f > mx {
				mx = f
			}
		}
		n++
		sum += f
	}

	switch red {
	case Count:
		return float64(n)
	case Sum:
		return sum
	case Max:
		if n == 0 {
			return nil
		}
		return mx
	case Min:
		if n == 0 {
			return nil
		}
		return mn
	case Mean:
		if n == 0 {
			return nil
		}
		return sum / float64(n)
	default:
		return nil
	}
}

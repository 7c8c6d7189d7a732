// Package features implements the aggregation core of the loan-score
// pipeline: categorical expansion, spec-driven column aggregation, the five
// satellite-table summarizers and the dataset assembler.
//
// Everything here is deterministic: derived column sets are sorted, group
// keys are sorted, and repeated runs over unchanged inputs produce
// byte-identical output.
package features

import (
	"fmt"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// OtherBucket is the indicator suffix used for values outside a fixed
// category domain.
const OtherBucket = "OTHER"

// Expander appends one-hot indicator columns for categorical source columns.
//
// By default the set of indicator columns is derived from the values
// observed in the input, sorted ascending. That means differently-sampled
// runs can produce different column sets; callers that need a stable schema
// across runs can pin a column's domain via Domains, which adds an
// "_OTHER" bucket for unseen values.
type Expander struct {
	// Domains maps a column name to its fixed set of category spellings.
	// Columns not listed fall back to observed-value expansion.
	Domains map[string][]string
}

// Expand appends, for every name in cols, one 0/1 column per category value
// named "<col>_<value>". Source columns are retained; a null source cell
// yields 0 in every indicator. The input table is extended in place and
// returned.
func (e Expander) Expand(t *frame.Table, cols []string) (*frame.Table, error) {
	for _, name := range cols {
		c, err := t.Col(name)
		if err != nil {
			return nil, fmt.Errorf("features: expand: %w", err)
		}

		domain, fixed := e.Domains[name]
		var suffixes []string
		if fixed {
			suffixes = append(append([]string{}, domain...), OtherBucket)
		} else {
			for _, v := range c.Distinct() {
				suffixes = append(suffixes, frame.FormatValue(v))
			}
		}

		known := make(map[string]int, len(suffixes))
		for i, s := range suffixes {
			known[s] = i
		}

		ind := make([][]any, len(suffixes))
		for i := range ind {
			vals := make([]any, t.NumRows())
			for j := range vals {
				vals[j] = 0.0
			}
			ind[i] = vals
		}

		for row := 0; row < t.NumRows(); row++ {
			v := c.Vals[row]
			if v == nil {
				continue
			}
			s := frame.FormatValue(v)
			i, ok := known[s]
			if !ok && fixed {
				i, ok = known[OtherBucket], true
			}
			if ok {
				ind[i][row] = 1.0
			}
		}

		for i, s := range suffixes {
			col := &frame.Column{Name: name + "_" + s, Kind: frame.Int64, Vals: ind[i]}
			if err := t.AddColumn(col); err != nil {
				return nil, fmt.Errorf("features: expand %s: %w", name, err)
			}
		}
	}
	return t, nil
}

// Expand is the default observed-values expansion.
func Expand(t *frame.Table, cols []string) (*frame.Table, error) {
	return Expander{}.Expand(t, cols)
}

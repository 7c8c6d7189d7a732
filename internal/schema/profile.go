// Package schema profiles an assembled dataset into a per-column JSON
// descriptor consumed by the UI: a numeric range for continuous columns, an
// enumerated value set for categorical ones.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// Descriptor describes one column of the assembled dataset.
type Descriptor struct {
	Column     string
	Type       string
	Continuous bool

	// Continuous columns only.
	Min int64
	Max int64

	// Categorical columns only; distinct non-null values in encountered
	// order.
	Values []any
}

// Schema is an ordered set of descriptors, one per dataset column.
// Order follows the dataset so the generated UI matches the feature CSV.
type Schema []Descriptor

// Profile inspects every column of the dataset.
//
// Classification rules:
//   - int64 columns with more than two distinct values, and all float64
//     columns, are continuous: {type, min, max}, with max bumped to min+1
//     when max-min <= 1 so range controls never collapse
//   - everything else is categorical: {type, values}
//   - a numeric column with no non-null values at all (possible after an
//     outer join against an empty satellite) records the degenerate range
//     {0, 1} instead of failing
func Profile(t *frame.Table) Schema {
	out := make(Schema, 0, t.NumCols())
	for i := 0; i < t.NumCols(); i++ {
		c := t.ColAt(i)
		d := Descriptor{Column: c.Name, Type: c.Kind.DType()}

		distinct := c.DistinctInOrder()
		switch {
		case c.Kind == frame.Float64, c.Kind == frame.Int64 && len(distinct) > 2:
			d.Continuous = true
			d.Min, d.Max = rangeOf(c)
		default:
			d.Values = distinct
		}
		out = append(out, d)
	}
	return out
}

func rangeOf(c *frame.Column) (int64, int64) {
	var mn, mx float64
	n := 0
	for i := range c.Vals {
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
	}
	if n == 0 {
		return 0, 1
	}
	lo, hi := int64(mn), int64(mx)
	if hi-lo <= 1 {
		hi = lo + 1
	}
	return lo, hi
}

// MarshalJSON renders the schema as a single JSON object keyed by column
// name, preserving dataset column order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(d.Column)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		var body []byte
		if d.Continuous {
			body, err = json.Marshal(struct {
				Type string `json:"type"`
				Min  int64  `json:"min"`
				Max  int64  `json:"max"`
			}{d.Type, d.Min, d.Max})
		} else {
			vals := d.Values
			if vals == nil {
				vals = []any{}
			}
			body, err = json.Marshal(struct {
				Type   string `json:"type"`
				Values []any  `json:"values"`
			}{d.Type, vals})
		}
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteFile writes the schema descriptor as indented JSON, creating dir if
// needed.
func (s Schema) WriteFile(dir, filename string) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("schema: marshal: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return fmt.Errorf("schema: indent: %w", err)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("schema: write %s: %w", path, err)
	}
	return nil
}

package frame

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the table with a header row. Nulls render as empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, len(t.cols))
	for i := 0; i < t.nrows; i++ {
		for j, c := range t.cols {
			rec[j] = FormatValue(c.Vals[i])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DropColumn returns the table without the named column. Used to strip the
// applicant ID before the feature CSV is written for training.
func (t *Table) DropColumn(name string) (*Table, error) {
	if _, err := t.Col(name); err != nil {
		return nil, err
	}
	out := New()
	for _, c := range t.cols {
		if c.Name == name {
			continue
		}
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	out.nrows = t.nrows
	return out, nil
}

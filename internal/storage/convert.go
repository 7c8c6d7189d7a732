package storage

import "github.com/ChronoBoot/loan-score/internal/frame"

// FeatureColumns maps a table's columns to DDL definitions.
func FeatureColumns(t *frame.Table) []ColumnDef {
	out := make([]ColumnDef, t.NumCols())
	for i := 0; i < t.NumCols(); i++ {
		c := t.ColAt(i)
		out[i] = ColumnDef{Name: c.Name, Numeric: c.Kind != frame.String}
	}
	return out
}

// FeatureRows flattens a table into insertable rows. Cells keep the
// pipeline value conventions (nil, float64, string), which SQL drivers map
// to NULL, floats and text.
func FeatureRows(t *frame.Table) [][]any {
	rows := make([][]any, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := make([]any, t.NumCols())
		for j := 0; j < t.NumCols(); j++ {
			row[j] = t.ColAt(j).Vals[i]
		}
		rows[i] = row
	}
	return rows
}

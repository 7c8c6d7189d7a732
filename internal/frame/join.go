package frame

import "fmt"

// OuterJoin joins two tables on the named key column, keeping the union of
// key values. Rows without a match on one side get nulls for that side's
// columns. Output rows are sorted ascending by key, which makes repeated
// runs byte-identical.
//
// A non-key column name present on both sides is disambiguated by suffix:
// the left copy becomes name_x, the right copy name_y. Satellite summaries
// legitimately share names (several tables carry AMT_ANNUITY, SK_DPD, ...),
// so collisions are part of normal operation, not an error.
//
// Preconditions:
//   - key must exist in both tables
//   - key values are unique per side (the pipeline aggregates satellites to
//     one row per applicant before joining); a duplicated key keeps the
//     first occurrence
func OuterJoin(left, right *Table, key string) (*Table, error) {
	lk, err := left.Col(key)
	if err != nil {
		return nil, fmt.Errorf("frame: outer join left: %w", err)
	}
	rk, err := right.Col(key)
	if err != nil {
		return nil, fmt.Errorf("frame: outer join right: %w", err)
	}

	lrows := keyRows(lk)
	rrows := keyRows(rk)

	// Union of keys, sorted. Cell values come from whichever side saw the
	// key first; both sides render identically for matching keys.
	var keys []any
	seen := make(map[string]struct{}, len(lrows)+len(rrows))
	for _, v := range lk.Vals {
		if v == nil {
			continue
		}
		s := FormatValue(v)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			keys = append(keys, v)
		}
	}
	for _, v := range rk.Vals {
		if v == nil {
			continue
		}
		s := FormatValue(v)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			keys = append(keys, v)
		}
	}
	SortValues(keys)

	keyKind := Float64
	switch {
	case lk.Kind == String || rk.Kind == String:
		keyKind = String
	case lk.Kind == Int64 && rk.Kind == Int64:
		keyKind = Int64
	}

	collide := make(map[string]bool)
	for i := 0; i < left.NumCols(); i++ {
		name := left.ColAt(i).Name
		if name != key && right.HasCol(name) {
			collide[name] = true
		}
	}

	out := New()

	addSide := func(t *Table, rows map[string]int, suffix string) error {
		for i := 0; i < t.NumCols(); i++ {
			c := t.ColAt(i)
			if c.Name == key {
				continue
			}
			name := c.Name
			if collide[name] {
				name += suffix
			}
			vals := make([]any, len(keys))
			for j, k := range keys {
				if ri, ok := rows[FormatValue(k)]; ok {
					vals[j] = c.Vals[ri]
				}
			}
			nc := &Column{Name: name, Kind: c.Kind, Vals: vals}
			nc.NormalizeKind()
			if err := out.AddColumn(nc); err != nil {
				return err
			}
		}
		return nil
	}

	keyCol := &Column{Name: key, Kind: keyKind, Vals: keys}
	if err := out.AddColumn(keyCol); err != nil {
		return nil, err
	}
	if err := addSide(left, lrows, "_x"); err != nil {
		return nil, err
	}
	if err := addSide(right, rrows, "_y"); err != nil {
		return nil, err
	}
	return out, nil
}

func keyRows(c *Column) map[string]int {
	rows := make(map[string]int, len(c.Vals))
	for i, v := range c.Vals {
		if v == nil {
			continue
		}
		s := FormatValue(v)
		if _, ok := rows[s]; !ok {
			rows[s] = i
		}
	}
	return rows
}

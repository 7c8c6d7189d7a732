package model

import (
	"fmt"
	"sort"
)

// LabelEncoder maps string categories to dense integer codes. Classes are
// sorted lexicographically when fitted, so the same data always produces the
// same codes.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabels builds an encoder over the distinct values of vals.
func FitLabels(vals []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(vals))
	var classes []string
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the fitted classes in code order.
func (e *LabelEncoder) Classes() []string { return e.classes }

// Encode returns the code for v. A value never seen during fitting is an
// error; silently inventing a code would shift every prediction after it.
func (e *LabelEncoder) Encode(v string) (int, error) {
	i, ok := e.index[v]
	if !ok {
		return 0, fmt.Errorf("model: unseen label %q", v)
	}
	return i, nil
}

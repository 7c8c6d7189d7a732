package features

import (
	"fmt"
	"sort"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// DiffMeanPolicy selects how DAYS_CREDIT_DIFF_MEAN is computed.
//
// The historical behavior sorts DAYS_CREDIT across the whole bureau table,
// averages the successive differences and stamps the same scalar onto every
// applicant's summary row. The per-group variant computes the statistic
// within each applicant's own credit history instead. Global is the default
// because it is what the downstream model was trained against.
type DiffMeanPolicy string

const (
	DiffMeanGlobal   DiffMeanPolicy = "global"
	DiffMeanPerGroup DiffMeanPolicy = "per_group"
)

// SummarizeBureau aggregates bureau.csv rows (prior credit-bureau records)
// into one row per applicant.
//
// Derived columns, computed before aggregation:
//   - CREDIT_DURATION: factual end date when present, else expected end
//     date, minus the credit start date; nulls filled with 0 and coerced to
//     int64
//   - DAYS_CREDIT_DIFF_MEAN: see DiffMeanPolicy
func SummarizeBureau(t *frame.Table, policy DiffMeanPolicy) (*frame.Table, error) {
	daysCredit, err := t.Col("DAYS_CREDIT")
	if err != nil {
		return nil, fmt.Errorf("features: bureau: %w", err)
	}
	endFact, err := t.Col("DAYS_ENDDATE_FACT")
	if err != nil {
		return nil, fmt.Errorf("features: bureau: %w", err)
	}
	endExpected, err := t.Col("DAYS_CREDIT_ENDDATE")
	if err != nil {
		return nil, fmt.Errorf("features: bureau: %w", err)
	}

	// The global statistic must be captured before grouping.
	globalDiffMean, globalOK := diffMean(nonNullFloats(daysCredit))

	duration := make([]any, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		end, endOK := endFact.Float(i)
		if !endOK {
			end, endOK = endExpected.Float(i)
		}
		start, startOK := daysCredit.Float(i)
		if !endOK || !startOK {
			duration[i] = 0.0
			continue
		}
		duration[i] = float64(int64(end - start))
	}
	if err := t.AddColumn(&frame.Column{Name: "CREDIT_DURATION", Kind: frame.Int64, Vals: duration}); err != nil {
		return nil, err
	}

	expanded := []string{"CREDIT_ACTIVE", "CREDIT_CURRENCY", "CREDIT_TYPE"}
	t, err = Expand(t, expanded)
	if err != nil {
		return nil, fmt.Errorf("features: bureau: %w", err)
	}

	spec := Spec{
		{"DAYS_CREDIT", []Reduction{Max, Min}},
		{"CREDIT_DAY_OVERDUE", []Reduction{Max, Min, Mean}},
		{"CREDIT_DURATION", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_MAX_OVERDUE", []Reduction{Max, Min, Mean}},
		{"CNT_CREDIT_PROLONG", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_SUM", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_SUM_DEBT", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_SUM_LIMIT", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_SUM_OVERDUE", []Reduction{Max, Min, Mean}},
		{"DAYS_CREDIT_UPDATE", []Reduction{Min}},
		{"AMT_ANNUITY", []Reduction{Max, Min, Mean}},
	}

	// Per-group diff means must be computed from the pre-aggregation rows.
	var perGroup map[string]any
	if policy == DiffMeanPerGroup {
		perGroup = groupDiffMeans(t, daysCredit)
	}

	out, err := Aggregate(t, spec, expanded, IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: bureau: %w", err)
	}

	diff := make([]any, out.NumRows())
	idCol, err := out.Col(IDColumn)
	if err != nil {
		return nil, err
	}
	for i := range diff {
		switch policy {
		case DiffMeanPerGroup:
			diff[i] = perGroup[frame.FormatValue(idCol.Vals[i])]
		default:
			if globalOK {
				diff[i] = globalDiffMean
			}
		}
	}
	col := &frame.Column{Name: "DAYS_CREDIT_DIFF_MEAN", Kind: frame.Float64, Vals: diff}
	if err := out.AddColumn(col); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNullFloats(c *frame.Column) []float64 {
	out := make([]float64, 0, len(c.Vals))
	for i := range c.Vals {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// diffMean sorts vals ascending and averages the successive differences.
// ok is false when fewer than two values exist.
func diffMean(vals []float64) (float64, bool) {
	if len(vals) < 2 {
		return 0, false
	}
	sort.Float64s(vals)
	var sum float64
	for i := 1; i < len(vals); i++ {
		sum += vals[i] - vals[i-1]
	}
	return sum / float64(len(vals)-1), true
}

func groupDiffMeans(t *frame.Table, daysCredit *frame.Column) map[string]any {
	key, err := t.Col(IDColumn)
	if err != nil {
		return nil
	}
	byKey := make(map[string][]float64)
	for i := range key.Vals {
		if key.Vals[i] == nil {
			continue
		}
		if f, ok := daysCredit.Float(i); ok {
			s := frame.FormatValue(key.Vals[i])
			byKey[s] = append(byKey[s], f)
		}
	}
	out := make(map[string]any, len(byKey))
	for k, vals := range byKey {
		if m, ok := diffMean(vals); ok {
			out[k] = m
		} else {
			out[k] = nil
		}
	}
	return out
}

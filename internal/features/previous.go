package features

import (
	"fmt"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// SummarizePrevious aggregates previous_application.csv rows (the
// applicant's earlier loan applications) into one row per applicant. This is
// the widest summarizer: 18 categorical columns are expanded and summed.
func SummarizePrevious(t *frame.Table) (*frame.Table, error) {
	// NFLAG_INSURED_ON_APPROVAL arrives as a float with gaps; fill nulls
	// with 0 and coerce to int64 so its indicator columns are named _0/_1.
	insured, err := t.Col("NFLAG_INSURED_ON_APPROVAL")
	if err != nil {
		return nil, fmt.Errorf("features: previous applications: %w", err)
	}
	for i := range insured.Vals {
		f, ok := insured.Float(i)
		if !ok {
			f = 0
		}
		insured.Vals[i] = float64(int64(f))
	}
	insured.Kind = frame.Int64

	expanded := []string{
		"NAME_CONTRACT_TYPE",
		"WEEKDAY_APPR_PROCESS_START",
		"FLAG_LAST_APPL_PER_CONTRACT",
		"NFLAG_LAST_APPL_IN_DAY",
		"NAME_CASH_LOAN_PURPOSE",
		"NAME_CONTRACT_STATUS",
		"NAME_PAYMENT_TYPE",
		"CODE_REJECT_REASON",
		"NAME_TYPE_SUITE",
		"NAME_CLIENT_TYPE",
		"NAME_GOODS_CATEGORY",
		"NAME_PORTFOLIO",
		"NAME_PRODUCT_TYPE",
		"CHANNEL_TYPE",
		"NAME_SELLER_INDUSTRY",
		"NAME_YIELD_GROUP",
		"PRODUCT_COMBINATION",
		"NFLAG_INSURED_ON_APPROVAL",
	}
	t, err = Expand(t, expanded)
	if err != nil {
		return nil, fmt.Errorf("features: previous applications: %w", err)
	}

	spec := Spec{
		{"AMT_ANNUITY", []Reduction{Max, Min, Mean}},
		{"AMT_APPLICATION", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT", []Reduction{Max, Min, Mean}},
		{"AMT_DOWN_PAYMENT", []Reduction{Max, Min, Mean}},
		{"AMT_GOODS_PRICE", []Reduction{Max, Min, Mean}},
		{"HOUR_APPR_PROCESS_START", []Reduction{Max, Min, Mean}},
		{"RATE_DOWN_PAYMENT", []Reduction{Max, Min, Mean}},
		{"RATE_INTEREST_PRIMARY", []Reduction{Max, Min, Mean}},
		{"RATE_INTEREST_PRIVILEGED", []Reduction{Max, Min, Mean}},
		{"DAYS_DECISION", []Reduction{Max, Min, Mean}},
		{"SELLERPLACE_AREA", []Reduction{Max, Min, Mean}},
		{"CNT_PAYMENT", []Reduction{Max, Min, Mean}},
		{"DAYS_FIRST_DRAWING", []Reduction{Max, Min, Mean}},
		{"DAYS_FIRST_DUE", []Reduction{Max, Min, Mean}},
		{"DAYS_LAST_DUE_1ST_VERSION", []Reduction{Max, Min, Mean}},
		{"DAYS_LAST_DUE", []Reduction{Max, Min, Mean}},
		{"DAYS_TERMINATION", []Reduction{Max, Min, Mean}},
	}

	out, err := Aggregate(t, spec, expanded, IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: previous applications: %w", err)
	}
	return out, nil
}

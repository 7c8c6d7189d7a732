package features

import (
	"fmt"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// SummarizeCreditCard aggregates credit_card_balance.csv rows (monthly
// credit-card balance snapshots) into one row per applicant.
func SummarizeCreditCard(t *frame.Table) (*frame.Table, error) {
	expanded := []string{"NAME_CONTRACT_STATUS"}
	t, err := Expand(t, expanded)
	if err != nil {
		return nil, fmt.Errorf("features: credit card balance: %w", err)
	}

	spec := Spec{
		{"MONTHS_BALANCE", []Reduction{Max, Min}},
		{"AMT_BALANCE", []Reduction{Max, Min, Mean}},
		{"AMT_CREDIT_LIMIT_ACTUAL", []Reduction{Max, Min, Mean}},
		{"AMT_DRAWINGS_ATM_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_DRAWINGS_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_DRAWINGS_OTHER_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_DRAWINGS_POS_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_INST_MIN_REGULARITY", []Reduction{Max, Min, Mean}},
		{"AMT_PAYMENT_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_PAYMENT_TOTAL_CURRENT", []Reduction{Max, Min, Mean}},
		{"AMT_RECEIVABLE_PRINCIPAL", []Reduction{Max, Min, Mean}},
		{"AMT_RECIVABLE", []Reduction{Max, Min, Mean}},
		{"AMT_TOTAL_RECEIVABLE", []Reduction{Max, Min, Mean}},
		{"CNT_DRAWINGS_ATM_CURRENT", []Reduction{Max, Min, Mean}},
		{"CNT_DRAWINGS_CURRENT", []Reduction{Max, Min, Mean}},
		{"CNT_DRAWINGS_OTHER_CURRENT", []Reduction{Max, Min, Mean}},
		{"CNT_DRAWINGS_POS_CURRENT", []Reduction{Max, Min, Mean}},
		{"CNT_INSTALMENT_MATURE_CUM", []Reduction{Max, Min, Mean}},
		{"SK_DPD", []Reduction{Max, Min, Mean}},
		{"SK_DPD_DEF", []Reduction{Max, Min, Mean}},
	}

	out, err := Aggregate(t, spec, expanded, IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: credit card balance: %w", err)
	}
	return out, nil
}

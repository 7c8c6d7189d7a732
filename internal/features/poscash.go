package features

import (
	"fmt"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// SummarizePOSCash aggregates POS_CASH_balance.csv rows (monthly
// point-of-sale cash-loan snapshots) into one row per applicant.
func SummarizePOSCash(t *frame.Table) (*frame.Table, error) {
	expanded := []string{"NAME_CONTRACT_STATUS"}
	t, err := Expand(t, expanded)
	if err != nil {
		return nil, fmt.Errorf("features: POS cash balance: %w", err)
	}

	spec := Spec{
		{"MONTHS_BALANCE", []Reduction{Max, Min}},
		{"CNT_INSTALMENT", []Reduction{Max, Min, Mean}},
		{"CNT_INSTALMENT_FUTURE", []Reduction{Max, Min, Mean}},
		{"SK_DPD", []Reduction{Max, Min, Mean}},
		{"SK_DPD_DEF", []Reduction{Max, Min, Mean}},
	}

	out, err := Aggregate(t, spec, expanded, IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: POS cash balance: %w", err)
	}
	return out, nil
}

package features

import (
	"fmt"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// SummarizeInstallments aggregates installments_payments.csv rows (one row
// per scheduled installment) into one row per applicant. The table has no
// categorical columns, so there is no expansion step.
func SummarizeInstallments(t *frame.Table) (*frame.Table, error) {
	spec := Spec{
		{"NUM_INSTALMENT_VERSION", []Reduction{Max, Min, Mean}},
		{"NUM_INSTALMENT_NUMBER", []Reduction{Max, Min, Mean}},
		{"DAYS_INSTALMENT", []Reduction{Max, Min}},
		{"DAYS_ENTRY_PAYMENT", []Reduction{Max, Min}},
		{"AMT_INSTALMENT", []Reduction{Max, Min, Mean}},
		{"AMT_PAYMENT", []Reduction{Max, Min, Mean}},
	}

	out, err := Aggregate(t, spec, nil, IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: installments payments: %w", err)
	}
	return out, nil
}

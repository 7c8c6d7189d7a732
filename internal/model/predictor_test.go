package model

import (
	"math"
	"reflect"
	"testing"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// separableTable builds a dataset where the label is fully determined by the
// SIGNAL column; NOISE is constant and GRADE is a categorical passenger.
func separableTable(t *testing.T, n int) *frame.Table {
	t.Helper()

	signal := make([]any, n)
	noise := make([]any, n)
	grade := make([]any, n)
	target := make([]any, n)
	for i := 0; i < n; i++ {
		v := float64(i % 10)
		signal[i] = v
		noise[i] = 1.0
		if i%2 == 0 {
			grade[i] = "good"
		} else {
			grade[i] = "bad"
		}
		if v >= 5 {
			target[i] = 1.0
		} else {
			target[i] = 0.0
		}
	}

	tbl := frame.New()
	for _, c := range []*frame.Column{
		{Name: "SIGNAL", Kind: frame.Float64, Vals: signal},
		{Name: "NOISE", Kind: frame.Float64, Vals: noise},
		{Name: "GRADE", Kind: frame.String, Vals: grade},
		{Name: "TARGET", Kind: frame.Int64, Vals: target},
	} {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatalf("AddColumn: %v", err)
		}
	}
	return tbl
}

func TestPredictorTrainAndEvaluate(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	p.Forest.NumTrees = 10
	if err := p.Train(separableTable(t, 200), "TARGET"); err != nil {
		t.Fatalf("Train: %v", err)
	}

	acc, err := p.Accuracy()
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if acc < 0.95 {
		t.Errorf("accuracy=%v, want near-perfect on separable data", acc)
	}
}

func TestPredictorDeterministic(t *testing.T) {
	t.Parallel()

	train := func() (*Predictor, float64) {
		p := NewPredictor()
		p.Forest.NumTrees = 5
		if err := p.Train(separableTable(t, 100), "TARGET"); err != nil {
			t.Fatalf("Train: %v", err)
		}
		acc, err := p.Accuracy()
		if err != nil {
			t.Fatal(err)
		}
		return p, acc
	}

	p1, acc1 := train()
	p2, acc2 := train()
	if acc1 != acc2 {
		t.Errorf("accuracies differ across runs: %v vs %v", acc1, acc2)
	}

	f1, err := p1.MostImportant(0)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := p2.MostImportant(0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f1, f2) {
		t.Errorf("importances differ across runs:\n%v\n%v", f1, f2)
	}
}

func TestPredictorPredict(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	p.Forest.NumTrees = 10
	if err := p.Train(separableTable(t, 200), "TARGET"); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if got, err := p.Predict(map[string]any{"SIGNAL": 9.0, "NOISE": 1.0, "GRADE": "good"}); err != nil || got != 1 {
		t.Errorf("Predict(high)=%d err=%v, want 1", got, err)
	}
	if got, err := p.Predict(map[string]any{"SIGNAL": 0.0, "NOISE": 1.0, "GRADE": "bad"}); err != nil || got != 0 {
		t.Errorf("Predict(low)=%d err=%v, want 0", got, err)
	}

	// missing keys count as nulls, filled with 0 like training
	if got, err := p.Predict(map[string]any{"SIGNAL": 0.0}); err != nil || got != 0 {
		t.Errorf("Predict(sparse)=%d err=%v, want 0", got, err)
	}

	if _, err := p.Predict(map[string]any{"SIGNAL": 9.0, "GRADE": "unheard-of"}); err == nil {
		t.Error("unseen categorical label accepted")
	}
}

func TestPredictorMostImportant(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	p.Forest.NumTrees = 10
	if err := p.Train(separableTable(t, 200), "TARGET"); err != nil {
		t.Fatalf("Train: %v", err)
	}

	top, err := p.MostImportant(1)
	if err != nil {
		t.Fatalf("MostImportant: %v", err)
	}
	if len(top) != 1 || top[0].Feature != "SIGNAL" {
		t.Errorf("top=%v, want SIGNAL first", top)
	}

	all, err := p.MostImportant(0)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, fi := range all {
		sum += fi.Importance
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importance sum=%v, want 1", sum)
	}
}

func TestPredictorUntrained(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	if _, err := p.Accuracy(); err == nil {
		t.Error("Accuracy before Train succeeded")
	}
	if _, err := p.Predict(map[string]any{}); err == nil {
		t.Error("Predict before Train succeeded")
	}
	if _, err := p.MostImportant(3); err == nil {
		t.Error("MostImportant before Train succeeded")
	}
}

func TestPredictorMissingTarget(t *testing.T) {
	t.Parallel()

	p := NewPredictor()
	if err := p.Train(separableTable(t, 20), "NOPE"); err == nil {
		t.Fatal("missing target column accepted")
	}
}

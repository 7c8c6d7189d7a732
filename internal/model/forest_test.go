package model

import "testing"

// splitData builds rows where only the first feature carries signal; the
// second is constant noise.
func splitData(n int) ([][]float64, []int) {
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		v := float64(i % 10)
		X[i] = []float64{v, 1.0}
		if v >= 5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestForestLearnsSeparableData(t *testing.T) {
	t.Parallel()

	X, y := splitData(100)
	f := NewForest(42)
	f.NumTrees = 10
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for i, pred := range f.Predict(X) {
		if pred != y[i] {
			t.Fatalf("row %d: pred=%d, want %d", i, pred, y[i])
		}
	}

	imp := f.Importances()
	if imp[0] <= imp[1] {
		t.Errorf("importances=%v, want all weight on the signal feature", imp)
	}
}

func TestRestrictedTreeRetriesRemainingFeatures(t *testing.T) {
	t.Parallel()

	// With one candidate feature per node, the draw may land on the
	// constant column; the split must still be found on the other one.
	X, y := splitData(100)
	for seed := int64(0); seed < 10; seed++ {
		tree := &Tree{MaxFeatures: 1, Seed: seed}
		if err := tree.Fit(X, y); err != nil {
			t.Fatalf("Fit(seed=%d): %v", seed, err)
		}
		for i, pred := range tree.Predict(X) {
			if pred != y[i] {
				t.Fatalf("seed %d row %d: pred=%d, want %d", seed, i, pred, y[i])
			}
		}
	}
}

func TestForestFitErrors(t *testing.T) {
	t.Parallel()

	f := NewForest(1)
	if err := f.Fit(nil, nil); err == nil {
		t.Error("empty training set accepted")
	}

	f = NewForest(1)
	f.NumTrees = 0
	X, y := splitData(10)
	if err := f.Fit(X, y); err == nil {
		t.Error("zero-tree forest accepted")
	}
}

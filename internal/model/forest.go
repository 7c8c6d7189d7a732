package model

import (
	"errors"
	"math/rand"
)

// Forest is a bagged ensemble of Trees with majority voting. Trees are
// trained sequentially with per-tree seeds derived from Seed, so two fits on
// the same data produce identical forests.
type Forest struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // per-node candidate features; 0 means all
	Bootstrap       bool
	Seed            int64

	trees       []*Tree
	importances []float64
}

// NewForest returns a forest with the ensemble defaults.
func NewForest(seed int64) *Forest {
	return &Forest{
		NumTrees:  100,
		Bootstrap: true,
		Seed:      seed,
	}
}

// Fit trains every tree on a bootstrap resample of X.
func (f *Forest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("model: empty training set")
	}
	if f.NumTrees < 1 {
		return errors.New("model: forest needs at least one tree")
	}

	n := len(X)
	p := len(X[0])

	f.trees = make([]*Tree, f.NumTrees)
	f.importances = make([]float64, p)

	for i := 0; i < f.NumTrees; i++ {
		seed := f.Seed + int64(i)
		rnd := rand.New(rand.NewSource(seed))

		bx, by := X, y
		if f.Bootstrap {
			bx = make([][]float64, n)
			by = make([]int, n)
			for j := 0; j < n; j++ {
				k := rnd.Intn(n)
				bx[j] = X[k]
				by[j] = y[k]
			}
		}

		tree := &Tree{
			MaxDepth:        f.MaxDepth,
			MinSamplesSplit: f.MinSamplesSplit,
			MaxFeatures:     f.MaxFeatures,
			Seed:            seed,
		}
		if err := tree.Fit(bx, by); err != nil {
			return err
		}
		f.trees[i] = tree

		for j, v := range tree.Importances() {
			f.importances[j] += v
		}
	}
	normalize(f.importances)
	return nil
}

// Predict returns the majority vote across trees for each row. Ties break
// toward the smaller label.
func (f *Forest) Predict(X [][]float64) []int {
	votes := make([]map[int]int, len(X))
	for i := range votes {
		votes[i] = map[int]int{}
	}
	for _, tree := range f.trees {
		for i, pred := range tree.Predict(X) {
			votes[i][pred]++
		}
	}

	out := make([]int, len(X))
	for i, v := range votes {
		best, bestCount := 0, -1
		for label, count := range v {
			if count > bestCount || (count == bestCount && label < best) {
				best, bestCount = label, count
			}
		}
		out[i] = best
	}
	return out
}

// Importances returns the mean per-feature importance across trees,
// normalized to sum 1.
func (f *Forest) Importances() []float64 { return f.importances }

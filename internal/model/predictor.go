// Package model trains a random-forest classifier on the assembled feature
// table and answers prediction and feature-importance queries.
package model

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/ChronoBoot/loan-score/internal/frame"
)

// DefaultSeed fixes the resampling and split order so repeated trainings on
// the same features report the same accuracy.
const DefaultSeed = 42

// DefaultHoldout is the fraction of rows reserved for evaluation.
const DefaultHoldout = 0.2

// FeatureImportance pairs a feature name with its normalized importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Predictor wraps a Forest with the table-facing plumbing: categorical
// encoding, null filling, the train/holdout split and name-keyed access.
type Predictor struct {
	Forest  *Forest
	Holdout float64
	Seed    int64

	features []string
	encoders map[string]*LabelEncoder
	accuracy float64
	trained  bool
}

// NewPredictor returns a predictor with the default forest and split.
func NewPredictor() *Predictor {
	return &Predictor{
		Forest:  NewForest(DefaultSeed),
		Holdout: DefaultHoldout,
		Seed:    DefaultSeed,
	}
}

// Train fits the forest on every column of t except target, which supplies
// the labels. String columns are label-encoded; null cells become 0, keeping
// the design matrix dense the same way the feature CSV consumers expect.
func (p *Predictor) Train(t *frame.Table, target string) error {
	labels, err := t.Col(target)
	if err != nil {
		return fmt.Errorf("model: target: %w", err)
	}

	p.features = nil
	for _, name := range t.Columns() {
		if name != target {
			p.features = append(p.features, name)
		}
	}
	if len(p.features) == 0 {
		return errors.New("model: no feature columns")
	}

	p.encoders = map[string]*LabelEncoder{}
	X := make([][]float64, t.NumRows())
	for i := range X {
		X[i] = make([]float64, len(p.features))
	}
	for j, name := range p.features {
		col, err := t.Col(name)
		if err != nil {
			return err
		}
		if err := p.fillColumn(X, j, col); err != nil {
			return err
		}
	}

	y := make([]int, t.NumRows())
	for i := range y {
		v, ok := labels.Float(i)
		if !ok {
			return fmt.Errorf("model: target %s has a non-numeric cell at row %d", target, i)
		}
		y[i] = int(v)
	}

	trainX, trainY, testX, testY := holdoutSplit(X, y, p.Holdout, p.Seed)
	if err := p.Forest.Fit(trainX, trainY); err != nil {
		return err
	}
	p.accuracy = accuracy(testY, p.Forest.Predict(testX))
	p.trained = true
	return nil
}

// Accuracy returns the holdout accuracy of the last training.
func (p *Predictor) Accuracy() (float64, error) {
	if !p.trained {
		return 0, errors.New("model: not trained")
	}
	return p.accuracy, nil
}

// Predict classifies a single applicant given by feature name. Missing keys
// count as nulls and become 0, matching training.
func (p *Predictor) Predict(row map[string]any) (int, error) {
	if !p.trained {
		return 0, errors.New("model: not trained")
	}
	x := make([]float64, len(p.features))
	for j, name := range p.features {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch cell := v.(type) {
		case float64:
			x[j] = cell
		case string:
			enc, ok := p.encoders[name]
			if !ok {
				return 0, fmt.Errorf("model: feature %s is numeric, got string %q", name, cell)
			}
			code, err := enc.Encode(cell)
			if err != nil {
				return 0, err
			}
			x[j] = float64(code)
		default:
			return 0, fmt.Errorf("model: feature %s: unsupported value %T", name, v)
		}
	}
	return p.Forest.Predict([][]float64{x})[0], nil
}

// MostImportant returns the n features with the highest importance, sorted
// descending. Equal importances keep feature-name order for stability.
func (p *Predictor) MostImportant(n int) ([]FeatureImportance, error) {
	if !p.trained {
		return nil, errors.New("model: not trained")
	}
	imp := p.Forest.Importances()
	out := make([]FeatureImportance, len(p.features))
	for i, name := range p.features {
		out[i] = FeatureImportance{Feature: name, Importance: imp[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (p *Predictor) fillColumn(X [][]float64, j int, col *frame.Column) error {
	if col.Kind == frame.String {
		vals := make([]string, 0, len(col.Vals))
		for _, v := range col.Vals {
			if s, ok := v.(string); ok {
				vals = append(vals, s)
			}
		}
		enc := FitLabels(vals)
		p.encoders[col.Name] = enc
		for i, v := range col.Vals {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("model: column %s: mixed cell types", col.Name)
			}
			code, err := enc.Encode(s)
			if err != nil {
				return err
			}
			X[i][j] = float64(code)
		}
		return nil
	}
	for i := range col.Vals {
		if f, ok := col.Float(i); ok {
			X[i][j] = f
		}
	}
	return nil
}

// holdoutSplit shuffles row order with the given seed and reserves the last
// fraction for evaluation.
func holdoutSplit(X [][]float64, y []int, holdout float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	n := len(X)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rand.New(rand.NewSource(seed)).Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	nTest := int(float64(n) * holdout)
	if nTest < 1 && n > 1 {
		nTest = 1
	}
	cut := n - nTest

	for _, i := range order[:cut] {
		trainX = append(trainX, X[i])
		trainY = append(trainY, y[i])
	}
	for _, i := range order[cut:] {
		testX = append(testX, X[i])
		testY = append(testY, y[i])
	}
	return trainX, trainY, testX, testY
}

func accuracy(want, got []int) float64 {
	if len(want) == 0 {
		return 0
	}
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

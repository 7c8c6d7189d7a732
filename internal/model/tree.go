package model

import (
	"errors"
	"math/rand"
	"sort"
)

// Tree is a CART classifier using gini impurity and midpoint thresholds.
// Training is deterministic for a fixed Seed.
type Tree struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int // below this a node becomes a leaf
	MaxFeatures     int // 0 means all features
	Seed            int64

	root        *treeNode
	classes     []int
	importances []float64
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	pred      int
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	left      []int
	right     []int
}

// Fit trains the tree on X and integer labels y.
func (t *Tree) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("model: empty training set")
	}
	if len(y) != len(X) {
		return errors.New("model: feature and label lengths differ")
	}

	t.classes = nil
	seen := map[int]struct{}{}
	for _, lab := range y {
		if _, ok := seen[lab]; !ok {
			seen[lab] = struct{}{}
			t.classes = append(t.classes, lab)
		}
	}
	sort.Ints(t.classes)

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}

	p := len(X[0])
	t.importances = make([]float64, p)
	rnd := rand.New(rand.NewSource(t.Seed))
	t.root = t.build(X, y, idx, 0, len(X), rnd)
	normalize(t.importances)
	return nil
}

// Predict returns the predicted label for each row.
func (t *Tree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		out[i] = t.predictRow(row)
	}
	return out
}

// Importances returns per-feature impurity decrease, normalized to sum 1.
func (t *Tree) Importances() []float64 { return t.importances }

func (t *Tree) predictRow(row []float64) int {
	node := t.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.pred
}

func (t *Tree) build(X [][]float64, y []int, idx []int, depth, total int, rnd *rand.Rand) *treeNode {
	counts := t.classCounts(y, idx)

	minSplit := t.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	if pure(counts) || len(idx) < minSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return &treeNode{leaf: true, pred: t.classes[argmax(counts)]}
	}

	best := t.bestSplit(X, y, idx, counts, rnd)
	if best.feature < 0 {
		return &treeNode{leaf: true, pred: t.classes[argmax(counts)]}
	}

	t.importances[best.feature] += float64(len(idx)) / float64(total) * best.gain

	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      t.build(X, y, best.left, depth+1, total, rnd),
		right:     t.build(X, y, best.right, depth+1, total, rnd),
	}
}

func (t *Tree) bestSplit(X [][]float64, y []int, idx []int, counts []int, rnd *rand.Rand) split {
	p := len(X[0])
	feats := make([]int, p)
	for i := range feats {
		feats[i] = i
	}
	limit := p
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(i, j int) { feats[i], feats[j] = feats[j], feats[i] })
		limit = t.MaxFeatures
		sort.Ints(feats[:limit])
		sort.Ints(feats[limit:])
	}

	parent := gini(counts)
	best := split{feature: -1}

	ordered := make([]int, len(idx))
	scan := func(f int) {
		copy(ordered, idx)
		sort.SliceStable(ordered, func(a, b int) bool { return X[ordered[a]][f] < X[ordered[b]][f] })

		leftCounts := make([]int, len(t.classes))
		rightCounts := append([]int(nil), counts...)

		for s := 1; s < len(ordered); s++ {
			ci := t.classIndex(y[ordered[s-1]])
			leftCounts[ci]++
			rightCounts[ci]--

			lo, hi := X[ordered[s-1]][f], X[ordered[s]][f]
			if lo == hi {
				continue
			}

			nl, nr := float64(s), float64(len(ordered)-s)
			weighted := nl/float64(len(ordered))*gini(leftCounts) + nr/float64(len(ordered))*gini(rightCounts)
			gain := parent - weighted
			if gain > best.gain {
				best = split{
					gain:      gain,
					feature:   f,
					threshold: (lo + hi) / 2,
					left:      append([]int(nil), ordered[:s]...),
					right:     append([]int(nil), ordered[s:]...),
				}
			}
		}
	}

	for _, f := range feats[:limit] {
		scan(f)
	}
	// A drawn subset can be all-constant within the node. Retry the
	// remaining features before giving up; a node only becomes a leaf when
	// no feature at all can split it.
	if best.feature < 0 {
		for _, f := range feats[limit:] {
			scan(f)
		}
	}
	return best
}

func (t *Tree) classCounts(y []int, idx []int) []int {
	counts := make([]int, len(t.classes))
	for _, i := range idx {
		counts[t.classIndex(y[i])]++
	}
	return counts
}

func (t *Tree) classIndex(label int) int {
	i := sort.SearchInts(t.classes, label)
	return i
}

func gini(counts []int) float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	if n == 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		res -= p * p
	}
	return res
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}

// Package forest implements CART decision trees and a bootstrap-aggregated
// random forest for classification and regression on dense float matrices.
package forest

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Task selects between classification and regression.
type Task int

const (
	Classification Task = iota
	Regression
)

// Node is one tree node. Fields are exported for gob encoding.
type Node struct {
	IsLeaf    bool
	Feature   int
	Threshold float64 // x <= threshold goes left
	Left      *Node
	Right     *Node

	Samples int
	Value   float64   // majority class (classification) or mean (regression)
	Probas  []float64 // class distribution, aligned with Tree.Classes
}

// Tree is a CART decision tree.
type Tree struct {
	Task            Task
	Criterion       string // "gini" or "entropy" for classification
	MaxDepth        int    // 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 means all features
	RandomState     int64

	Root        *Node
	Classes     []float64 // distinct labels in first-seen order
	NumFeatures int
	Importances []float64 // impurity-decrease importances, unnormalized
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

func WithCriterion(c string) TreeOption    { return func(t *Tree) { t.Criterion = c } }
func WithMaxDepth(d int) TreeOption        { return func(t *Tree) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption { return func(t *Tree) { t.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) TreeOption  { return func(t *Tree) { t.MinSamplesLeaf = n } }
func WithMaxFeatures(k int) TreeOption     { return func(t *Tree) { t.MaxFeatures = k } }
func WithTreeSeed(seed int64) TreeOption   { return func(t *Tree) { t.RandomState = seed } }

// NewTree returns a tree with CART defaults for the given task.
func NewTree(task Task, opts ...TreeOption) *Tree {
	t := &Tree{
		Task:            task,
		Criterion:       "gini",
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on X (n rows, p features) and y (n labels or targets).
// Classification labels are arbitrary float values treated as discrete.
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(y) != len(X) {
		return errors.New("forest: X and y length mismatch")
	}
	p := len(X[0])
	for _, row := range X {
		if len(row) != p {
			return errors.New("forest: ragged feature matrix")
		}
	}
	t.NumFeatures = p
	t.Importances = make([]float64, p)

	if t.Task == Classification {
		seen := map[float64]bool{}
		t.Classes = nil
		for _, label := range y {
			if !seen[label] {
				seen[label] = true
				t.Classes = append(t.Classes, label)
			}
		}
	}

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.grow(X, y, indices, 0, rng)
	return nil
}

func (t *Tree) grow(X [][]float64, y []float64, indices []int, depth int, rng *rand.Rand) *Node {
	node := &Node{Samples: len(indices)}

	if t.Task == Classification {
		node.Probas = t.classDistribution(y, indices)
		node.Value = t.majorityClass(node.Probas)
	} else {
		node.Value = meanAt(y, indices)
	}

	if t.shouldStop(y, indices, depth) {
		node.IsLeaf = true
		return node
	}

	feature, threshold, gain := t.bestSplit(X, y, indices, rng)
	if feature < 0 {
		node.IsLeaf = true
		return node
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	t.Importances[feature] += gain * float64(len(indices))

	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.grow(X, y, left, depth+1, rng)
	node.Right = t.grow(X, y, right, depth+1, rng)
	return node
}

func (t *Tree) shouldStop(y []float64, indices []int, depth int) bool {
	if len(indices) < t.MinSamplesSplit {
		return true
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return true
	}
	first := y[indices[0]]
	for _, i := range indices[1:] {
		if y[i] != first {
			return false
		}
	}
	return true // pure node
}

// bestSplit scans candidate features for the threshold with the largest
// impurity decrease. Returns feature -1 when no split improves.
func (t *Tree) bestSplit(X [][]float64, y []float64, indices []int, rng *rand.Rand) (int, float64, float64) {
	p := t.NumFeatures
	features := make([]int, p)
	for i := range features {
		features[i] = i
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rng.Shuffle(p, func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:t.MaxFeatures]
	}

	parentImpurity := t.impurity(y, indices)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	for _, f := range features {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for vi := 1; vi < len(values); vi++ {
			if values[vi] == values[vi-1] {
				continue
			}
			threshold := (values[vi] + values[vi-1]) / 2

			var left, right []int
			for _, i := range indices {
				if X[i][f] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
				continue
			}

			n := float64(len(indices))
			weighted := float64(len(left))/n*t.impurity(y, left) +
				float64(len(right))/n*t.impurity(y, right)
			gain := parentImpurity - weighted
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, threshold, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func (t *Tree) impurity(y []float64, indices []int) float64 {
	if t.Task == Regression {
		// Variance as MSE impurity.
		m := meanAt(y, indices)
		var sum float64
		for _, i := range indices {
			d := y[i] - m
			sum += d * d
		}
		return sum / float64(len(indices))
	}

	counts := map[float64]int{}
	for _, i := range indices {
		counts[y[i]]++
	}
	n := float64(len(indices))
	if t.Criterion == "entropy" {
		var h float64
		for _, c := range counts {
			p := float64(c) / n
			h -= p * math.Log2(p)
		}
		return h
	}
	gini := 1.0
	for _, c := range counts {
		p := float64(c) / n
		gini -= p * p
	}
	return gini
}

func (t *Tree) classDistribution(y []float64, indices []int) []float64 {
	dist := make([]float64, len(t.Classes))
	classIndex := make(map[float64]int, len(t.Classes))
	for i, c := range t.Classes {
		classIndex[c] = i
	}
	for _, i := range indices {
		dist[classIndex[y[i]]]++
	}
	n := float64(len(indices))
	for i := range dist {
		dist[i] /= n
	}
	return dist
}

func (t *Tree) majorityClass(probas []float64) float64 {
	best, bestP := 0, -1.0
	for i, p := range probas {
		if p > bestP {
			best, bestP = i, p
		}
	}
	return t.Classes[best]
}

// Predict returns the prediction for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	node := t.Root
	for node != nil && !node.IsLeaf && node.Left != nil {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// PredictProba returns the class distribution at the reached leaf,
// aligned with Classes. Regression trees return nil.
func (t *Tree) PredictProba(x []float64) []float64 {
	if t.Task != Classification {
		return nil
	}
	node := t.Root
	for node != nil && !node.IsLeaf && node.Left != nil {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Probas
}

func meanAt(y []float64, indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

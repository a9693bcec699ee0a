package forest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Forest is a bootstrap-aggregated ensemble of CART trees.
type Forest struct {
	Task            Task
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 means sqrt(p) for classification, p/3 for regression
	Criterion       string
	RandomState     int64

	Trees        []*Tree
	FeatureNames []string
	NumFeatures  int
}

// ForestOption configures a Forest.
type ForestOption func(*Forest)

func WithNEstimators(n int) ForestOption { return func(f *Forest) { f.NEstimators = n } }
func WithForestMaxDepth(d int) ForestOption {
	return func(f *Forest) { f.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(f *Forest) { f.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(f *Forest) { f.MinSamplesLeaf = n }
}
func WithForestMaxFeatures(k int) ForestOption {
	return func(f *Forest) { f.MaxFeatures = k }
}
func WithForestCriterion(c string) ForestOption {
	return func(f *Forest) { f.Criterion = c }
}
func WithSeed(seed int64) ForestOption { return func(f *Forest) { f.RandomState = seed } }
func WithFeatureNames(names []string) ForestOption {
	return func(f *Forest) { f.FeatureNames = names }
}

// NewForest returns a forest with the conventional defaults.
func NewForest(task Task, opts ...ForestOption) *Forest {
	f := &Forest{
		Task:            task,
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit trains all trees on bootstrap samples. Trees grow concurrently, each
// with a deterministic seed derived from RandomState, so results are
// reproducible regardless of scheduling.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(y) != len(X) {
		return errors.New("forest: X and y length mismatch")
	}
	n := len(X)
	p := len(X[0])
	f.NumFeatures = p

	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		if f.Task == Classification {
			maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
		} else {
			maxFeatures = int(math.Max(1, float64(p)/3))
		}
	}

	f.Trees = make([]*Tree, f.NEstimators)
	errCh := make(chan error, f.NEstimators)
	var wg sync.WaitGroup

	for i := 0; i < f.NEstimators; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := f.RandomState + int64(idx)
			rng := rand.New(rand.NewSource(seed))

			// Bootstrap by index to avoid copying rows.
			sampleX := make([][]float64, n)
			sampleY := make([]float64, n)
			for j := 0; j < n; j++ {
				k := rng.Intn(n)
				sampleX[j] = X[k]
				sampleY[j] = y[k]
			}

			tree := NewTree(f.Task,
				WithCriterion(f.Criterion),
				WithMaxDepth(f.MaxDepth),
				WithMinSamplesSplit(f.MinSamplesSplit),
				WithMinSamplesLeaf(f.MinSamplesLeaf),
				WithMaxFeatures(maxFeatures),
				WithTreeSeed(seed),
			)
			if err := tree.Fit(sampleX, sampleY); err != nil {
				errCh <- fmt.Errorf("tree %d: %w", idx, err)
				return
			}
			f.Trees[idx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return err
	}
	return nil
}

// Predict returns predictions for all rows: majority vote for
// classification, mean of tree outputs for regression.
func (f *Forest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.predictOne(x)
	}
	return out
}

func (f *Forest) predictOne(x []float64) float64 {
	if f.Task == Regression {
		var sum float64
		for _, tree := range f.Trees {
			sum += tree.Predict(x)
		}
		return sum / float64(len(f.Trees))
	}

	votes := map[float64]int{}
	for _, tree := range f.Trees {
		votes[tree.Predict(x)]++
	}
	best, bestVotes := 0.0, -1
	for label, v := range votes {
		if v > bestVotes || (v == bestVotes && label < best) {
			best, bestVotes = label, v
		}
	}
	return best
}

// PredictProba averages per-tree class distributions for a binary or
// multiclass classifier. Class order follows Classes().
func (f *Forest) PredictProba(X [][]float64) [][]float64 {
	if f.Task != Classification || len(f.Trees) == 0 {
		return nil
	}
	classes := f.Classes()
	classIndex := make(map[float64]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	out := make([][]float64, len(X))
	for i, x := range X {
		acc := make([]float64, len(classes))
		for _, tree := range f.Trees {
			probas := tree.PredictProba(x)
			for ci, c := range tree.Classes {
				acc[classIndex[c]] += probas[ci]
			}
		}
		for j := range acc {
			acc[j] /= float64(len(f.Trees))
		}
		out[i] = acc
	}
	return out
}

// Classes returns the union of class labels across trees in ascending
// order, so column positions are stable no matter which labels each
// bootstrap sample happened to contain.
func (f *Forest) Classes() []float64 {
	var classes []float64
	seen := map[float64]bool{}
	for _, tree := range f.Trees {
		for _, c := range tree.Classes {
			if !seen[c] {
				seen[c] = true
				classes = append(classes, c)
			}
		}
	}
	sort.Float64s(classes)
	return classes
}

// FeatureImportances averages normalized per-tree impurity-decrease
// importances. The result sums to 1 unless no split was ever made.
func (f *Forest) FeatureImportances() []float64 {
	if len(f.Trees) == 0 {
		return nil
	}
	total := make([]float64, f.NumFeatures)
	for _, tree := range f.Trees {
		var sum float64
		for _, v := range tree.Importances {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for i, v := range tree.Importances {
			total[i] += v / sum
		}
	}
	var grand float64
	for _, v := range total {
		grand += v
	}
	if grand == 0 {
		return total
	}
	for i := range total {
		total[i] /= grand
	}
	return total
}

// Encode serializes the fitted forest with gob.
func (f *Forest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode forest: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode restores a forest serialized by Encode.
func Decode(data []byte) (*Forest, error) {
	var f Forest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode forest: %w", err)
	}
	return &f, nil
}

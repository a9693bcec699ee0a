package metrics

import (
	"errors"
	"math/rand"
	"sort"
)

// TrainTestSplit shuffles rows with the given seed and splits them into
// train and test partitions. testSize is a fraction in (0, 1). When
// stratify is true the class proportions of y are preserved in both parts.
func TrainTestSplit(X [][]float64, y []float64, testSize float64, seed int64, stratify bool) (XTrain, XTest [][]float64, yTrain, yTest []float64, err error) {
	if len(X) != len(y) || len(X) == 0 {
		return nil, nil, nil, nil, errors.New("metrics: X and y must be non-empty and equal length")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.New("metrics: testSize must be in (0, 1)")
	}

	rng := rand.New(rand.NewSource(seed))

	var testIdx map[int]bool
	if stratify {
		testIdx = stratifiedTestIndices(y, testSize, rng)
	} else {
		perm := rng.Perm(len(X))
		nTest := int(float64(len(X)) * testSize)
		if nTest == 0 {
			nTest = 1
		}
		testIdx = make(map[int]bool, nTest)
		for _, i := range perm[:nTest] {
			testIdx[i] = true
		}
	}

	for i := range X {
		if testIdx[i] {
			XTest = append(XTest, X[i])
			yTest = append(yTest, y[i])
		} else {
			XTrain = append(XTrain, X[i])
			yTrain = append(yTrain, y[i])
		}
	}
	if len(XTrain) == 0 || len(XTest) == 0 {
		return nil, nil, nil, nil, errors.New("metrics: split produced an empty partition")
	}
	return XTrain, XTest, yTrain, yTest, nil
}

// stratifiedTestIndices samples testSize of each class into the test set.
// Classes are visited in sorted order so the same seed always yields the
// same split.
func stratifiedTestIndices(y []float64, testSize float64, rng *rand.Rand) map[int]bool {
	byClass := map[float64][]int{}
	var labels []float64
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			labels = append(labels, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	sort.Float64s(labels)

	testIdx := map[int]bool{}
	for _, label := range labels {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testSize)
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		for _, i := range indices[:nTest] {
			testIdx[i] = true
		}
	}
	return testIdx
}

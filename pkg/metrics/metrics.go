// Package metrics evaluates classification and regression predictions.
package metrics

import (
	"math"
	"sort"
)

// Accuracy is the fraction of exact label matches.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ConfusionMatrix maps true label -> predicted label -> count.
func ConfusionMatrix(yTrue, yPred []float64) map[float64]map[float64]int {
	m := map[float64]map[float64]int{}
	for i := range yTrue {
		if m[yTrue[i]] == nil {
			m[yTrue[i]] = map[float64]int{}
		}
		m[yTrue[i]][yPred[i]]++
	}
	return m
}

// classes returns the sorted union of labels in both slices.
func classes(yTrue, yPred []float64) []float64 {
	seen := map[float64]bool{}
	var out []float64
	for _, ys := range [][]float64{yTrue, yPred} {
		for _, y := range ys {
			if !seen[y] {
				seen[y] = true
				out = append(out, y)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// PrecisionRecallF1 returns support-weighted precision, recall and F1
// across all classes.
func PrecisionRecallF1(yTrue, yPred []float64) (precision, recall, f1 float64) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0, 0, 0
	}
	cm := ConfusionMatrix(yTrue, yPred)
	total := float64(len(yTrue))

	for _, c := range classes(yTrue, yPred) {
		var tp, fp, fn float64
		for trueLabel, row := range cm {
			for predLabel, count := range row {
				switch {
				case trueLabel == c && predLabel == c:
					tp += float64(count)
				case trueLabel != c && predLabel == c:
					fp += float64(count)
				case trueLabel == c && predLabel != c:
					fn += float64(count)
				}
			}
		}

		support := tp + fn
		if support == 0 {
			continue
		}
		var p, r float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		weight := support / total
		precision += p * weight
		recall += r * weight
		f1 += f * weight
	}
	return precision, recall, f1
}

// ROCAUC computes the area under the ROC curve for a binary problem via the
// rank-sum formulation. yTrue holds 0/1 labels, scores the positive-class
// probability. Degenerate inputs (single class) return 0.5.
func ROCAUC(yTrue, scores []float64) float64 {
	if len(yTrue) != len(scores) || len(yTrue) == 0 {
		return 0.5
	}
	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, len(yTrue))
	var pos, neg float64
	for i := range yTrue {
		pairs[i] = pair{scores[i], yTrue[i]}
		if yTrue[i] == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Average ranks over tied scores.
	ranks := make([]float64, len(pairs))
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[k] = avg
		}
		i = j
	}

	var rankSum float64
	for i, p := range pairs {
		if p.label == 1 {
			rankSum += ranks[i]
		}
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg)
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// MSE is the mean squared error.
func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return sum / float64(len(yTrue))
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	return math.Sqrt(MSE(yTrue, yPred))
}

// R2 is the coefficient of determination. A constant target yields 0.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var mean float64
	for _, y := range yTrue {
		mean += y
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// MAPE is the mean absolute percentage error. Returns ok=false when any
// target is zero.
func MAPE(yTrue, yPred []float64) (float64, bool) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0, false
	}
	var sum float64
	for i := range yTrue {
		if yTrue[i] == 0 {
			return 0, false
		}
		sum += math.Abs((yTrue[i] - yPred[i]) / yTrue[i])
	}
	return sum / float64(len(yTrue)) * 100, true
}

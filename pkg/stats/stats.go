// Package stats provides the descriptive statistics used by dataset
// profiling and preprocessing. Callers are expected to filter missing
// values before passing data in.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or NaN for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the population variance, or NaN for empty input.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation.
func Std(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Percentile returns the p-th percentile (0-100) with linear interpolation
// between closest ranks, matching the common "linear" method.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile.
func Median(xs []float64) float64 {
	return Percentile(xs, 50)
}

// Quartiles returns Q1, Q2 and Q3.
func Quartiles(xs []float64) (q1, q2, q3 float64) {
	return Percentile(xs, 25), Percentile(xs, 50), Percentile(xs, 75)
}

// Skewness returns the adjusted Fisher-Pearson skewness coefficient.
// Fewer than 3 values or zero spread yields 0.
func Skewness(xs []float64) float64 {
	n := float64(len(xs))
	if n < 3 {
		return 0
	}
	m := Mean(xs)
	var m2, m3 float64
	for _, x := range xs {
		d := x - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// Correlation returns the Pearson correlation coefficient of two equal-length
// series, or 0 when either side has no spread.
func Correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) == 0 {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// Mode returns the most frequent value. Ties break toward the smaller value.
func Mode(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	counts := map[float64]int{}
	for _, x := range xs {
		counts[x]++
	}
	best, bestCount := xs[0], 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// ModeString returns the most frequent string. Ties break lexicographically.
func ModeString(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	counts := map[string]int{}
	for _, x := range xs {
		counts[x]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// OutlierIndices returns the indices of values outside the 1.5×IQR fences.
func OutlierIndices(xs []float64) []int {
	if len(xs) < 4 {
		return nil
	}
	q1, _, q3 := Quartiles(xs)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	var out []int
	for i, x := range xs {
		if x < lower || x > upper {
			out = append(out, i)
		}
	}
	return out
}

package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanVarianceStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(xs); !almostEqual(got, 5) {
		t.Errorf("Mean = %v, want 5", got)
	}
	if got := Variance(xs); !almostEqual(got, 4) {
		t.Errorf("Variance = %v, want 4", got)
	}
	if got := Std(xs); !almostEqual(got, 2) {
		t.Errorf("Std = %v, want 2", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean(nil) = %v, want NaN", got)
	}
}

func TestPercentile(t *testing.T) {
	xs := []float64{15, 20, 35, 40, 50}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 15},
		{25, 20},
		{50, 35},
		{75, 40},
		{100, 50},
		{40, 29}, // rank 1.6 -> 20 + 0.6*(35-20)
	}
	for _, tt := range tests {
		if got := Percentile(xs, tt.p); !almostEqual(got, tt.want) {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestQuartilesAndMedian(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	q1, q2, q3 := Quartiles(xs)
	if !almostEqual(q1, 1.75) || !almostEqual(q2, 2.5) || !almostEqual(q3, 3.25) {
		t.Errorf("Quartiles = %v %v %v, want 1.75 2.5 3.25", q1, q2, q3)
	}
	if got := Median([]float64{3, 1, 2}); !almostEqual(got, 2) {
		t.Errorf("Median = %v, want 2", got)
	}
}

func TestSkewness(t *testing.T) {
	if got := Skewness([]float64{1, 2, 3, 4, 5}); !almostEqual(got, 0) {
		t.Errorf("symmetric skewness = %v, want 0", got)
	}
	if got := Skewness([]float64{1, 1, 1, 1, 100}); got <= 0 {
		t.Errorf("right-tailed skewness = %v, want > 0", got)
	}
	if got := Skewness([]float64{1, 2}); got != 0 {
		t.Errorf("too-few-values skewness = %v, want 0", got)
	}
	if got := Skewness([]float64{5, 5, 5, 5}); got != 0 {
		t.Errorf("constant skewness = %v, want 0", got)
	}
}

func TestCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}

	if got := Correlation(xs, []float64{2, 4, 6, 8, 10}); !almostEqual(got, 1) {
		t.Errorf("perfect positive = %v, want 1", got)
	}
	if got := Correlation(xs, []float64{10, 8, 6, 4, 2}); !almostEqual(got, -1) {
		t.Errorf("perfect negative = %v, want -1", got)
	}
	if got := Correlation(xs, []float64{3, 3, 3, 3, 3}); got != 0 {
		t.Errorf("constant series = %v, want 0", got)
	}
	if got := Correlation(xs, []float64{1, 2}); got != 0 {
		t.Errorf("length mismatch = %v, want 0", got)
	}
}

func TestMode(t *testing.T) {
	if got := Mode([]float64{1, 2, 2, 3}); got != 2 {
		t.Errorf("Mode = %v, want 2", got)
	}
	// Tie breaks toward the smaller value.
	if got := Mode([]float64{3, 3, 1, 1}); got != 1 {
		t.Errorf("Mode tie = %v, want 1", got)
	}
	if got := ModeString([]string{"b", "a", "b"}); got != "b" {
		t.Errorf("ModeString = %q, want b", got)
	}
	if got := ModeString([]string{"b", "a"}); got != "a" {
		t.Errorf("ModeString tie = %q, want a", got)
	}
}

func TestOutlierIndices(t *testing.T) {
	xs := []float64{10, 12, 11, 13, 12, 11, 10, 100}
	got := OutlierIndices(xs)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("OutlierIndices = %v, want [7]", got)
	}

	if got := OutlierIndices([]float64{1, 2, 3}); got != nil {
		t.Errorf("short input = %v, want nil", got)
	}
	if got := OutlierIndices([]float64{5, 5, 5, 5, 5}); got != nil {
		t.Errorf("constant input = %v, want nil", got)
	}
}

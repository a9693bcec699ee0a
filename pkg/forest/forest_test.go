package forest

import (
	"math"
	"testing"
)

// twoBlobs builds a linearly separable binary dataset.
func twoBlobs() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i % 5), float64(i % 3)})
		y = append(y, 0)
	}
	for i := 0; i < 20; i++ {
		X = append(X, []float64{10 + float64(i%5), 10 + float64(i%3)})
		y = append(y, 1)
	}
	return X, y
}

func TestTreeClassification(t *testing.T) {
	X, y := twoBlobs()
	tree := NewTree(Classification, WithTreeSeed(42))
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if got := tree.Predict([]float64{1, 1}); got != 0 {
		t.Errorf("Predict(low) = %v, want 0", got)
	}
	if got := tree.Predict([]float64{12, 11}); got != 1 {
		t.Errorf("Predict(high) = %v, want 1", got)
	}

	probas := tree.PredictProba([]float64{1, 1})
	if len(probas) != 2 {
		t.Fatalf("PredictProba length = %d, want 2", len(probas))
	}
	var sum float64
	for _, p := range probas {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probas sum = %v, want 1", sum)
	}
}

func TestTreeRegression(t *testing.T) {
	// y = 2x, one feature.
	var X [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, float64(2*i))
	}
	tree := NewTree(Regression, WithMaxDepth(8))
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got := tree.Predict([]float64{25})
	if math.Abs(got-50) > 5 {
		t.Errorf("Predict(25) = %v, want ≈50", got)
	}
}

func TestTreeInputValidation(t *testing.T) {
	tree := NewTree(Classification)
	if err := tree.Fit(nil, nil); err == nil {
		t.Error("expected error for empty X")
	}
	if err := tree.Fit([][]float64{{1}}, []float64{0, 1}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if err := tree.Fit([][]float64{{1, 2}, {1}}, []float64{0, 1}); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestForestClassification(t *testing.T) {
	X, y := twoBlobs()
	f := NewForest(Classification, WithNEstimators(20), WithSeed(42))
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	preds := f.Predict([][]float64{{1, 1}, {12, 11}})
	if preds[0] != 0 || preds[1] != 1 {
		t.Errorf("Predict = %v, want [0 1]", preds)
	}

	// Columns follow Classes(), which is sorted ascending regardless of
	// which label each bootstrap sample surfaced first.
	classes := f.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		t.Fatalf("Classes() = %v, want [0 1]", classes)
	}
	probas := f.PredictProba([][]float64{{1, 1}})
	if len(probas) != 1 || len(probas[0]) != 2 {
		t.Fatalf("unexpected probas shape: %v", probas)
	}
	if probas[0][0] < 0.9 {
		t.Errorf("P(class 0) = %v, want > 0.9", probas[0][0])
	}
}

func TestForestDeterminism(t *testing.T) {
	X, y := twoBlobs()

	run := func() []float64 {
		f := NewForest(Classification, WithNEstimators(10), WithSeed(7))
		if err := f.Fit(X, y); err != nil {
			t.Fatalf("Fit: %v", err)
		}
		return f.Predict(X)
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("prediction %d differs across identical seeds: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestForestFeatureImportances(t *testing.T) {
	// Only feature 0 is informative; feature 1 is constant.
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		label := 0.0
		if i >= 20 {
			label = 1
		}
		X = append(X, []float64{float64(i), 1})
		y = append(y, label)
	}

	f := NewForest(Classification, WithNEstimators(10), WithSeed(1), WithForestMaxFeatures(2))
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	imp := f.FeatureImportances()
	if len(imp) != 2 {
		t.Fatalf("importances length = %d, want 2", len(imp))
	}
	var sum float64
	for _, v := range imp {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances sum = %v, want 1", sum)
	}
	if imp[0] <= imp[1] {
		t.Errorf("importances = %v, want feature 0 dominant", imp)
	}
}

func TestForestEncodeDecode(t *testing.T) {
	X, y := twoBlobs()
	f := NewForest(Classification, WithNEstimators(5), WithSeed(3),
		WithFeatureNames([]string{"a", "b"}))
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	restored, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := f.Predict(X)
	got := restored.Predict(X)
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored prediction %d = %v, want %v", i, got[i], want[i])
		}
	}
	if len(restored.FeatureNames) != 2 || restored.FeatureNames[0] != "a" {
		t.Errorf("feature names not preserved: %v", restored.FeatureNames)
	}
}

func TestForestRegression(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, 3*float64(i)+1)
	}
	f := NewForest(Regression, WithNEstimators(20), WithSeed(11))
	if err := f.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got := f.Predict([][]float64{{30}})[0]
	if math.Abs(got-91) > 10 {
		t.Errorf("Predict(30) = %v, want ≈91", got)
	}
}

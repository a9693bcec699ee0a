package rules

import "math"

// RecommendImputation picks an imputation strategy from missingness severity.
// Categorical columns always take the mode; numeric columns escalate from
// simple statistics to model-based imputers as missingness grows.
func RecommendImputation(missingPct float64, colType ColumnType, hasOutliers bool) string {
	if colType != TypeNumeric {
		return "mode"
	}

	if missingPct <= 20.0 {
		if hasOutliers {
			return "median"
		}
		return "mean"
	}
	if missingPct < 40.0 {
		return "knn"
	}
	return "iterative"
}

// RecommendScaling picks a scaler from outlier presence and skewness.
func RecommendScaling(skewness float64, hasOutliers bool) string {
	if hasOutliers {
		return "robust"
	}
	if math.Abs(skewness) > 2.0 {
		return "log_transform"
	}
	return "standard"
}

// RecommendEncoding picks a categorical encoder from cardinality and the
// column's correlation with the target.
func RecommendEncoding(cardinality int, targetCorrelation float64) string {
	if cardinality < 10 {
		return "onehot"
	}
	if cardinality <= 50 {
		if math.Abs(targetCorrelation) > 0.3 {
			return "target"
		}
		return "onehot"
	}
	if cardinality > 100 {
		return "hash"
	}
	return "target"
}

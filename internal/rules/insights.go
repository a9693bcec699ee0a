package rules

import (
	"fmt"
	"sort"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// OutlierInsight grades the impact of outliers in a numeric column.
func OutlierInsight(column string, outlierCount, totalRows int64, mean, q75 float64) entity.EDAInsight {
	var pct float64
	if totalRows > 0 {
		pct = float64(outlierCount) / float64(totalRows) * 100
	}

	severity := SeverityLow
	switch {
	case pct > 10:
		severity = SeverityHigh
	case pct >= 1:
		severity = SeverityMedium
	}

	plural := "s"
	if outlierCount == 1 {
		plural = ""
	}
	message := fmt.Sprintf("%d outlier%s detected in '%s' column (%.1f%% of rows)",
		outlierCount, plural, column, pct)

	var recommendation string
	switch {
	case pct > 5:
		recommendation = fmt.Sprintf(
			"Consider removing %d outliers if they are clearly anomalous or apply log transformation if data is right-skewed",
			outlierCount)
	case pct >= 1:
		recommendation = "Use RobustScaler to handle outliers while preserving valid extreme values"
	case mean > q75:
		recommendation = "Apply log transformation to reduce right skewness and minimize outlier impact"
	default:
		recommendation = fmt.Sprintf(
			"Outliers are minimal (%.1f%%). Use RobustScaler or leave as-is if valid extreme values", pct)
	}

	return entity.EDAInsight{
		Type:           "outlier_detection",
		Severity:       severity,
		Column:         column,
		Message:        message,
		Recommendation: recommendation,
	}
}

// MissingValueInsight grades missingness and suggests an imputation approach
// appropriate to the column type.
func MissingValueInsight(column string, missingPct float64, colType ColumnType, totalRows int64) entity.EDAInsight {
	if missingPct <= 0 {
		return entity.EDAInsight{
			Type:           "missing_values",
			Severity:       SeverityLow,
			Column:         column,
			Message:        fmt.Sprintf("No missing values in '%s'", column),
			Recommendation: "N/A",
		}
	}

	missingCount := int64(missingPct / 100 * float64(totalRows))

	severity := SeverityLow
	switch {
	case missingPct > 20:
		severity = SeverityHigh
	case missingPct >= 5:
		severity = SeverityMedium
	}

	message := fmt.Sprintf("%.1f%% missing values in '%s' column (%d of %d rows)",
		missingPct, column, missingCount, totalRows)

	var recommendation string
	switch colType {
	case TypeNumeric:
		switch {
		case missingPct > 20:
			recommendation = "High missingness detected. Use KNN imputation to preserve relationships with other features or consider creating a 'missing' indicator feature"
		case missingPct >= 5:
			recommendation = "Use median imputation for robustness or KNN imputation for better accuracy"
		default:
			recommendation = "Low missingness. Use simple median or mean imputation"
		}
	case TypeCategorical:
		switch {
		case missingPct > 20:
			recommendation = "Create a separate 'Missing' category to preserve information about missingness"
		case missingPct >= 5:
			recommendation = "Use mode (most frequent value) imputation or create 'Missing' category"
		default:
			recommendation = "Low missingness. Use mode imputation or drop rows if acceptable"
		}
	case TypeDatetime:
		if missingPct > 5 {
			recommendation = "Use forward fill for time series data or drop rows if not critical"
		} else {
			recommendation = "Low missingness. Drop rows or use forward/backward fill for time series"
		}
	default:
		recommendation = "Review missing value pattern and decide on imputation strategy based on domain knowledge"
	}

	return entity.EDAInsight{
		Type:           "missing_values",
		Severity:       severity,
		Column:         column,
		Message:        message,
		Recommendation: recommendation,
	}
}

// ImbalanceInsight grades class imbalance in a categorical column from its
// value counts.
func ImbalanceInsight(column string, valueCounts map[string]int64) entity.EDAInsight {
	if len(valueCounts) < 2 {
		return entity.EDAInsight{
			Type:     "class_imbalance",
			Severity: SeverityLow,
			Column:   column,
			Message: fmt.Sprintf("Column '%s' has %d class(es). No imbalance analysis needed.",
				column, len(valueCounts)),
			Recommendation: "N/A",
		}
	}

	type classCount struct {
		name  string
		count int64
	}
	var classes []classCount
	var total int64
	for name, count := range valueCounts {
		classes = append(classes, classCount{name, count})
		total += count
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].count != classes[j].count {
			return classes[i].count > classes[j].count
		}
		return classes[i].name < classes[j].name
	})

	majority := classes[0]
	minority := classes[len(classes)-1]
	ratio := float64(majority.count)
	if minority.count > 0 {
		ratio = float64(majority.count) / float64(minority.count)
	}

	if ratio < 1.5 {
		return entity.EDAInsight{
			Type:           "class_imbalance",
			Severity:       SeverityLow,
			Column:         column,
			Message:        fmt.Sprintf("Column '%s' is balanced (ratio %.1f:1)", column, ratio),
			Recommendation: "No action needed. Classes are well balanced.",
		}
	}

	severity := SeverityLow
	switch {
	case ratio > 10:
		severity = SeverityHigh
	case ratio >= 3:
		severity = SeverityMedium
	}

	majorityPct := float64(majority.count) / float64(total) * 100
	minorityPct := float64(minority.count) / float64(total) * 100
	message := fmt.Sprintf(
		"Class imbalance detected in '%s': %.1f%% class '%s', %.1f%% class '%s' (ratio %.1f:1)",
		column, majorityPct, majority.name, minorityPct, minority.name, ratio)

	var recommendation string
	switch {
	case ratio > 10:
		recommendation = "Severe imbalance detected. Apply SMOTE oversampling combined with ensemble methods (e.g., BalancedRandomForest) or consider anomaly detection"
	case ratio >= 3:
		recommendation = "Use SMOTE oversampling to balance classes or apply undersampling to reduce majority class if dataset is large"
	default:
		recommendation = "Mild imbalance. Use class_weight='balanced' in model training (e.g., RandomForest, LogisticRegression)"
	}

	return entity.EDAInsight{
		Type:           "class_imbalance",
		Severity:       severity,
		Column:         column,
		Message:        message,
		Recommendation: recommendation,
	}
}

// strongCorrelationThreshold separates "Strong" from "Moderate" findings.
const strongCorrelationThreshold = 0.7

// CorrelationInsights reports notable feature correlations. Pairs below
// |r| = 0.5 are skipped; pairs at or above the strong threshold are graded
// medium severity.
func CorrelationInsights(pairs []entity.CorrelationPair) []entity.EDAInsight {
	var insights []entity.EDAInsight
	seen := map[[2]string]bool{}

	for _, p := range pairs {
		if p.ColumnA == p.ColumnB {
			continue
		}
		key := [2]string{p.ColumnA, p.ColumnB}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		abs := p.Correlation
		if abs < 0 {
			abs = -abs
		}
		if abs < 0.5 {
			continue
		}

		severity, strength := SeverityLow, "Moderate"
		if abs >= strongCorrelationThreshold {
			severity, strength = SeverityMedium, "Strong"
		}
		direction := "positive"
		if p.Correlation < 0 {
			direction = "negative"
		}

		message := fmt.Sprintf("%s %s correlation (%.2f) between '%s' and '%s'",
			strength, direction, p.Correlation, p.ColumnA, p.ColumnB)

		var recommendation string
		if abs >= strongCorrelationThreshold {
			recommendation = fmt.Sprintf(
				"Features '%s' and '%s' are highly correlated. Consider removing one to reduce multicollinearity or apply PCA if model shows high variance",
				p.ColumnA, p.ColumnB)
		} else {
			recommendation = fmt.Sprintf(
				"Monitor '%s' and '%s' for multicollinearity. May use PCA or feature selection if model overfits",
				p.ColumnA, p.ColumnB)
		}

		insights = append(insights, entity.EDAInsight{
			Type:           "correlation",
			Severity:       severity,
			Columns:        []string{p.ColumnA, p.ColumnB},
			Message:        message,
			Recommendation: recommendation,
		})
	}
	return insights
}

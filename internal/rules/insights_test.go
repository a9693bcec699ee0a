package rules

import (
	"strings"
	"testing"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

func TestOutlierInsight(t *testing.T) {
	tests := []struct {
		name         string
		outliers     int64
		totalRows    int64
		mean, q75    float64
		wantSeverity string
		wantRecPart  string
	}{
		{
			name:         "above ten percent is high",
			outliers:     120,
			totalRows:    1000,
			wantSeverity: SeverityHigh,
			wantRecPart:  "removing 120 outliers",
		},
		{
			name:         "between one and five percent is medium",
			outliers:     30,
			totalRows:    1000,
			wantSeverity: SeverityMedium,
			wantRecPart:  "RobustScaler",
		},
		{
			name:         "minimal with right skew suggests log transform",
			outliers:     2,
			totalRows:    891,
			mean:         35.0,
			q75:          31.0,
			wantSeverity: SeverityLow,
			wantRecPart:  "log transformation",
		},
		{
			name:         "minimal without skew",
			outliers:     2,
			totalRows:    891,
			mean:         28.0,
			q75:          31.0,
			wantSeverity: SeverityLow,
			wantRecPart:  "Outliers are minimal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutlierInsight("Age", tt.outliers, tt.totalRows, tt.mean, tt.q75)
			if got.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if !strings.Contains(got.Recommendation, tt.wantRecPart) {
				t.Errorf("recommendation %q missing %q", got.Recommendation, tt.wantRecPart)
			}
			if got.Column != "Age" || got.Type != "outlier_detection" {
				t.Errorf("unexpected insight identity: %+v", got)
			}
		})
	}
}

func TestOutlierInsightSingularMessage(t *testing.T) {
	got := OutlierInsight("Fare", 1, 1000, 0, 0)
	if !strings.Contains(got.Message, "1 outlier detected") {
		t.Errorf("message = %q, want singular form", got.Message)
	}
}

func TestMissingValueInsight(t *testing.T) {
	tests := []struct {
		name         string
		missingPct   float64
		colType      ColumnType
		wantSeverity string
		wantRecPart  string
	}{
		{"no missing", 0, TypeNumeric, SeverityLow, "N/A"},
		{"numeric high", 25.0, TypeNumeric, SeverityHigh, "KNN imputation"},
		{"numeric medium", 19.9, TypeNumeric, SeverityMedium, "median imputation"},
		{"numeric low", 2.0, TypeNumeric, SeverityLow, "simple median or mean"},
		{"categorical high", 30.0, TypeCategorical, SeverityHigh, "'Missing' category"},
		{"categorical medium", 8.0, TypeCategorical, SeverityMedium, "mode (most frequent value)"},
		{"categorical low", 3.0, TypeCategorical, SeverityLow, "mode imputation"},
		{"datetime above five", 10.0, TypeDatetime, SeverityMedium, "forward fill"},
		{"datetime low", 2.0, TypeDatetime, SeverityLow, "forward/backward fill"},
		{"unknown type", 12.0, TypeText, SeverityMedium, "domain knowledge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingValueInsight("Age", tt.missingPct, tt.colType, 891)
			if got.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if !strings.Contains(got.Recommendation, tt.wantRecPart) {
				t.Errorf("recommendation %q missing %q", got.Recommendation, tt.wantRecPart)
			}
		})
	}
}

func TestMissingValueInsightMessage(t *testing.T) {
	got := MissingValueInsight("Age", 19.9, TypeNumeric, 891)
	want := "19.9% missing values in 'Age' column (177 of 891 rows)"
	if got.Message != want {
		t.Errorf("message = %q, want %q", got.Message, want)
	}
}

func TestImbalanceInsight(t *testing.T) {
	tests := []struct {
		name         string
		counts       map[string]int64
		wantSeverity string
		wantRecPart  string
	}{
		{
			name:         "single class not applicable",
			counts:       map[string]int64{"a": 100},
			wantSeverity: SeverityLow,
			wantRecPart:  "N/A",
		},
		{
			name:         "balanced classes",
			counts:       map[string]int64{"0": 549, "1": 400},
			wantSeverity: SeverityLow,
			wantRecPart:  "well balanced",
		},
		{
			name:         "mild imbalance",
			counts:       map[string]int64{"0": 549, "1": 342},
			wantSeverity: SeverityLow,
			wantRecPart:  "class_weight='balanced'",
		},
		{
			name:         "moderate imbalance",
			counts:       map[string]int64{"0": 800, "1": 200},
			wantSeverity: SeverityMedium,
			wantRecPart:  "SMOTE oversampling",
		},
		{
			name:         "severe imbalance",
			counts:       map[string]int64{"0": 980, "1": 20},
			wantSeverity: SeverityHigh,
			wantRecPart:  "BalancedRandomForest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImbalanceInsight("Survived", tt.counts)
			if got.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if !strings.Contains(got.Recommendation, tt.wantRecPart) {
				t.Errorf("recommendation %q missing %q", got.Recommendation, tt.wantRecPart)
			}
		})
	}
}

func TestCorrelationInsights(t *testing.T) {
	pairs := []entity.CorrelationPair{
		{ColumnA: "Fare", ColumnB: "Pclass", Correlation: -0.55},
		{ColumnA: "Pclass", ColumnB: "Fare", Correlation: -0.55}, // duplicate pair
		{ColumnA: "SibSp", ColumnB: "Parch", Correlation: 0.41},  // below cutoff
		{ColumnA: "Age", ColumnB: "Age", Correlation: 1.0},       // self
		{ColumnA: "Height", ColumnB: "Weight", Correlation: 0.82},
	}

	got := CorrelationInsights(pairs)
	if len(got) != 2 {
		t.Fatalf("len(insights) = %d, want 2", len(got))
	}

	moderate := got[0]
	if moderate.Severity != SeverityLow {
		t.Errorf("moderate severity = %q, want low", moderate.Severity)
	}
	if !strings.Contains(moderate.Message, "Moderate negative correlation (-0.55)") {
		t.Errorf("unexpected moderate message: %q", moderate.Message)
	}

	strong := got[1]
	if strong.Severity != SeverityMedium {
		t.Errorf("strong severity = %q, want medium", strong.Severity)
	}
	if !strings.Contains(strong.Message, "Strong positive correlation (0.82)") {
		t.Errorf("unexpected strong message: %q", strong.Message)
	}
	if !strings.Contains(strong.Recommendation, "multicollinearity") {
		t.Errorf("unexpected strong recommendation: %q", strong.Recommendation)
	}
}

package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

var severityRank = map[string]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// SummarizeInsights builds a one-sentence action plan from the top three
// findings, most severe first.
func SummarizeInsights(insights []entity.EDAInsight) string {
	if len(insights) == 0 {
		return "No significant data quality issues detected. Dataset is ready for modeling."
	}

	sorted := make([]entity.EDAInsight, len(insights))
	copy(sorted, insights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i].Severity) < rank(sorted[j].Severity)
	})

	var highCount, mediumCount int
	for _, in := range insights {
		switch in.Severity {
		case SeverityHigh:
			highCount++
		case SeverityMedium:
			mediumCount++
		}
	}

	if highCount == 0 && mediumCount == 0 {
		return "Only minor data quality issues detected. Dataset is in good condition for modeling."
	}

	top := sorted
	if len(top) > 3 {
		top = top[:3]
	}

	var parts []string
	for _, in := range top {
		switch {
		case in.Type == "missing_values" && in.Column != "":
			if pct, ok := percentFromMessage(in.Message); ok {
				parts = append(parts, fmt.Sprintf("handling %s%% missing values in '%s'", pct, in.Column))
			} else {
				parts = append(parts, fmt.Sprintf("handling missing values in '%s'", in.Column))
			}
		case in.Type == "class_imbalance" && in.Column != "":
			parts = append(parts, fmt.Sprintf("addressing class imbalance in '%s'", in.Column))
		case in.Type == "outlier_detection" && in.Column != "":
			parts = append(parts, fmt.Sprintf("handling outliers in '%s'", in.Column))
		case in.Type == "correlation" && len(in.Columns) == 2:
			parts = append(parts, fmt.Sprintf("addressing correlation between '%s' and '%s'",
				in.Columns[0], in.Columns[1]))
		}
	}

	if len(parts) == 0 {
		return "Review identified data quality issues before proceeding to modeling."
	}

	var summary string
	switch len(parts) {
	case 1:
		summary = fmt.Sprintf("Focus on %s before training.", parts[0])
	case 2:
		summary = fmt.Sprintf("Focus on %s and %s before training.", parts[0], parts[1])
	default:
		summary = fmt.Sprintf("Focus on %s, %s, and %s before training.", parts[0], parts[1], parts[2])
	}

	if highCount > 0 {
		plural := "s"
		if highCount == 1 {
			plural = ""
		}
		summary += fmt.Sprintf(" (%d high-severity issue%s detected)", highCount, plural)
	}
	return summary
}

func rank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return 3
}

// percentFromMessage extracts the number preceding the first percent sign.
func percentFromMessage(message string) (string, bool) {
	idx := strings.Index(message, "%")
	if idx < 0 {
		return "", false
	}
	fields := strings.Fields(message[:idx])
	if len(fields) == 0 {
		return "", false
	}
	return fields[len(fields)-1], true
}

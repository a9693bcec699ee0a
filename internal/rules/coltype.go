// Package rules holds the deterministic decision logic behind the agents:
// column type detection, preprocessing strategy selection and EDA insights.
// Everything here is pure and independently testable.
package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// ColumnType is one of the five inferable column types.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
	TypeDatetime    ColumnType = "datetime"
	TypeText        ColumnType = "text"
	TypeBoolean     ColumnType = "boolean"
)

var (
	datetimeKeywords = []string{"date", "time", "timestamp", "created", "updated", "modified"}
	booleanPrefixes  = []string{"is_", "has_", "flag", "enabled", "active"}
	numericKeywords  = []string{"id", "count", "amount", "price", "age", "score"}

	currencyRe = regexp.MustCompile(`[$,€£¥]`)

	datetimePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`\d{4}/\d{2}/\d{2}`),
		regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
	}

	booleanValues = map[string]bool{
		"true": true, "false": true, "yes": true, "no": true,
		"0": true, "1": true, "t": true, "f": true, "y": true, "n": true,
	}
)

// cleanSamples trims whitespace and drops empty values.
func cleanSamples(samples []string) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DetectColumnType infers a column's type from its header name and sampled
// values. Name keywords are checked first, then value patterns, and finally
// the uniqueness ratio separates categorical from free text.
//
// columnUniqueRatio is distinct-over-total measured on the whole column. A
// small sample of a low-cardinality column easily looks mostly unique, so
// the full-column ratio decides; pass a negative value when only the sample
// is available.
func DetectColumnType(columnName string, sampleValues []string, columnUniqueRatio float64) ColumnType {
	samples := cleanSamples(sampleValues)
	if len(samples) == 0 {
		return TypeText
	}

	nameLower := strings.ToLower(columnName)

	for _, kw := range datetimeKeywords {
		if strings.Contains(nameLower, kw) && isDatetimePattern(samples) {
			return TypeDatetime
		}
	}
	for _, kw := range booleanPrefixes {
		if strings.HasPrefix(nameLower, kw) && isBooleanPattern(samples) {
			return TypeBoolean
		}
	}
	for _, kw := range numericKeywords {
		if strings.Contains(nameLower, kw) && isNumericPattern(samples) {
			return TypeNumeric
		}
	}

	if isNumericPattern(samples) {
		return TypeNumeric
	}
	if isBooleanPattern(samples) {
		return TypeBoolean
	}
	if isDatetimePattern(samples) {
		return TypeDatetime
	}

	ratio := columnUniqueRatio
	if ratio < 0 {
		ratio = uniqueRatio(samples)
	}
	if ratio < 0.5 {
		return TypeCategorical
	}
	return TypeText
}

// ParseSuccessRate reports the fraction of samples that parse as the type.
func ParseSuccessRate(t ColumnType, sampleValues []string) float64 {
	samples := cleanSamples(sampleValues)
	if len(samples) == 0 {
		return 0
	}
	ok := 0
	for _, s := range samples {
		switch t {
		case TypeNumeric:
			if _, err := parseNumeric(s); err == nil {
				ok++
			}
		case TypeBoolean:
			if booleanValues[strings.ToLower(s)] {
				ok++
			}
		case TypeDatetime:
			if matchesAnyDatetime(s) {
				ok++
			}
		default:
			ok++
		}
	}
	return float64(ok) / float64(len(samples))
}

func parseNumeric(s string) (float64, error) {
	return strconv.ParseFloat(currencyRe.ReplaceAllString(s, ""), 64)
}

func isNumericPattern(samples []string) bool {
	n := 0
	for _, s := range samples {
		if _, err := parseNumeric(s); err == nil {
			n++
		}
	}
	return float64(n)/float64(len(samples)) >= 0.8
}

func isBooleanPattern(samples []string) bool {
	uniq := map[string]bool{}
	for _, s := range samples {
		lower := strings.ToLower(s)
		if !booleanValues[lower] {
			return false
		}
		uniq[lower] = true
	}
	return len(uniq) <= 2
}

func matchesAnyDatetime(s string) bool {
	for _, re := range datetimePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func isDatetimePattern(samples []string) bool {
	n := 0
	for _, s := range samples {
		if matchesAnyDatetime(s) {
			n++
		}
	}
	return float64(n)/float64(len(samples)) >= 0.7
}

func uniqueRatio(samples []string) float64 {
	uniq := map[string]bool{}
	for _, s := range samples {
		uniq[s] = true
	}
	return float64(len(uniq)) / float64(len(samples))
}

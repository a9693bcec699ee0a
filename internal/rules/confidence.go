package rules

import "math"

// EstimateConfidence scores how reliable a type detection is, in [0, 1].
// Parse success carries half the weight, pattern consistency 30% and
// sample size adequacy the remaining 20%.
func EstimateConfidence(detected ColumnType, sampleValues []string, parseSuccessRate float64) float64 {
	if len(sampleValues) == 0 {
		return 0
	}

	sizeFactor := math.Min(float64(len(sampleValues))/10.0, 1.0)
	consistency := consistencyScore(sampleValues, detected)

	confidence := parseSuccessRate*0.5 + consistency*0.3 + sizeFactor*0.2
	return math.Max(0, math.Min(1, confidence))
}

func consistencyScore(sampleValues []string, detected ColumnType) float64 {
	samples := cleanSamples(sampleValues)
	if len(samples) == 0 {
		return 0
	}

	switch detected {
	case TypeNumeric:
		return numericConsistency(samples)
	case TypeCategorical:
		// Repeated values signal categorical, so low uniqueness scores high.
		return 1.0 - uniqueRatio(samples)
	case TypeDatetime:
		return datetimeConsistency(samples)
	case TypeBoolean:
		uniq := map[string]bool{}
		for _, s := range samples {
			uniq[s] = true
		}
		if len(uniq) <= 2 {
			return 1.0
		}
		return 0.5
	default:
		return 0.6
	}
}

// numericConsistency grades range stability by coefficient of variation.
func numericConsistency(samples []string) float64 {
	var values []float64
	for _, s := range samples {
		if v, err := parseNumeric(s); err == nil {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return 0.5
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0.7
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	cv := math.Sqrt(variance) / math.Abs(mean)

	switch {
	case cv < 0.5:
		return 0.95
	case cv < 1.0:
		return 0.85
	case cv < 2.0:
		return 0.75
	default:
		return 0.65
	}
}

// datetimeConsistency grades format uniformity by string length variance.
func datetimeConsistency(samples []string) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(len(s))
	}
	avg := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := float64(len(s)) - avg
		variance += d * d
	}
	variance /= float64(len(samples))

	switch {
	case variance < 2:
		return 0.95
	case variance < 5:
		return 0.85
	default:
		return 0.70
	}
}

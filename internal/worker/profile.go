package worker

import (
	"sort"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/rules"
	"github.com/h19overflow/PipeWeave/pkg/dataframe"
	"github.com/h19overflow/PipeWeave/pkg/stats"
)

// reportVersion identifies the profiling output format.
const reportVersion = "1.0"

const (
	profileSampleSize   = 50
	profileTopValues    = 5
	imbalanceMaxClasses = 10
)

// buildFullReport profiles every column, computes the numeric correlation
// matrix, and runs the insight rules over the findings.
func buildFullReport(df *dataframe.DataFrame) (*entity.EDAFullReport, error) {
	totalRows := int64(df.NumRows())

	var (
		columns        []entity.ColumnProfile
		insights       []entity.EDAInsight
		totalMissing   int64
		numericNames   []string
		numericColumns = map[string][]float64{}
	)

	for _, name := range df.Columns() {
		sample, err := df.Sample(name, profileSampleSize)
		if err != nil {
			return nil, err
		}

		missing, err := df.MissingCount(name)
		if err != nil {
			return nil, err
		}
		totalMissing += missing

		missingPct := 0.0
		if totalRows > 0 {
			missingPct = float64(missing) / float64(totalRows) * 100
		}

		values, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		unique := make(map[string]struct{}, len(values))
		for _, v := range values {
			if !dataframe.IsMissing(v) {
				unique[v] = struct{}{}
			}
		}

		uniqueRatio := -1.0
		if observed := int64(len(values)) - missing; observed > 0 {
			uniqueRatio = float64(len(unique)) / float64(observed)
		}
		colType := rules.DetectColumnType(name, sample, uniqueRatio)

		profile := entity.ColumnProfile{
			Name:         name,
			Type:         string(colType),
			MissingCount: missing,
			MissingPct:   missingPct,
			UniqueCount:  int64(len(unique)),
		}

		switch colType {
		case rules.TypeNumeric:
			nums, present, err := df.NumericColumn(name)
			if err != nil {
				return nil, err
			}
			observed := make([]float64, 0, len(nums))
			for i, v := range nums {
				if present[i] {
					observed = append(observed, v)
				}
			}
			if len(observed) > 0 {
				fillNumericProfile(&profile, observed)
				numericNames = append(numericNames, name)
				numericColumns[name] = observed

				if profile.OutlierCount > 0 {
					insights = append(insights, rules.OutlierInsight(
						name, profile.OutlierCount, totalRows, *profile.Mean, *profile.Q75))
				}
			}
		case rules.TypeCategorical, rules.TypeBoolean:
			counts, err := df.ValueCounts(name)
			if err != nil {
				return nil, err
			}
			profile.TopValues = topValues(counts, profileTopValues)
			if len(counts) >= 2 && len(counts) <= imbalanceMaxClasses {
				insights = append(insights, rules.ImbalanceInsight(name, counts))
			}
		}

		if missing > 0 {
			insights = append(insights, rules.MissingValueInsight(name, missingPct, colType, totalRows))
		}

		columns = append(columns, profile)
	}

	correlations := correlationPairs(numericNames, numericColumns)
	insights = append(insights, rules.CorrelationInsights(correlations)...)

	report := &entity.EDAFullReport{
		Summary: entity.EDASummary{
			NumRows:          totalRows,
			NumColumns:       df.NumColumns(),
			DuplicateRows:    df.DuplicateRows(),
			MemoryUsageBytes: df.MemoryUsageBytes(),
		},
		Columns:               columns,
		Correlations:          correlations,
		Insights:              insights,
		SummaryRecommendation: rules.SummarizeInsights(insights),
		ReportVersion:         reportVersion,
	}
	if totalRows > 0 && df.NumColumns() > 0 {
		cells := totalRows * int64(df.NumColumns())
		report.Summary.MissingPercentage = float64(totalMissing) / float64(cells) * 100
	}
	return report, nil
}

func fillNumericProfile(p *entity.ColumnProfile, observed []float64) {
	mean := stats.Mean(observed)
	std := stats.Std(observed)
	min, max := observed[0], observed[0]
	for _, v := range observed {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	q1, q2, q3 := stats.Quartiles(observed)
	skew := stats.Skewness(observed)

	p.Mean = &mean
	p.Std = &std
	p.Min = &min
	p.Max = &max
	p.Q25 = &q1
	p.Q50 = &q2
	p.Q75 = &q3
	p.Skewness = &skew
	p.OutlierCount = int64(len(stats.OutlierIndices(observed)))
}

// correlationPairs computes pairwise Pearson correlations over the rows where
// both columns are observed. Columns of unequal observed length fall back to
// the shorter prefix, which only happens in the presence of missing values.
func correlationPairs(names []string, columns map[string][]float64) []entity.CorrelationPair {
	var pairs []entity.CorrelationPair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := columns[names[i]], columns[names[j]]
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			if n < 2 {
				continue
			}
			pairs = append(pairs, entity.CorrelationPair{
				ColumnA:     names[i],
				ColumnB:     names[j],
				Correlation: stats.Correlation(a[:n], b[:n]),
			})
		}
	}
	return pairs
}

func topValues(counts map[string]int64, n int) []string {
	type entry struct {
		value string
		count int64
	}
	entries := make([]entry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, entry{v, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

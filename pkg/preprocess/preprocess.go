// Package preprocess turns a raw string dataframe into a dense numeric
// feature matrix with a fixed recipe: numeric columns are median-imputed
// and standardized, low-cardinality categorical columns are mode-imputed
// and one-hot encoded. Fitted parameters are kept so the same transform
// can be replayed on unseen data.
package preprocess

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/h19overflow/PipeWeave/pkg/dataframe"
	"github.com/h19overflow/PipeWeave/pkg/stats"
)

// maxOneHotCardinality caps the categories a column may have to be encoded.
const maxOneHotCardinality = 10

// numericColumn holds fitted parameters for one numeric feature.
type numericColumn struct {
	Name   string
	Median float64
	Mean   float64
	Std    float64
}

// categoricalColumn holds fitted parameters for one encoded feature.
type categoricalColumn struct {
	Name       string
	Mode       string
	Categories []string // sorted, fixed one-hot order
}

// Preprocessor is a fit-once transformer over a dataframe.
type Preprocessor struct {
	Numeric     []numericColumn
	Categorical []categoricalColumn
	Target      string
}

// Fit inspects every column except the target and learns imputation and
// scaling parameters. Columns that are neither numeric nor low-cardinality
// categorical are dropped.
func Fit(df *dataframe.DataFrame, target string) (*Preprocessor, error) {
	if !df.HasColumn(target) {
		return nil, fmt.Errorf("target column %q not found", target)
	}
	p := &Preprocessor{Target: target}

	for _, col := range df.Columns() {
		if col == target {
			continue
		}

		values, present, err := df.NumericColumn(col)
		if err != nil {
			return nil, err
		}
		var observed []float64
		for i, ok := range present {
			if ok {
				observed = append(observed, values[i])
			}
		}

		raw, err := df.Column(col)
		if err != nil {
			return nil, err
		}
		nonMissing := 0
		for _, cell := range raw {
			if !dataframe.IsMissing(cell) {
				nonMissing++
			}
		}

		// Numeric when at least 80% of observed cells parse.
		if nonMissing > 0 && float64(len(observed))/float64(nonMissing) >= 0.8 && len(observed) > 0 {
			std := stats.Std(observed)
			if std == 0 {
				std = 1 // constant column, avoid dividing by zero
			}
			p.Numeric = append(p.Numeric, numericColumn{
				Name:   col,
				Median: stats.Median(observed),
				Mean:   stats.Mean(observed),
				Std:    std,
			})
			continue
		}

		counts, err := df.ValueCounts(col)
		if err != nil {
			return nil, err
		}
		if len(counts) == 0 || len(counts) > maxOneHotCardinality {
			continue
		}
		categories := make([]string, 0, len(counts))
		var mode string
		var modeCount int64
		for v, c := range counts {
			categories = append(categories, v)
			if c > modeCount || (c == modeCount && v < mode) {
				mode, modeCount = v, c
			}
		}
		sort.Strings(categories)
		p.Categorical = append(p.Categorical, categoricalColumn{
			Name:       col,
			Mode:       mode,
			Categories: categories,
		})
	}

	if len(p.Numeric) == 0 && len(p.Categorical) == 0 {
		return nil, errors.New("no usable feature columns")
	}
	return p, nil
}

// FeatureNames returns the expanded output column names, numeric first then
// one-hot columns as "col_category".
func (p *Preprocessor) FeatureNames() []string {
	var names []string
	for _, n := range p.Numeric {
		names = append(names, n.Name)
	}
	for _, c := range p.Categorical {
		for _, cat := range c.Categories {
			names = append(names, c.Name+"_"+cat)
		}
	}
	return names
}

// Transform builds the numeric feature matrix for the fitted columns.
// Unknown categories at transform time produce an all-zero one-hot block.
func (p *Preprocessor) Transform(df *dataframe.DataFrame) ([][]float64, error) {
	n := df.NumRows()
	width := len(p.FeatureNames())
	X := make([][]float64, n)
	for i := range X {
		X[i] = make([]float64, width)
	}

	offset := 0
	for _, nc := range p.Numeric {
		values, present, err := df.NumericColumn(nc.Name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			v := nc.Median
			if present[i] {
				v = values[i]
			}
			X[i][offset] = (v - nc.Mean) / nc.Std
		}
		offset++
	}

	for _, cc := range p.Categorical {
		raw, err := df.Column(cc.Name)
		if err != nil {
			return nil, err
		}
		catIndex := make(map[string]int, len(cc.Categories))
		for j, cat := range cc.Categories {
			catIndex[cat] = j
		}
		for i := 0; i < n; i++ {
			cell := strings.TrimSpace(raw[i])
			if dataframe.IsMissing(cell) {
				cell = cc.Mode
			}
			if j, ok := catIndex[cell]; ok {
				X[i][offset+j] = 1
			}
		}
		offset += len(cc.Categories)
	}
	return X, nil
}

// TargetVector extracts the target column for the given task. Classification
// maps distinct labels to 0..k-1 in sorted label order and returns the
// mapping; regression parses the column as float64.
func TargetVector(df *dataframe.DataFrame, target string, classification bool) (y []float64, classNames []string, err error) {
	raw, err := df.Column(target)
	if err != nil {
		return nil, nil, err
	}

	if !classification {
		y = make([]float64, len(raw))
		for i, cell := range raw {
			if dataframe.IsMissing(cell) {
				return nil, nil, fmt.Errorf("target column %q has a missing value at row %d", target, i+1)
			}
			v, perr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if perr != nil {
				return nil, nil, fmt.Errorf("target column %q is not numeric at row %d", target, i+1)
			}
			y[i] = v
		}
		return y, nil, nil
	}

	seen := map[string]bool{}
	for _, cell := range raw {
		if dataframe.IsMissing(cell) {
			return nil, nil, fmt.Errorf("target column %q has missing labels", target)
		}
		seen[strings.TrimSpace(cell)] = true
	}
	classNames = make([]string, 0, len(seen))
	for v := range seen {
		classNames = append(classNames, v)
	}
	sort.Strings(classNames)

	labelIndex := make(map[string]float64, len(classNames))
	for i, name := range classNames {
		labelIndex[name] = float64(i)
	}
	y = make([]float64, len(raw))
	for i, cell := range raw {
		y[i] = labelIndex[strings.TrimSpace(cell)]
	}
	return y, classNames, nil
}

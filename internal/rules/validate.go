package rules

import (
	"fmt"
	"sort"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// ValidationResult is the outcome of checking a pipeline config against a
// dataset's columns.
type ValidationResult struct {
	Valid      bool
	OutputCols int
	Errors     []string
}

var validOperations = map[string]map[string]bool{
	"imputation": {"mean": true, "median": true, "mode": true, "knn": true, "iterative": true},
	"scaling":    {"standard": true, "robust": true, "minmax": true, "log_transform": true},
	"encoding":   {"onehot": true, "target": true, "ordinal": true, "hash": true},
}

// ValidatePipelineConfig checks a preprocessing plan for referential and
// structural consistency: every step must name a known operation, reference
// only existing columns, and no column may be claimed by two steps of the
// same type.
func ValidatePipelineConfig(cfg entity.PipelineConfig, datasetColumns []string) ValidationResult {
	res := ValidationResult{Valid: true}

	known := make(map[string]bool, len(datasetColumns))
	for _, c := range datasetColumns {
		known[c] = true
	}

	if cfg.TargetColumn != "" && !known[cfg.TargetColumn] {
		res.Errors = append(res.Errors,
			fmt.Sprintf("target column %q not found in dataset", cfg.TargetColumn))
		res.Valid = false
	}

	if len(cfg.Steps) == 0 {
		res.Errors = append(res.Errors, "pipeline has no steps")
		res.Valid = false
	}

	claimed := map[string]map[string]bool{}
	referenced := map[string]bool{}
	for _, step := range cfg.Steps {
		ops, ok := validOperations[step.Type]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("unknown step type %q", step.Type))
			res.Valid = false
			continue
		}
		if !ops[step.Operation] {
			res.Errors = append(res.Errors,
				fmt.Sprintf("unknown %s operation %q", step.Type, step.Operation))
			res.Valid = false
		}
		if len(step.TargetColumns) == 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("step %q has no target columns", step.ID))
			res.Valid = false
		}

		var missing []string
		for _, col := range step.TargetColumns {
			if !known[col] {
				missing = append(missing, col)
				continue
			}
			referenced[col] = true
			if claimed[step.Type] == nil {
				claimed[step.Type] = map[string]bool{}
			}
			if claimed[step.Type][col] {
				res.Errors = append(res.Errors,
					fmt.Sprintf("column %q assigned to multiple %s steps", col, step.Type))
				res.Valid = false
			}
			claimed[step.Type][col] = true
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			res.Errors = append(res.Errors,
				fmt.Sprintf("missing columns in dataset: %v", missing))
			res.Valid = false
		}
	}

	checkDependencies(cfg.Steps, &res)

	if res.Valid {
		res.OutputCols = len(referenced)
	}
	return res
}

// checkDependencies verifies depends_on references resolve and form no cycle.
func checkDependencies(steps []entity.PipelineStep, res *ValidationResult) {
	ids := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.ID == "" {
			res.Errors = append(res.Errors, "step with empty id")
			res.Valid = false
			continue
		}
		if ids[step.ID] {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate step id %q", step.ID))
			res.Valid = false
		}
		ids[step.ID] = true
	}

	deps := make(map[string][]string, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if !ids[dep] {
				res.Errors = append(res.Errors,
					fmt.Sprintf("step %q depends on unknown step %q", step.ID, dep))
				res.Valid = false
				continue
			}
			deps[step.ID] = append(deps[step.ID], dep)
		}
	}

	// Cycle detection by DFS with colors: 0 unvisited, 1 in progress, 2 done.
	state := make(map[string]int, len(steps))
	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case 1:
			return false
		case 2:
			return true
		}
		state[id] = 1
		for _, dep := range deps[id] {
			if !visit(dep) {
				return false
			}
		}
		state[id] = 2
		return true
	}
	for _, step := range steps {
		if !visit(step.ID) {
			res.Errors = append(res.Errors, "dependency cycle detected between steps")
			res.Valid = false
			return
		}
	}
}

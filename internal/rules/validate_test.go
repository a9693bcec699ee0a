package rules

import (
	"strings"
	"testing"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

func TestValidatePipelineConfig(t *testing.T) {
	columns := []string{"age", "income", "category", "label"}

	valid := entity.PipelineConfig{
		TargetColumn: "label",
		TaskType:     "classification",
		Steps: []entity.PipelineStep{
			{ID: "s1", Type: "imputation", Operation: "median", TargetColumns: []string{"age"}},
			{ID: "s2", Type: "scaling", Operation: "robust", TargetColumns: []string{"age", "income"}},
			{ID: "s3", Type: "encoding", Operation: "onehot", TargetColumns: []string{"category"}},
		},
	}

	tests := []struct {
		name      string
		cfg       entity.PipelineConfig
		wantValid bool
		wantCols  int
		wantErr   string
	}{
		{
			name:      "valid plan",
			cfg:       valid,
			wantValid: true,
			wantCols:  3,
		},
		{
			name: "missing column",
			cfg: entity.PipelineConfig{
				TargetColumn: "label",
				Steps: []entity.PipelineStep{
					{ID: "s1", Type: "imputation", Operation: "mean", TargetColumns: []string{"salary"}},
				},
			},
			wantErr: "missing columns in dataset",
		},
		{
			name: "duplicate assignment within step type",
			cfg: entity.PipelineConfig{
				TargetColumn: "label",
				Steps: []entity.PipelineStep{
					{ID: "s1", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}},
					{ID: "s2", Type: "scaling", Operation: "robust", TargetColumns: []string{"age"}},
				},
			},
			wantErr: `column "age" assigned to multiple scaling steps`,
		},
		{
			name: "unknown operation",
			cfg: entity.PipelineConfig{
				TargetColumn: "label",
				Steps: []entity.PipelineStep{
					{ID: "s1", Type: "scaling", Operation: "zscore", TargetColumns: []string{"age"}},
				},
			},
			wantErr: `unknown scaling operation "zscore"`,
		},
		{
			name: "unknown step type",
			cfg: entity.PipelineConfig{
				TargetColumn: "label",
				Steps: []entity.PipelineStep{
					{ID: "s1", Type: "sampling", Operation: "smote", TargetColumns: []string{"age"}},
				},
			},
			wantErr: `unknown step type "sampling"`,
		},
		{
			name: "unknown target column",
			cfg: entity.PipelineConfig{
				TargetColumn: "outcome",
				Steps: []entity.PipelineStep{
					{ID: "s1", Type: "imputation", Operation: "mean", TargetColumns: []string{"age"}},
				},
			},
			wantErr: `target column "outcome" not found`,
		},
		{
			name:    "empty plan",
			cfg:     entity.PipelineConfig{TargetColumn: "label"},
			wantErr: "pipeline has no steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePipelineConfig(tt.cfg, columns)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", got.Valid, tt.wantValid, got.Errors)
			}
			if tt.wantValid && got.OutputCols != tt.wantCols {
				t.Errorf("OutputCols = %d, want %d", got.OutputCols, tt.wantCols)
			}
			if tt.wantErr != "" {
				found := false
				for _, e := range got.Errors {
					if strings.Contains(e, tt.wantErr) {
						found = true
					}
				}
				if !found {
					t.Errorf("errors %v missing %q", got.Errors, tt.wantErr)
				}
			}
		})
	}
}

func TestSameColumnAcrossStepTypesIsAllowed(t *testing.T) {
	cfg := entity.PipelineConfig{
		TargetColumn: "label",
		Steps: []entity.PipelineStep{
			{ID: "s1", Type: "imputation", Operation: "median", TargetColumns: []string{"age"}},
			{ID: "s2", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}},
		},
	}
	got := ValidatePipelineConfig(cfg, []string{"age", "label"})
	if !got.Valid {
		t.Fatalf("expected valid, got errors: %v", got.Errors)
	}
	if got.OutputCols != 1 {
		t.Errorf("OutputCols = %d, want 1", got.OutputCols)
	}
}

func TestValidatePipelineDependencies(t *testing.T) {
	columns := []string{"age", "label"}

	tests := []struct {
		name    string
		steps   []entity.PipelineStep
		wantErr string
	}{
		{
			name: "valid chain",
			steps: []entity.PipelineStep{
				{ID: "s1", Type: "imputation", Operation: "mean", TargetColumns: []string{"age"}},
				{ID: "s2", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}, DependsOn: []string{"s1"}},
			},
		},
		{
			name: "unknown dependency",
			steps: []entity.PipelineStep{
				{ID: "s1", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}, DependsOn: []string{"ghost"}},
			},
			wantErr: `depends on unknown step "ghost"`,
		},
		{
			name: "cycle",
			steps: []entity.PipelineStep{
				{ID: "s1", Type: "imputation", Operation: "mean", TargetColumns: []string{"age"}, DependsOn: []string{"s2"}},
				{ID: "s2", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}, DependsOn: []string{"s1"}},
			},
			wantErr: "dependency cycle",
		},
		{
			name: "duplicate id",
			steps: []entity.PipelineStep{
				{ID: "s1", Type: "imputation", Operation: "mean", TargetColumns: []string{"age"}},
				{ID: "s1", Type: "scaling", Operation: "standard", TargetColumns: []string{"age"}},
			},
			wantErr: `duplicate step id "s1"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := entity.PipelineConfig{TargetColumn: "label", Steps: tt.steps}
			res := ValidatePipelineConfig(cfg, columns)
			if tt.wantErr == "" {
				if !res.Valid {
					t.Fatalf("unexpected errors: %v", res.Errors)
				}
				return
			}
			if res.Valid {
				t.Fatal("expected invalid result")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention %q", res.Errors, tt.wantErr)
			}
		})
	}
}

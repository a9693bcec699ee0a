package agent

import (
	"context"
	"fmt"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/rules"
)

// A numeric target with at most this many distinct values is treated as a
// class label rather than a continuous quantity.
const maxNumericClassCount = 10

// PipelineBuilderAgent turns an accepted schema plus profiling stats into an
// ordered preprocessing plan.
type PipelineBuilderAgent struct {
	llm *Client
}

var _ domain.PipelineAgent = (*PipelineBuilderAgent)(nil)

// NewPipelineBuilderAgent builds the agent. llm may be nil.
func NewPipelineBuilderAgent(llm *Client) *PipelineBuilderAgent {
	return &PipelineBuilderAgent{llm: llm}
}

// RecommendPipeline assembles per-column imputation, scaling and encoding
// steps. Strategy choices come from the deterministic rules; steps for the
// same column are chained with depends_on so imputation always runs first.
func (a *PipelineBuilderAgent) RecommendPipeline(ctx context.Context, schema []entity.ColumnSchema, profile []entity.ColumnProfile, targetColumn string) (entity.PipelineConfig, error) {
	if len(schema) == 0 {
		return entity.PipelineConfig{}, fmt.Errorf("empty schema")
	}

	target, ok := findColumn(schema, targetColumn)
	if !ok {
		return entity.PipelineConfig{}, fmt.Errorf("target column %q not in schema", targetColumn)
	}
	profiles := profileIndex(profile)

	cfg := entity.PipelineConfig{
		TargetColumn: targetColumn,
		TaskType:     inferTaskType(target, profiles[targetColumn]),
	}

	for _, col := range schema {
		if col.Name == targetColumn {
			continue
		}
		prof := profiles[col.Name]
		colType := rules.ColumnType(col.SuggestedType)

		var lastStep string
		if prof != nil && prof.MissingPct > 0 {
			op := rules.RecommendImputation(prof.MissingPct, colType, prof.OutlierCount > 0)
			id := "impute_" + col.Name
			cfg.Steps = append(cfg.Steps, entity.PipelineStep{
				ID:            id,
				Type:          "imputation",
				Operation:     op,
				TargetColumns: []string{col.Name},
			})
			lastStep = id
		}

		if colType == rules.TypeNumeric {
			op := rules.RecommendScaling(skewnessOf(prof), prof != nil && prof.OutlierCount > 0)
			id := "scale_" + col.Name
			cfg.Steps = append(cfg.Steps, entity.PipelineStep{
				ID:            id,
				Type:          "scaling",
				Operation:     op,
				TargetColumns: []string{col.Name},
				DependsOn:     dependsOn(lastStep),
			})
			lastStep = id
		}

		if colType == rules.TypeCategorical || colType == rules.TypeBoolean || colType == rules.TypeText {
			op := rules.RecommendEncoding(cardinalityOf(prof), targetCorrelationOf(prof))
			cfg.Steps = append(cfg.Steps, entity.PipelineStep{
				ID:            "encode_" + col.Name,
				Type:          "encoding",
				Operation:     op,
				TargetColumns: []string{col.Name},
				DependsOn:     dependsOn(lastStep),
			})
		}
	}

	if len(cfg.Steps) == 0 {
		return entity.PipelineConfig{}, fmt.Errorf("no preprocessing steps applicable")
	}

	// The plan must pass the same checks the validate endpoint runs.
	result := rules.ValidatePipelineConfig(cfg, columnNames(schema))
	if !result.Valid {
		return entity.PipelineConfig{}, fmt.Errorf("generated plan failed validation: %v", result.Errors)
	}
	return cfg, nil
}

// DescribePlan phrases a short human-readable description of a plan for the
// pipeline's description field. Falls back to a counted summary when the LLM
// is unconfigured or errors.
func (a *PipelineBuilderAgent) DescribePlan(ctx context.Context, cfg entity.PipelineConfig) string {
	fallback := fmt.Sprintf("Recommended %s pipeline with %d preprocessing step(s) targeting %q",
		cfg.TaskType, len(cfg.Steps), cfg.TargetColumn)
	if !a.llm.Enabled() {
		return fallback
	}

	prompt := fmt.Sprintf("Describe this preprocessing plan in one sentence for a data scientist. Task: %s, target column: %s, steps:", cfg.TaskType, cfg.TargetColumn)
	for _, s := range cfg.Steps {
		prompt += fmt.Sprintf(" %s %s on %v;", s.Type, s.Operation, s.TargetColumns)
	}
	text, err := a.llm.GenerateText(ctx, prompt)
	if err != nil {
		return fallback
	}
	return text
}

// inferTaskType picks regression only for genuinely continuous targets.
func inferTaskType(target entity.ColumnSchema, prof *entity.ColumnProfile) string {
	if rules.ColumnType(target.SuggestedType) != rules.TypeNumeric {
		return "classification"
	}
	if prof != nil && prof.UniqueCount > 0 && prof.UniqueCount <= maxNumericClassCount {
		return "classification"
	}
	return "regression"
}

func findColumn(schema []entity.ColumnSchema, name string) (entity.ColumnSchema, bool) {
	for _, col := range schema {
		if col.Name == name {
			return col, true
		}
	}
	return entity.ColumnSchema{}, false
}

func profileIndex(profile []entity.ColumnProfile) map[string]*entity.ColumnProfile {
	idx := make(map[string]*entity.ColumnProfile, len(profile))
	for i := range profile {
		idx[profile[i].Name] = &profile[i]
	}
	return idx
}

func columnNames(schema []entity.ColumnSchema) []string {
	names := make([]string, len(schema))
	for i, col := range schema {
		names[i] = col.Name
	}
	return names
}

func dependsOn(step string) []string {
	if step == "" {
		return nil
	}
	return []string{step}
}

func skewnessOf(prof *entity.ColumnProfile) float64 {
	if prof == nil || prof.Skewness == nil {
		return 0
	}
	return *prof.Skewness
}

func cardinalityOf(prof *entity.ColumnProfile) int {
	if prof == nil {
		return 0
	}
	return int(prof.UniqueCount)
}

// targetCorrelationOf returns zero until categorical-target association is
// profiled; without a signal the encoding rule decides on cardinality alone.
func targetCorrelationOf(prof *entity.ColumnProfile) float64 {
	_ = prof
	return 0
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/rules"
	"github.com/h19overflow/PipeWeave/pkg/logger"
)

// SchemaAgentVersion is recorded on every deduction so accepted schemas can
// be traced back to the rule revision that produced them.
const SchemaAgentVersion = "schema-deduction/1.0"

// SchemaDeductionAgent infers column types from sampled values.
type SchemaDeductionAgent struct {
	llm *Client
}

var _ domain.SchemaAgent = (*SchemaDeductionAgent)(nil)

// NewSchemaDeductionAgent builds the agent. llm may be nil.
func NewSchemaDeductionAgent(llm *Client) *SchemaDeductionAgent {
	return &SchemaDeductionAgent{llm: llm}
}

// DeduceSchema proposes a type for every column. The type, confidence and
// datetime format come from the deterministic rules; the LLM, when
// configured, only rewrites the per-column reasoning strings.
func (a *SchemaDeductionAgent) DeduceSchema(ctx context.Context, meta []entity.ColumnMetadata) ([]entity.ColumnSchema, string, error) {
	if len(meta) == 0 {
		return nil, "", fmt.Errorf("no columns to deduce")
	}

	schema := make([]entity.ColumnSchema, 0, len(meta))
	for _, m := range meta {
		colType := rules.DetectColumnType(m.Name, m.SampleValues, m.UniqueRatio)
		parseRate := rules.ParseSuccessRate(colType, m.SampleValues)
		col := entity.ColumnSchema{
			Name:          m.Name,
			SuggestedType: string(colType),
			Confidence:    rules.EstimateConfidence(colType, m.SampleValues, parseRate),
			Reasoning:     fmt.Sprintf("Detected %s based on pattern analysis", colType),
		}
		if colType == rules.TypeDatetime {
			col.DatetimeFormat = rules.SuggestDatetimeFormat(m.SampleValues)
		}
		schema = append(schema, col)
	}

	a.rephraseReasoning(ctx, meta, schema)
	return schema, SchemaAgentVersion, nil
}

// rephraseReasoning replaces the template reasoning with LLM phrasing where
// possible. Failures leave the deterministic text in place.
func (a *SchemaDeductionAgent) rephraseReasoning(ctx context.Context, meta []entity.ColumnMetadata, schema []entity.ColumnSchema) {
	if !a.llm.Enabled() {
		return
	}

	var b strings.Builder
	b.WriteString("For each CSV column below, write one short sentence explaining why the detected type fits the sample values. ")
	b.WriteString("Answer with one line per column in the form 'name: sentence', same order, nothing else.\n\n")
	for i, col := range schema {
		fmt.Fprintf(&b, "%s (detected %s): samples %s\n", col.Name, col.SuggestedType, strings.Join(truncate(meta[i].SampleValues, 5), ", "))
	}

	text, err := a.llm.GenerateText(ctx, b.String())
	if err != nil {
		logger.FromContext(ctx).Warn("schema reasoning phrasing failed, keeping rule output", "error", err)
		return
	}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		name, sentence, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for i := range schema {
			if schema[i].Name == name {
				schema[i].Reasoning = sentence
				break
			}
		}
	}
}

func truncate(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

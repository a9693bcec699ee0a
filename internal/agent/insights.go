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

// EDAInsightsAgent phrases the overall recommendation attached to a
// profiling report. The individual findings are produced by the insight
// rules in the worker; this agent only writes the narrative on top.
type EDAInsightsAgent struct {
	llm *Client
}

var _ domain.InsightAgent = (*EDAInsightsAgent)(nil)

// NewEDAInsightsAgent builds the agent. llm may be nil.
func NewEDAInsightsAgent(llm *Client) *EDAInsightsAgent {
	return &EDAInsightsAgent{llm: llm}
}

// SummarizeInsights returns the report-level summary recommendation. The
// deterministic generator is the source of truth; when the LLM is available
// it may rephrase, but a failure never fails the report.
func (a *EDAInsightsAgent) SummarizeInsights(ctx context.Context, insights []entity.EDAInsight) (string, error) {
	summary := rules.SummarizeInsights(insights)
	if !a.llm.Enabled() || len(insights) == 0 {
		return summary, nil
	}

	var b strings.Builder
	b.WriteString("Rewrite this data quality summary as one or two clear sentences for a data scientist. ")
	b.WriteString("Keep every issue it mentions, add nothing new.\n\nSummary: ")
	b.WriteString(summary)
	b.WriteString("\n\nFindings:\n")
	for _, in := range insights {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", in.Type, in.Severity, in.Message)
	}

	text, err := a.llm.GenerateText(ctx, b.String())
	if err != nil {
		logger.FromContext(ctx).Warn("insight summary phrasing failed, keeping rule output", "error", err)
		return summary, nil
	}
	return text, nil
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/fatih/color"

	"github.com/h19overflow/PipeWeave/internal/cli/types"
)

var (
	// Tree node styles
	datasetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)  // Cyan
	pipelineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // Blue
	modelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))            // Magenta
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // Gray
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true) // Pink

	// Summary line style
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

// RenderResourceTree renders datasets with their pipelines and trained
// models as a tree. Pipelines whose dataset no longer appears are listed
// separately at the end.
func RenderResourceTree(datasets []types.Dataset, pipelines []types.Pipeline, models []types.Model) string {
	if len(datasets) == 0 && len(pipelines) == 0 {
		return keyStyle.Render("No resources found")
	}

	var output string

	attached := make(map[string]bool)
	for _, ds := range datasets {
		attached[ds.ID] = true
	}

	var datasetTrees []*tree.Tree
	for _, ds := range datasets {
		datasetTrees = append(datasetTrees, buildDatasetNode(ds, pipelines, models))
	}

	for i, t := range datasetTrees {
		output += t.String()
		if i < len(datasetTrees)-1 {
			output += "\n"
		}
	}

	orphaned := orphanedPipelines(pipelines, attached)
	if len(orphaned) > 0 {
		if len(datasetTrees) > 0 {
			output += "\n\n"
		}
		output += renderOrphanedPipelineList(orphaned, models)
	}

	return output
}

// buildDatasetNode creates a tree node for a dataset
func buildDatasetNode(ds types.Dataset, pipelines []types.Pipeline, models []types.Model) *tree.Tree {
	shape := ""
	if ds.NumRows != nil && ds.NumColumns != nil {
		shape = keyStyle.Render(fmt.Sprintf(" (%d rows x %d cols)", *ds.NumRows, *ds.NumColumns))
	}

	dsLabel := fmt.Sprintf("%s%s", datasetStyle.Render(ds.Name), shape)
	dsTree := tree.New().Root(dsLabel)

	dsTree.Child(formatKeyValue("Status:", coloredStatus(ds.Status)))
	dsTree.Child(formatKeyValue("Size:", formatBytes(ds.FileSizeBytes)))

	found := false
	for _, p := range pipelines {
		if p.DatasetID != ds.ID {
			continue
		}
		found = true
		dsTree.Child(buildPipelineNode(p, models))
	}
	if !found {
		dsTree.Child(keyStyle.Render("(no pipelines)"))
	}

	return dsTree
}

// buildPipelineNode creates a tree node for a pipeline with its models
func buildPipelineNode(p types.Pipeline, models []types.Model) *tree.Tree {
	pLabel := fmt.Sprintf("%s %s",
		pipelineStyle.Render(p.Name),
		keyStyle.Render(fmt.Sprintf("v%d", p.Version)),
	)
	pTree := tree.New().Root(pLabel)
	pTree.Child(formatKeyValue("Status:", coloredStatus(p.Status)))

	for _, m := range models {
		if m.PipelineID != p.ID {
			continue
		}
		pTree.Child(buildModelNode(m))
	}

	return pTree
}

// buildModelNode creates a tree node for a trained model
func buildModelNode(m types.Model) *tree.Tree {
	prod := ""
	if m.IsProduction {
		prod = " " + highlightStyle.Render("[production]")
	}

	mLabel := modelStyle.Render(m.Name) + prod
	mTree := tree.New().Root(mLabel)
	mTree.Child(formatKeyValue("Type:", m.ModelType))

	// Show the headline metric only, the full set is in `pwctl list -o json`
	// territory the API covers.
	if v, ok := m.Metrics["accuracy"]; ok {
		mTree.Child(formatKeyValue("Accuracy:", fmt.Sprintf("%.4f", v)))
	} else if v, ok := m.Metrics["r2"]; ok {
		mTree.Child(formatKeyValue("R2:", fmt.Sprintf("%.4f", v)))
	}

	return mTree
}

// formatKeyValue formats a key-value pair
func formatKeyValue(key, value string) string {
	return fmt.Sprintf("%s %s",
		keyStyle.Render(key),
		value,
	)
}

// coloredStatus returns a colored status string
func coloredStatus(status string) string {
	switch status {
	case "validated", "completed", "active":
		return color.GreenString(status)
	case "uploading", "uploaded", "validating", "draft", "queued", "running":
		return color.YellowString(status)
	case "failed", "cancelled", "archived":
		return color.RedString(status)
	default:
		return status
	}
}

// formatBytes renders a byte count in human units
func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// orphanedPipelines returns pipelines whose dataset is not in the listing
func orphanedPipelines(pipelines []types.Pipeline, attached map[string]bool) []types.Pipeline {
	var orphaned []types.Pipeline
	for _, p := range pipelines {
		if !attached[p.DatasetID] {
			orphaned = append(orphaned, p)
		}
	}
	return orphaned
}

// renderOrphanedPipelineList renders pipelines whose dataset is gone
func renderOrphanedPipelineList(pipelines []types.Pipeline, models []types.Model) string {
	output := keyStyle.Render("Pipelines without a dataset:") + "\n"
	root := tree.New()
	for _, p := range pipelines {
		root.Child(buildPipelineNode(p, models))
	}
	return output + root.String()
}

// RenderResourceSummary renders the counts line below the tree
func RenderResourceSummary(datasetCount, pipelineCount, modelCount int) string {
	return summaryStyle.Render(fmt.Sprintf(
		"%d dataset(s), %d pipeline(s), %d model(s)",
		datasetCount, pipelineCount, modelCount,
	))
}

package converter

import (
	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
)

// MergeHiddenEdges copies the data edges of previous into converted when both endpoints still
// exist. A data edge whose target input has since disappeared from the action is kept.
func (c *Converter) MergeHiddenEdges(converted, previous *models.Workflow) *models.Workflow {
	if converted == nil || previous == nil {
		return converted
	}

	seen := make(map[string]bool, len(converted.Edges))
	for _, edge := range converted.Edges {
		seen[edge.ID] = true
	}

	for _, edge := range previous.Edges {
		if !flow.IsDataEdge(edge) || seen[edge.ID] {
			continue
		}

		if converted.Node(edge.SourceNode) == nil || converted.Node(edge.TargetNode) == nil {
			c.logger.Warn("Dropping data edge to removed node",
				"edge_id", edge.ID,
				"source_node", edge.SourceNode,
				"target_node", edge.TargetNode,
			)

			continue
		}

		e := *edge
		seen[e.ID] = true
		converted.Edges = append(converted.Edges, &e)
	}

	return converted
}

// Save converts the canvas and restores the data edges and identity of the previous document.
func (c *Converter) Save(graph *models.CanvasGraph, previous *models.Workflow) *models.Workflow {
	converted := c.CanvasToCanonical(graph)

	if previous != nil {
		converted.ID = previous.ID
		converted.Name = previous.Name
		converted.Description = previous.Description
	}

	return c.MergeHiddenEdges(converted, previous)
}

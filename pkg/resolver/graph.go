package resolver

import (
	"slices"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
)

// DirectPredecessors returns the ids of nodes with a control edge into nodeID, sorted.
func DirectPredecessors(workflow *models.Workflow, nodeID string) []string {
	if workflow == nil {
		return nil
	}

	var ids []string

	for _, edge := range workflow.Edges {
		if edge.TargetNode != nodeID || !flow.IsControlEdge(edge) {
			continue
		}

		if edge.SourceNode == nodeID || workflow.Node(edge.SourceNode) == nil || slices.Contains(ids, edge.SourceNode) {
			continue
		}

		ids = append(ids, edge.SourceNode)
	}

	slices.Sort(ids)

	return ids
}

// AncestorIDs returns every node that reaches nodeID over control edges, nearest first. The focal
// node is never included, even when a cycle leads back to it.
func AncestorIDs(workflow *models.Workflow, nodeID string) []string {
	if workflow == nil {
		return nil
	}

	predecessors := make(map[string][]string)

	for _, edge := range workflow.Edges {
		if flow.IsControlEdge(edge) {
			predecessors[edge.TargetNode] = append(predecessors[edge.TargetNode], edge.SourceNode)
		}
	}

	visited := map[string]bool{nodeID: true}
	queue := []string{nodeID}

	var ancestors []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		sources := slices.Clone(predecessors[current])
		slices.Sort(sources)

		for _, source := range sources {
			if visited[source] || workflow.Node(source) == nil {
				continue
			}

			visited[source] = true
			ancestors = append(ancestors, source)
			queue = append(queue, source)
		}
	}

	return ancestors
}

// TerminalNodeIDs returns the nodes that are not the source of any control edge, sorted.
func TerminalNodeIDs(workflow *models.Workflow) []string {
	if workflow == nil {
		return nil
	}

	sources := make(map[string]bool)

	for _, edge := range workflow.Edges {
		if flow.IsControlEdge(edge) {
			sources[edge.SourceNode] = true
		}
	}

	var ids []string

	for _, id := range workflow.NodeIDs() {
		if !sources[id] {
			ids = append(ids, id)
		}
	}

	return ids
}

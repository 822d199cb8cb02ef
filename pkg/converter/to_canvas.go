package converter

import (
	"maps"
	"slices"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
)

// CanonicalToCanvas builds the canvas graph for a document. Nodes are numbered from 1 in node id
// order. Only control edges become connections, and both ends of a connection are recorded.
func (c *Converter) CanonicalToCanvas(workflow *models.Workflow) (*models.CanvasGraph, *IDMap) {
	graph := models.NewCanvasGraph()
	ids := newIDMap()

	if workflow == nil {
		return graph, ids
	}

	nextID := 1

	for _, id := range workflow.NodeIDs() {
		node := workflow.Nodes[id]
		if node == nil {
			continue
		}

		action, ok := c.action(node.ActionID)
		if !ok {
			c.logger.Warn("Skipping node without action definition",
				"workflow_id", workflow.ID,
				"node_id", id,
				"action_id", node.ActionID,
			)

			continue
		}

		canvasID := nextID
		nextID++

		ids.add(id, canvasID)
		graph.Nodes[canvasID] = newCanvasNode(canvasID, node, action)
	}

	for _, edge := range workflow.Edges {
		if !flow.IsControlEdge(edge) {
			continue
		}

		c.connect(graph, ids, edge)
	}

	return graph, ids
}

func newCanvasNode(canvasID int, node *models.Node, action *models.ActionDefinition) *models.CanvasNode {
	cn := &models.CanvasNode{
		ID:   canvasID,
		Name: action.ID,
		Data: models.CanvasNodeData{
			CustomID: node.ID,
			ActionID: node.ActionID,
			Values:   maps.Clone(node.Data),
		},
		Inputs: map[string]*models.CanvasPort{
			models.MakePortName(models.PortDirectionInput, 1): {Connections: []models.CanvasConnection{}},
		},
		Outputs: make(map[string]*models.CanvasPort),
		PosX:    node.Position.X,
		PosY:    node.Position.Y,
	}

	for i := 1; i <= flow.OutputPortCount(action); i++ {
		cn.Outputs[models.MakePortName(models.PortDirectionOutput, i)] = &models.CanvasPort{
			Connections: []models.CanvasConnection{},
		}
	}

	return cn
}

func (c *Converter) connect(graph *models.CanvasGraph, ids *IDMap, edge *models.Edge) {
	sourceID, ok := ids.CanvasID(edge.SourceNode)
	if !ok {
		return
	}

	targetID, ok := ids.CanvasID(edge.TargetNode)
	if !ok {
		return
	}

	source := graph.Nodes[sourceID]
	target := graph.Nodes[targetID]

	action, _ := c.action(source.ActionID())

	index, ok := flow.OutputIndex(action, edge.SourceOutput)
	if !ok {
		c.logger.Warn("Dropping control edge from unknown output",
			"edge_id", edge.ID,
			"node_id", edge.SourceNode,
			"output", edge.SourceOutput,
		)

		return
	}

	outputPort := models.MakePortName(models.PortDirectionOutput, index)
	inputPort := models.MakePortName(models.PortDirectionInput, 1)

	out := source.Outputs[outputPort]
	in := target.Inputs[inputPort]

	forward := models.CanvasConnection{Node: canvasKey(targetID), Port: inputPort}
	backward := models.CanvasConnection{Node: canvasKey(sourceID), Port: outputPort}

	if slices.Contains(out.Connections, forward) {
		return
	}

	out.Connections = append(out.Connections, forward)
	in.Connections = append(in.Connections, backward)
}

package converter

import (
	"maps"
	"slices"
	"strconv"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
)

// CanvasToCanonical converts an exported canvas graph into a document holding nodes and control
// edges. The caller supplies the document identity; data edges are restored separately with
// MergeHiddenEdges.
func (c *Converter) CanvasToCanonical(graph *models.CanvasGraph) *models.Workflow {
	workflow := &models.Workflow{
		Nodes: make(map[string]*models.Node),
		Edges: make([]*models.Edge, 0),
	}

	if graph == nil {
		return workflow
	}

	ids := c.assignCanonicalIDs(graph)
	canvasIDs := slices.Sorted(maps.Keys(graph.Nodes))

	for _, canvasID := range canvasIDs {
		id, ok := ids.CanonicalID(canvasID)
		if !ok {
			continue
		}

		cn := graph.Nodes[canvasID]

		data := maps.Clone(cn.Data.Values)
		if data == nil {
			data = make(map[string]any)
		}

		workflow.Nodes[id] = &models.Node{
			ID:       id,
			ActionID: cn.ActionID(),
			Position: models.Position{X: cn.PosX, Y: cn.PosY},
			Data:     data,
		}
	}

	seen := make(map[string]bool)

	for _, canvasID := range canvasIDs {
		sourceID, ok := ids.CanonicalID(canvasID)
		if !ok {
			continue
		}

		for _, edge := range c.nodeEdges(graph.Nodes[canvasID], sourceID, ids) {
			if seen[edge.ID] {
				continue
			}

			seen[edge.ID] = true
			workflow.Edges = append(workflow.Edges, edge)
		}
	}

	return workflow
}

// assignCanonicalIDs maps every canvas node with a known action to its canonical id. Stored
// custom ids are reserved first so loaded nodes keep their identity; the remaining nodes get
// their canvas id as a string, suffixed when that string is already taken.
func (c *Converter) assignCanonicalIDs(graph *models.CanvasGraph) *IDMap {
	ids := newIDMap()

	var pending []int

	for _, canvasID := range slices.Sorted(maps.Keys(graph.Nodes)) {
		cn := graph.Nodes[canvasID]
		if cn == nil {
			continue
		}

		if _, ok := c.action(cn.ActionID()); !ok {
			c.logger.Warn("Skipping canvas node without action definition",
				"canvas_id", canvasID,
				"action_id", cn.ActionID(),
			)

			continue
		}

		id := cn.Data.CustomID
		if id == "" {
			pending = append(pending, canvasID)

			continue
		}

		if _, taken := ids.CanvasID(id); taken {
			c.logger.Warn("Duplicate node id on canvas, assigning a new id", "node_id", id, "canvas_id", canvasID)
			pending = append(pending, canvasID)

			continue
		}

		ids.add(id, canvasID)
	}

	for _, canvasID := range pending {
		base := canvasKey(canvasID)
		id := base

		for n := 2; ; n++ {
			if _, taken := ids.CanvasID(id); !taken {
				break
			}

			id = base + "_" + strconv.Itoa(n)
		}

		ids.add(id, canvasID)
	}

	return ids
}

func (c *Converter) nodeEdges(cn *models.CanvasNode, sourceID string, ids *IDMap) []*models.Edge {
	action, _ := c.action(cn.ActionID())

	var edges []*models.Edge

	for _, portName := range slices.Sorted(maps.Keys(cn.Outputs)) {
		direction, index, ok := models.ParsePortName(portName)
		if !ok || direction != models.PortDirectionOutput {
			c.logger.Warn("Ignoring unrecognised output port", "node_id", sourceID, "port", portName)

			continue
		}

		output, ok := flow.OutputName(action, index)
		if !ok {
			c.logger.Warn("Output port has no matching flow output", "node_id", sourceID, "port", portName)

			continue
		}

		port := cn.Outputs[portName]
		if port == nil {
			continue
		}

		for _, conn := range port.Connections {
			targetCanvasID, err := strconv.Atoi(conn.Node)
			if err != nil {
				c.logger.Warn("Ignoring connection with invalid node id", "node_id", sourceID, "target", conn.Node)

				continue
			}

			targetID, ok := ids.CanonicalID(targetCanvasID)
			if !ok {
				c.logger.Warn("Dropping connection to unknown node", "node_id", sourceID, "target_canvas_id", targetCanvasID)

				continue
			}

			targetIndex := 1
			if _, idx, ok := models.ParsePortName(conn.Port); ok {
				targetIndex = idx
			}

			edges = append(edges, &models.Edge{
				ID:           controlEdgeID(sourceID, index, targetID, targetIndex),
				SourceNode:   sourceID,
				SourceOutput: output,
				TargetNode:   targetID,
				TargetInput:  flow.ControlInput,
			})
		}
	}

	return edges
}

// controlEdgeID derives a stable edge id from the endpoints and port indices.
func controlEdgeID(sourceID string, outputIndex int, targetID string, inputIndex int) string {
	return document.StableID("control", sourceID, strconv.Itoa(outputIndex), targetID, strconv.Itoa(inputIndex))
}

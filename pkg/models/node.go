package models

// CanvasGraph is the canvas widget's export format: integer-keyed nodes whose ports carry their
// own connection lists. It is rebuilt from the canonical document on load and discarded after save.
type CanvasGraph struct {
	Nodes map[int]*CanvasNode `json:"nodes"`
}

// NewCanvasGraph returns an empty canvas graph.
func NewCanvasGraph() *CanvasGraph {
	return &CanvasGraph{Nodes: make(map[int]*CanvasNode)}
}

// CanvasNode is a node as the canvas widget sees it.
type CanvasNode struct {
	ID      int                    `json:"id"`
	Name    string                 `json:"name"`
	Data    CanvasNodeData         `json:"data"`
	Inputs  map[string]*CanvasPort `json:"inputs"`
	Outputs map[string]*CanvasPort `json:"outputs"`
	PosX    float64                `json:"pos_x"`
	PosY    float64                `json:"pos_y"`
}

// CanvasNodeData is the opaque metadata the canvas carries for us across round-trips.
type CanvasNodeData struct {
	CustomID string         `json:"custom_id,omitempty"`
	ActionID string         `json:"action_id,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
}

// CanvasPort holds the connections attached to one port.
type CanvasPort struct {
	Connections []CanvasConnection `json:"connections"`
}

// CanvasConnection points at the port on the other end of a connection. On an output port Port
// names the target's input port; on an input port it names the source's output port.
type CanvasConnection struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// ActionID returns the action the canvas node was created for.
func (n *CanvasNode) ActionID() string {
	if n.Data.ActionID != "" {
		return n.Data.ActionID
	}

	return n.Name
}

// Node returns the canvas node with the given id, or nil.
func (g *CanvasGraph) Node(id int) *CanvasNode {
	if g == nil || g.Nodes == nil {
		return nil
	}

	return g.Nodes[id]
}

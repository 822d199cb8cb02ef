// Package document normalises stored workflow documents into the canonical shape. Documents may
// be stored directly, nested under a "data" object, or JSON-encoded as a string under "data";
// every read boundary goes through Normalize and every write uses Encode, which always produces
// the direct shape.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/botflow/pkg/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// maxEnvelopeDepth bounds how many "data" wrappers are unwrapped.
const maxEnvelopeDepth = 3

var (
	// ErrInvalidDocument is returned when stored bytes are not a JSON object.
	ErrInvalidDocument = errors.New("invalid workflow document")

	// ErrUnsupportedShape is returned when a value is neither a document nor a known wrapper.
	ErrUnsupportedShape = errors.New("unsupported workflow document shape")
)

// Normalizer converts stored documents to the canonical shape, dropping structural anomalies.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer that reports dropped nodes and edges to logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Normalizer{logger: logger.With("component", "document")}
}

// storedWorkflow mirrors models.Workflow but defers decoding of nodes, which older documents
// store as an array rather than a map.
type storedWorkflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       []*models.Edge  `json:"edges"`
}

// Normalize accepts a *models.Workflow, raw JSON bytes, a JSON string or a decoded map and returns
// a canonical document.
func (n *Normalizer) Normalize(raw any) (*models.Workflow, error) {
	switch value := raw.(type) {
	case nil:
		return nil, ErrUnsupportedShape
	case *models.Workflow:
		if value == nil {
			return nil, ErrUnsupportedShape
		}

		return n.Sanitize(value.Clone()), nil
	case models.Workflow:
		return n.Sanitize(value.Clone()), nil
	case []byte:
		return n.decode(value, 0)
	case json.RawMessage:
		return n.decode(value, 0)
	case string:
		return n.decode([]byte(value), 0)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedShape, err)
		}

		return n.decode(encoded, 0)
	}
}

func (n *Normalizer) decode(raw []byte, depth int) (*models.Workflow, error) {
	if depth > maxEnvelopeDepth {
		return nil, fmt.Errorf("%w: too many nested data envelopes", ErrUnsupportedShape)
	}

	raw = bytes.TrimSpace(raw)

	var envelope map[string]json.RawMessage

	err := json.Unmarshal(raw, &envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	data, wrapped := envelope["data"]
	_, hasNodes := envelope["nodes"]

	if !wrapped || hasNodes {
		return n.decodeDirect(raw)
	}

	data = bytes.TrimSpace(data)

	workflow, err := n.unwrap(data, depth)
	if err != nil {
		return nil, err
	}

	if workflow.ID == "" {
		var outerID string
		if rawID, ok := envelope["id"]; ok && json.Unmarshal(rawID, &outerID) == nil {
			workflow.ID = outerID
		}
	}

	return workflow, nil
}

func (n *Normalizer) unwrap(data []byte, depth int) (*models.Workflow, error) {
	switch {
	case len(data) > 0 && data[0] == '"':
		var encoded string

		err := json.Unmarshal(data, &encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		return n.decode([]byte(encoded), depth+1)
	case len(data) > 0 && data[0] == '{':
		return n.decode(data, depth+1)
	default:
		return nil, fmt.Errorf("%w: data envelope holds neither an object nor a string", ErrUnsupportedShape)
	}
}

func (n *Normalizer) decodeDirect(raw []byte) (*models.Workflow, error) {
	var stored storedWorkflow

	err := json.Unmarshal(raw, &stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	workflow := &models.Workflow{
		ID:          stored.ID,
		Name:        stored.Name,
		Description: stored.Description,
		Nodes:       make(map[string]*models.Node),
		Edges:       stored.Edges,
	}

	nodes := bytes.TrimSpace(stored.Nodes)

	switch {
	case len(nodes) == 0, bytes.Equal(nodes, []byte("null")):
	case nodes[0] == '[':
		var list []*models.Node

		err := json.Unmarshal(nodes, &list)
		if err != nil {
			return nil, fmt.Errorf("%w: nodes: %w", ErrInvalidDocument, err)
		}

		for _, node := range list {
			if node == nil || node.ID == "" {
				n.logger.Warn("Dropping stored node without id", "workflow_id", stored.ID)

				continue
			}

			workflow.Nodes[node.ID] = node
		}
	default:
		err := json.Unmarshal(nodes, &workflow.Nodes)
		if err != nil {
			return nil, fmt.Errorf("%w: nodes: %w", ErrInvalidDocument, err)
		}
	}

	return n.Sanitize(workflow), nil
}

// Sanitize repairs a decoded document in place: node ids follow their map keys, id-less edges get
// a deterministic id, and dangling or duplicate edges are dropped with a warning. Data edges whose
// target input no longer exists on the action are kept.
func (n *Normalizer) Sanitize(workflow *models.Workflow) *models.Workflow {
	if workflow.Nodes == nil {
		workflow.Nodes = make(map[string]*models.Node)
	}

	for key, node := range workflow.Nodes {
		if node == nil {
			n.logger.Warn("Dropping empty node", "workflow_id", workflow.ID, "node_id", key)
			delete(workflow.Nodes, key)

			continue
		}

		if node.ID != key {
			if node.ID != "" {
				n.logger.Warn("Node id does not match its key", "workflow_id", workflow.ID, "node_id", node.ID, "key", key)
			}

			node.ID = key
		}

		if node.Data == nil {
			node.Data = make(map[string]any)
		}
	}

	edges := make([]*models.Edge, 0, len(workflow.Edges))
	seen := make(map[string]bool, len(workflow.Edges))

	for _, edge := range workflow.Edges {
		if edge == nil {
			continue
		}

		if workflow.Nodes[edge.SourceNode] == nil || workflow.Nodes[edge.TargetNode] == nil {
			n.logger.Warn("Dropping dangling edge",
				"workflow_id", workflow.ID,
				"edge_id", edge.ID,
				"source_node", edge.SourceNode,
				"target_node", edge.TargetNode,
			)

			continue
		}

		if edge.ID == "" {
			edge.ID = EdgeID(edge)
		}

		if seen[edge.ID] {
			n.logger.Warn("Dropping duplicate edge", "workflow_id", workflow.ID, "edge_id", edge.ID)

			continue
		}

		seen[edge.ID] = true
		edges = append(edges, edge)
	}

	workflow.Edges = edges

	return workflow
}

var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("botflow:edge"))

// EdgeID derives a stable id from an edge's endpoints and source path.
func EdgeID(edge *models.Edge) string {
	return StableID(edge.SourceNode, edge.SourceOutput, edge.SourcePath, edge.TargetNode, edge.TargetInput)
}

// StableID derives an edge id from parts. Parts are joined with a NUL byte so no node id or
// port name can make two different part lists collide.
func StableID(parts ...string) string {
	return "e_" + uuid.NewSHA1(edgeNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// Encode writes the document in the direct, unwrapped shape.
func Encode(workflow *models.Workflow) ([]byte, error) {
	if workflow == nil {
		return nil, ErrUnsupportedShape
	}

	raw, err := json.Marshal(workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow %s: %w", workflow.ID, err)
	}

	return raw, nil
}

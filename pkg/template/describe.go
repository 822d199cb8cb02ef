package template

// Description is a display-oriented view of one reference expression found inside a value.
type Description struct {
	Expression string        `json:"expression"`
	Kind       Kind          `json:"kind"`
	Node       NodeReference `json:"node,omitzero"`
	Variable   string        `json:"variable,omitempty"`
	Field      string        `json:"field,omitempty"`
}

// Describe scans a string for every embedded {{ ... }} expression, including ones surrounded by
// other text. Expressions that are neither node nor runtime references are reported as literals
// so callers can still highlight them.
func Describe(value string) []Description {
	matches := embeddedPattern.FindAllString(value, -1)
	if len(matches) == 0 {
		return nil
	}

	descriptions := make([]Description, 0, len(matches))

	for _, expr := range matches {
		d := Description{Expression: expr, Kind: KindLiteral}

		if ref, ok := ParseNodeReference(expr); ok {
			d.Kind = KindNodeReference
			d.Node = ref
		} else if path, ok := ParseRuntimeVariable(expr); ok {
			d.Kind = KindRuntimeVariable
			d.Variable = path
		} else if field, ok := parseRuntimeField(expr); ok {
			d.Kind = KindRuntimeField
			d.Field = field
		}

		descriptions = append(descriptions, d)
	}

	return descriptions
}

// ReferencedNodes returns the ids of every node referenced anywhere in the value, in order of
// first appearance.
func ReferencedNodes(value string) []string {
	var ids []string

	seen := make(map[string]bool)

	for _, d := range Describe(value) {
		if d.Kind != KindNodeReference || seen[d.Node.NodeID] {
			continue
		}

		seen[d.Node.NodeID] = true
		ids = append(ids, d.Node.NodeID)
	}

	return ids
}

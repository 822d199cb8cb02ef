// Package template parses and builds the {{ ... }} reference expressions stored as node input
// values: references into upstream node outputs and references to runtime variables.
package template

import (
	"regexp"
	"strings"
)

// Kind classifies a stored input value.
type Kind string

const (
	KindLiteral         Kind = "literal"
	KindNodeReference   Kind = "node_reference"
	KindRuntimeVariable Kind = "runtime_variable"
	KindRuntimeField    Kind = "runtime_field"
)

var (
	nodeReferencePattern   = regexp.MustCompile(`^\{\{\s*nodes\.([A-Za-z0-9_-]+)\.([A-Za-z0-9_-]+)((?:\.[A-Za-z0-9_-]+|\[\d+\])*)\s*\}\}$`)
	runtimeVariablePattern = regexp.MustCompile(`^\{\{\s*runtime\.variables\.([^\s{}]+)\s*\}\}$`)
	runtimeFieldPattern    = regexp.MustCompile(`^\{\{\s*runtime\.([a-z_]+)\s*\}\}$`)
	embeddedPattern        = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)
	invalidSegmentChars    = regexp.MustCompile(`[^A-Za-z0-9_]+`)
	repeatedUnderscores    = regexp.MustCompile(`_{2,}`)
)

// NodeReference is a parsed {{ nodes.<id>.<output>[.<path>] }} expression.
type NodeReference struct {
	NodeID string `json:"node_id"`
	Output string `json:"output"`
	Path   string `json:"path,omitempty"`
}

// IsZero reports whether the reference is the empty sentinel.
func (r NodeReference) IsZero() bool {
	return r.NodeID == "" && r.Output == ""
}

// String renders the reference as a template expression.
func (r NodeReference) String() string {
	return BuildNodeReference(r.NodeID, r.Output, r.Path)
}

// ParseNodeReference parses a whole input value as a node reference. Partial matches inside
// longer strings are rejected; use Describe for display purposes. Unparseable text yields the
// zero reference and false.
func ParseNodeReference(value string) (NodeReference, bool) {
	m := nodeReferencePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return NodeReference{}, false
	}

	return NodeReference{NodeID: m[1], Output: m[2], Path: m[3]}, true
}

// BuildNodeReference builds {{ nodes.<id>.<output><path> }}. The sub-path is normalised to
// start with "." unless it starts with "[".
func BuildNodeReference(nodeID, output, path string) string {
	return "{{ nodes." + nodeID + "." + output + NormalizeSubPath(path) + " }}"
}

// NormalizeSubPath prefixes a non-empty sub-path with "." unless it is an index access.
func NormalizeSubPath(path string) string {
	path = strings.TrimSpace(path)

	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "["), strings.HasPrefix(path, "."):
		return path
	default:
		return "." + path
	}
}

// NormalizeVariablePath sanitises every dotted segment of a runtime variable path: runs of
// characters outside [A-Za-z0-9_] become a single "_", repeated underscores collapse and empty
// segments are dropped. The function is idempotent.
func NormalizeVariablePath(path string) string {
	segments := strings.Split(strings.TrimSpace(path), ".")
	clean := make([]string, 0, len(segments))

	for _, segment := range segments {
		segment = sanitizeSegment(segment)
		if segment != "" {
			clean = append(clean, segment)
		}
	}

	return strings.Join(clean, ".")
}

// SanitizeIdentifier applies the variable segment sanitisation to a single identifier.
func SanitizeIdentifier(s string) string {
	return sanitizeSegment(s)
}

func sanitizeSegment(segment string) string {
	segment = invalidSegmentChars.ReplaceAllString(segment, "_")

	return repeatedUnderscores.ReplaceAllString(segment, "_")
}

// BuildRuntimeVariable builds {{ runtime.variables.<path> }}. An empty path yields "".
func BuildRuntimeVariable(path string) string {
	path = NormalizeVariablePath(path)
	if path == "" {
		return ""
	}

	return "{{ runtime.variables." + path + " }}"
}

// ParseRuntimeVariable extracts the normalised variable path from a whole input value.
func ParseRuntimeVariable(value string) (string, bool) {
	m := runtimeVariablePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}

	path := NormalizeVariablePath(m[1])

	return path, path != ""
}

// Classify reports how a stored input value should be interpreted.
func Classify(value any) Kind {
	s, ok := value.(string)
	if !ok {
		return KindLiteral
	}

	if _, ok := ParseNodeReference(s); ok {
		return KindNodeReference
	}

	if _, ok := ParseRuntimeVariable(s); ok {
		return KindRuntimeVariable
	}

	if _, ok := parseRuntimeField(s); ok {
		return KindRuntimeField
	}

	return KindLiteral
}

// IsReference reports whether the value is a single reference expression of any family.
func IsReference(value any) bool {
	return Classify(value) != KindLiteral
}

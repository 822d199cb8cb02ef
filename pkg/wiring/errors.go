package wiring

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Session errors.
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrActionNotFound = errors.New("action definition not found")
	ErrUnknownInput   = errors.New("unknown input")
	ErrInvalidMode    = errors.New("invalid value-source mode")
	ErrNoWire         = errors.New("input has no wire")
	ErrNotAncestor    = errors.New("wire source is not an upstream node")

	// ErrInvalidInput is the sentinel wrapped by every InputError.
	ErrInvalidInput = errors.New("invalid input")
)

// InputError is a user-input error that blocks an edit. Nothing is applied when it is returned.
type InputError struct {
	Op      string            // Operation name
	NodeID  string            // Node being edited
	Fields  map[string]string // Per-input messages
	Message string            // Human-readable summary
	Err     error             // Underlying error
}

func (e *InputError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
			parts = append(parts, name+": "+e.Fields[name])
		}

		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}

	return fmt.Sprintf("%s: node %s: %s", e.Op, e.NodeID, msg)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidInput and the wrapped error.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput || errors.Is(e.Err, target)
}

// IsInputError reports whether err blocks an edit because of user input.
func IsInputError(err error) bool {
	var inputErr *InputError

	return errors.As(err, &inputErr)
}

func newInputError(op, nodeID, message string, fields map[string]string, err error) *InputError {
	return &InputError{
		Op:      op,
		NodeID:  nodeID,
		Fields:  fields,
		Message: message,
		Err:     err,
	}
}

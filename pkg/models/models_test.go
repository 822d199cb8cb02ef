package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     string
		direction PortDirection
		index     int
		ok        bool
	}{
		{name: "first output", input: "output_1", direction: PortDirectionOutput, index: 1, ok: true},
		{name: "input", input: "input_3", direction: PortDirectionInput, index: 3, ok: true},
		{name: "zero index", input: "output_0", ok: false},
		{name: "no index", input: "output_", ok: false},
		{name: "unknown direction", input: "side_1", ok: false},
		{name: "no separator", input: "output1", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			direction, index, ok := ParsePortName(tc.input)
			assert.Equal(t, tc.ok, ok)

			if tc.ok {
				assert.Equal(t, tc.direction, direction)
				assert.Equal(t, tc.index, index)
			}
		})
	}
}

func TestMakePortName_RoundTrip(t *testing.T) {
	t.Parallel()

	name := MakePortName(PortDirectionOutput, 4)
	assert.Equal(t, "output_4", name)

	direction, index, ok := ParsePortName(name)
	require.True(t, ok)
	assert.Equal(t, PortDirectionOutput, direction)
	assert.Equal(t, 4, index)
}

func TestActionDefinition_DataOutputs(t *testing.T) {
	t.Parallel()

	modular := &ActionDefinition{
		ID:   "condition",
		Name: "Condition",
		Outputs: []ActionOutput{
			{Name: "true", Type: OutputTypeFlow},
			{Name: "value", Type: "string"},
			{Name: "false", Type: OutputTypeFlow},
			{Name: "count", Type: "number"},
		},
	}

	outputs := modular.DataOutputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, "value", outputs[0].Name)
	assert.Equal(t, "count", outputs[1].Name)

	local := &ActionDefinition{
		ID:         "script",
		Name:       "Script",
		Kind:       ActionKindLocal,
		Parameters: []ActionInput{{Name: "code", Type: "string"}},
	}

	outputs = local.DataOutputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, LocalResultOutput, outputs[0].Name)

	in, ok := local.Input("code")
	assert.True(t, ok)
	assert.Equal(t, "string", in.Type)
}

func TestWorkflow_Clone(t *testing.T) {
	t.Parallel()

	original := NewWorkflow("wf-1", "Original")
	original.Nodes["a"] = &Node{ID: "a", ActionID: "log", Data: map[string]any{"message": "hi"}}
	original.Edges = append(original.Edges, &Edge{ID: "e1", SourceNode: "a", SourceOutput: "next", TargetNode: "b", TargetInput: "flow_in"})

	clone := original.Clone()
	clone.Nodes["a"].Data["message"] = "changed"
	clone.Edges[0].TargetNode = "c"
	clone.Nodes["b"] = &Node{ID: "b", ActionID: "log"}

	assert.Equal(t, "hi", original.Nodes["a"].Data["message"])
	assert.Equal(t, "b", original.Edges[0].TargetNode)
	assert.Len(t, original.Nodes, 1)
	assert.Equal(t, []string{"a", "b"}, clone.NodeIDs())
}

func TestWorkflow_Validation(t *testing.T) {
	t.Parallel()

	validate := validator.New(validator.WithRequiredStructEnabled())

	valid := NewWorkflow("wf-1", "Valid")
	valid.Nodes["a"] = &Node{ID: "a", ActionID: "log"}
	require.NoError(t, validate.Struct(valid))

	invalid := NewWorkflow("wf-2", "Invalid")
	invalid.Edges = append(invalid.Edges, &Edge{ID: "e1", SourceNode: "a"})
	assert.Error(t, validate.Struct(invalid))
}

func TestInputSchema(t *testing.T) {
	t.Parallel()

	action := &ActionDefinition{
		ID:   "send_message",
		Name: "Send message",
		Inputs: []ActionInput{
			{Name: "chat_id", Type: "string", Required: true},
			{Name: "text", Type: "text", Required: true},
			{Name: "mode", Type: "string", Enum: []any{"plain", "markdown"}},
			{Name: "custom", Type: "widget"},
		},
	}

	schema := InputSchema(action, func(name string) bool { return name == "chat_id" })

	assert.NotContains(t, schema.Properties, "chat_id")
	assert.Equal(t, []string{"text"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["text"].Type)
	assert.Equal(t, []any{"plain", "markdown"}, schema.Properties["mode"].Enum)
	assert.Empty(t, schema.Properties["custom"].Type)
}

func TestSchemaType_CaseInsensitive(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		inputType string
		expected  string
	}{
		{inputType: "number", expected: "number"},
		{inputType: "Number", expected: "number"},
		{inputType: "INTEGER", expected: "integer"},
		{inputType: " Boolean ", expected: "boolean"},
		{inputType: "Widget", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.inputType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SchemaType(tc.inputType))
		})
	}

	action := &ActionDefinition{
		ID:     "fetch",
		Inputs: []ActionInput{{Name: "limit", Type: "Number", Required: true}},
	}
	schema := InputSchema(action, nil)
	assert.Equal(t, "number", schema.Properties["limit"].Type)
}

package wiring

import (
	"context"
	"testing"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() testutil.Catalog {
	return testutil.NewCatalog(
		testutil.CreateTestAction("trigger",
			testutil.WithOutputs(testutil.FlowOutput("next"), testutil.DataOutput("chat_id", "string"))),
		testutil.CreateTestAction("fetch",
			testutil.WithOutputs(testutil.FlowOutput("next"), testutil.DataOutput("count", "number"), testutil.DataOutput("body", "object"))),
		testutil.CreateTestAction("list",
			testutil.WithInputs(
				models.ActionInput{Name: flow.ControlInput, Type: "flow"},
				models.ActionInput{Name: "limit", Type: "number", Required: true},
				models.ActionInput{Name: "mode", Type: "string", Enum: []any{"fast", "slow"}, Default: "slow"},
				models.ActionInput{Name: "enabled", Type: "boolean"},
				models.ActionInput{Name: "schedule", Type: "cron"},
				models.ActionInput{Name: "text", Type: "string"},
				models.ActionInput{Name: "chat_id", Type: "string"},
			)),
		testutil.CreateTestAction(SetVariableAction,
			testutil.WithInputs(
				models.ActionInput{Name: "name", Type: "string", Required: true},
				models.ActionInput{Name: "value", Type: "string"},
			)),
	)
}

func testWorkflow() *models.Workflow {
	workflow := testutil.CreateTestWorkflow(
		testutil.CreateTestNode("T", "trigger", testutil.WithPosition(0, 0)),
		testutil.CreateTestNode("D", "fetch", testutil.WithPosition(250, 100)),
		testutil.CreateTestNode("C", "list", testutil.WithData(map[string]any{
			"text":    "{{ nodes.T.chat_id }}",
			"enabled": true,
		})),
	)

	workflow.Edges = []*models.Edge{
		testutil.ControlEdge("T", "next", "D"),
		testutil.ControlEdge("D", "next", "C"),
		testutil.DataEdge("D", "count", "C", "limit"),
	}

	return workflow
}

func dataEdgesInto(workflow *models.Workflow, node, input string) []*models.Edge {
	var edges []*models.Edge

	for _, edge := range workflow.Edges {
		if edge.TargetNode == node && edge.TargetInput == input && flow.IsDataEdge(edge) {
			edges = append(edges, edge)
		}
	}

	return edges
}

func newTestSession(t *testing.T, workflow *models.Workflow, opts ...SessionOption) *Session {
	t.Helper()

	session, err := NewSession(workflow, "C", testCatalog(), opts...)
	require.NoError(t, err)

	return session
}

func TestNewSession_Modes(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	assert.Equal(t, ModeWire, session.Mode("limit"))
	assert.Equal(t, ModeReference, session.Mode("text"))
	assert.Equal(t, ModeLiteral, session.Mode("enabled"))
	assert.Equal(t, ModeLiteral, session.Mode("mode"))

	states := session.Inputs()
	require.Len(t, states, 6, "control inputs are not editable")
	assert.Equal(t, "limit", states[0].Name)
	require.NotNil(t, states[0].Wire)
	assert.Equal(t, "D", states[0].Wire.SourceNode)
	assert.Nil(t, states[0].Value)
}

func TestNewSession_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewSession(testWorkflow(), "missing", testCatalog())
	require.ErrorIs(t, err, ErrNodeNotFound)

	workflow := testWorkflow()
	workflow.Nodes["X"] = testutil.CreateTestNode("X", "unknown")

	_, err = NewSession(workflow, "X", testCatalog())
	require.ErrorIs(t, err, ErrActionNotFound)
}

func TestSetMode_WireToReference(t *testing.T) {
	t.Parallel()

	workflow := testWorkflow()
	session := newTestSession(t, workflow)

	require.NoError(t, session.SetMode("limit", ModeReference))

	assert.Equal(t, "{{ nodes.D.count }}", session.FormValues()["limit"])
	assert.Equal(t, ModeReference, session.Mode("limit"))
	assert.Empty(t, dataEdgesInto(session.Draft(), "C", "limit"))
	assert.Len(t, dataEdgesInto(workflow, "C", "limit"), 1, "document is untouched until apply")

	require.NoError(t, session.Apply(context.Background()))

	assert.Empty(t, dataEdgesInto(workflow, "C", "limit"))
	assert.Equal(t, "{{ nodes.D.count }}", workflow.Nodes["C"].Data["limit"])
}

func TestConvertWireToReference(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	require.NoError(t, session.SelectWireSource("text", "D", "body", "items[0].name"))
	require.NoError(t, session.ConvertWireToReference("text"))

	assert.Equal(t, "{{ nodes.D.body.items[0].name }}", session.FormValues()["text"])
	assert.Empty(t, dataEdgesInto(session.Draft(), "C", "text"))

	require.ErrorIs(t, session.ConvertWireToReference("text"), ErrNoWire)
	require.ErrorIs(t, session.ConvertWireToReference("nope"), ErrUnknownInput)
}

func TestSingleValueSource(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	require.NoError(t, session.SetValue("limit", 5))
	assert.Equal(t, ModeLiteral, session.Mode("limit"))
	assert.Empty(t, dataEdgesInto(session.Draft(), "C", "limit"))

	require.NoError(t, session.SelectWireSource("limit", "D", "count", ""))
	require.NoError(t, session.SelectWireSource("limit", "T", "chat_id", ""))

	edges := dataEdgesInto(session.Draft(), "C", "limit")
	require.Len(t, edges, 1, "at most one wire per input")
	assert.Equal(t, "T", edges[0].SourceNode)
	assert.Equal(t, ModeWire, session.Mode("limit"))

	require.NoError(t, session.SetMode("limit", ModeLiteral))
	assert.Empty(t, dataEdgesInto(session.Draft(), "C", "limit"))

	for _, state := range session.Inputs() {
		if state.Mode != ModeWire {
			assert.Nil(t, state.Wire, state.Name)
		}
	}
}

func TestSetMode_WireAwaitsSource(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	require.NoError(t, session.SetMode("text", ModeWire))
	assert.Equal(t, ModeWire, session.Mode("text"))

	var choosing bool

	for _, state := range session.Inputs() {
		if state.Name == "text" {
			choosing = state.Choosing
		}
	}

	assert.True(t, choosing)

	require.ErrorIs(t, session.SelectWireSource("text", "C", "count", ""), ErrNotAncestor)
	require.ErrorIs(t, session.SetMode("text", Mode("magic")), ErrInvalidMode)

	err := session.SelectWireSource("text", "D", "next", "")
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestSetMode_LiteralCoercion(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	require.NoError(t, session.SetValue("enabled", "{{ nodes.T.chat_id }}"))
	require.NoError(t, session.SetMode("enabled", ModeLiteral))
	assert.Equal(t, false, session.FormValues()["enabled"])

	require.NoError(t, session.SetMode("limit", ModeLiteral))
	assert.Nil(t, session.FormValues()["limit"])

	require.NoError(t, session.SetValue("mode", "turbo"))
	require.NoError(t, session.SetMode("mode", ModeLiteral))
	assert.Equal(t, "slow", session.FormValues()["mode"])

	require.NoError(t, session.SetValue("schedule", "every day"))
	require.NoError(t, session.SetMode("schedule", ModeLiteral))
	assert.Equal(t, "", session.FormValues()["schedule"])
}

func TestApply_RequiredInputs(t *testing.T) {
	t.Parallel()

	workflow := testWorkflow()
	session := newTestSession(t, workflow)

	require.NoError(t, session.SetValue("limit", "  "))
	require.NoError(t, session.SetValue("text", "changed"))

	err := session.Apply(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidInput)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields, "limit")

	assert.Equal(t, "{{ nodes.T.chat_id }}", workflow.Nodes["C"].Data["text"], "nothing is applied")
	assert.Len(t, dataEdgesInto(workflow, "C", "limit"), 1)

	require.NoError(t, session.SetMode("limit", ModeWire))
	err = session.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	require.NoError(t, session.SelectWireSource("limit", "D", "count", ""))
	require.NoError(t, session.Apply(context.Background()))

	assert.Equal(t, "changed", workflow.Nodes["C"].Data["text"])
	assert.NotContains(t, workflow.Nodes["C"].Data, "limit", "wired inputs store no data value")
	assert.Len(t, dataEdgesInto(workflow, "C", "limit"), 1)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	require.NoError(t, session.SetMode("limit", ModeReference))
	session.Discard()

	assert.Equal(t, ModeWire, session.Mode("limit"))
	assert.Len(t, dataEdgesInto(session.Draft(), "C", "limit"), 1)
}

func TestApplyRawJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		raw    string
		fields []string
	}{
		{name: "not json", raw: `{"limit": `},
		{name: "wrong type", raw: `{"limit": "ten"}`, fields: []string{"limit"}},
		{name: "not in enum", raw: `{"limit": 1, "mode": "turbo"}`, fields: []string{"mode"}},
		{name: "bad cron", raw: `{"limit": 1, "schedule": "every minute"}`, fields: []string{"schedule"}},
		{name: "missing required", raw: `{"text": "x"}`, fields: []string{"limit"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			workflow := testWorkflow()
			workflow.Edges = workflow.Edges[:2]
			session := newTestSession(t, workflow)
			before := session.FormValues()

			err := session.ApplyRawJSON([]byte(tc.raw))
			require.Error(t, err)
			require.True(t, IsInputError(err))

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)

			for _, field := range tc.fields {
				assert.Contains(t, inputErr.Fields, field)
			}

			assert.Equal(t, before, session.FormValues())
		})
	}
}

func TestApplyRawJSON_Valid(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	raw := `{"limit": "{{ runtime.variables.max }}", "schedule": "*/5 * * * *", "enabled": false, "label": "kept"}`
	require.NoError(t, session.ApplyRawJSON([]byte(raw)))

	assert.Equal(t, ModeReference, session.Mode("limit"))
	assert.Empty(t, dataEdgesInto(session.Draft(), "C", "limit"))
	assert.Equal(t, ModeLiteral, session.Mode("schedule"))
	assert.Equal(t, ModeLiteral, session.Mode("text"))
	assert.Equal(t, "kept", session.FormValues()["label"])

	out, err := session.RawConfig()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"schedule": "*/5 * * * *"`)

	session = newTestSession(t, testWorkflow())
	require.NoError(t, session.ApplyRawJSON([]byte(`{"text": "hello"}`)), "wired required inputs may be omitted")
	assert.Equal(t, ModeWire, session.Mode("limit"))
}

func TestEditor_SingleFocus(t *testing.T) {
	t.Parallel()

	workflow := testWorkflow()
	editor := NewEditor(testCatalog())

	first, err := editor.Focus(workflow, "C")
	require.NoError(t, err)
	require.NoError(t, first.SetMode("limit", ModeReference))

	pointer := &fakePointer{}
	drag, err := first.StartDrag("text", pointer, Point{})
	require.NoError(t, err)

	second, err := editor.Focus(workflow, "D")
	require.NoError(t, err)

	assert.Same(t, second, editor.Current())
	assert.Equal(t, DragCancelled, drag.State())
	assert.Equal(t, 0, pointer.active())
	assert.Len(t, dataEdgesInto(workflow, "C", "limit"), 1, "uncommitted edits are discarded")

	_, err = editor.Focus(workflow, "missing")
	require.ErrorIs(t, err, ErrNodeNotFound)
	assert.Nil(t, editor.Current())

	editor.Close()
	assert.Nil(t, editor.Current())
}

package wiring

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID(id string) IDGenerator {
	return IDGeneratorFunc(func(context.Context) (string, error) {
		return id, nil
	})
}

func hasControlEdge(workflow *models.Workflow, source, output, target string) bool {
	for _, edge := range workflow.Edges {
		if edge.SourceNode == source && edge.SourceOutput == output && edge.TargetNode == target &&
			edge.TargetInput == flow.ControlInput {
			return true
		}
	}

	return false
}

func TestExtractToVariable(t *testing.T) {
	t.Parallel()

	workflow := testWorkflow()
	session := newTestSession(t, workflow, WithIDGenerator(fixedID("var-1")))

	outcome, err := session.ExtractToVariable(context.Background(), "limit", "page size")
	require.NoError(t, err)

	assert.Equal(t, ExtractSuccess, outcome.Status)
	assert.Equal(t, "var-1", outcome.NodeID)
	assert.Equal(t, "page_size", outcome.Variable)
	assert.Equal(t, "{{ runtime.variables.page_size }}", outcome.Reference)
	assert.False(t, outcome.FallbackID)
	assert.Empty(t, outcome.Failures)

	draft := session.Draft()
	node := draft.Node("var-1")
	require.NotNil(t, node)
	assert.Equal(t, SetVariableAction, node.ActionID)
	assert.Equal(t, models.Position{X: 500, Y: 100}, node.Position)
	assert.Equal(t, "page_size", node.Data["name"])
	assert.Equal(t, "{{ nodes.D.count }}", node.Data["value"])

	assert.True(t, hasControlEdge(draft, "D", "next", "var-1"))
	assert.True(t, hasControlEdge(draft, "var-1", flow.ControlOutput, "C"))
	assert.Empty(t, dataEdgesInto(draft, "C", "limit"))

	assert.Equal(t, ModeReference, session.Mode("limit"))
	assert.Equal(t, outcome.Reference, session.FormValues()["limit"])

	assert.Nil(t, workflow.Node("var-1"), "document is untouched until apply")

	require.NoError(t, session.Apply(context.Background()))
	assert.NotNil(t, workflow.Node("var-1"))
	assert.Equal(t, outcome.Reference, workflow.Nodes["C"].Data["limit"])
}

func TestExtractToVariable_Partial(t *testing.T) {
	t.Parallel()

	workflow := testWorkflow()
	workflow.Nodes["G"] = testutil.CreateTestNode("G", "ghost_action")
	workflow.Edges = append(workflow.Edges, testutil.DataEdge("G", "value", "C", "text"))

	session := newTestSession(t, workflow, WithIDGenerator(fixedID("var-2")))

	outcome, err := session.ExtractToVariable(context.Background(), "text", "greeting")
	require.NoError(t, err)

	assert.Equal(t, ExtractPartial, outcome.Status)
	require.Len(t, outcome.Failures, 1)
	assert.Contains(t, outcome.Failures[0], "ghost_action")

	draft := session.Draft()
	assert.NotNil(t, draft.Node("var-2"))
	assert.True(t, hasControlEdge(draft, "var-2", flow.ControlOutput, "C"), "the edge into the edited node is kept")
	assert.Equal(t, "D", outcome.AttachedFrom)
	assert.True(t, hasControlEdge(draft, "D", "next", "var-2"), "the new node stays reachable")
	assert.Equal(t, "{{ runtime.variables.greeting }}", session.FormValues()["text"])
}

func TestExtractToVariable_FallbackID(t *testing.T) {
	t.Parallel()

	failing := IDGeneratorFunc(func(context.Context) (string, error) {
		return "", errors.New("id service unavailable")
	})

	first := newTestSession(t, testWorkflow(), WithIDGenerator(failing))
	outcome, err := first.ExtractToVariable(context.Background(), "limit", "total")
	require.NoError(t, err)

	assert.True(t, outcome.FallbackID)
	assert.Equal(t, ExtractSuccess, outcome.Status)

	workflow := testWorkflow()
	workflow.ID = first.Draft().ID
	second := newTestSession(t, workflow, WithIDGenerator(failing))
	again, err := second.ExtractToVariable(context.Background(), "limit", "total")
	require.NoError(t, err)

	assert.Equal(t, outcome.NodeID, again.NodeID, "fallback ids are deterministic")

	require.NoError(t, second.SelectWireSource("limit", "D", "count", ""))
	third, err := second.ExtractToVariable(context.Background(), "limit", "total")
	require.NoError(t, err)

	assert.True(t, third.FallbackID)
	assert.NotEqual(t, again.NodeID, third.NodeID)

	kept := second.Draft().Node(again.NodeID)
	require.NotNil(t, kept, "the first extracted node is kept")
	assert.Equal(t, SetVariableAction, kept.ActionID)
	assert.Equal(t, "{{ nodes.D.count }}", kept.Data["value"])
	assert.True(t, hasControlEdge(second.Draft(), again.NodeID, flow.ControlOutput, "C"))
}

func TestExtractToVariable_FallbackIDTaken(t *testing.T) {
	t.Parallel()

	failing := IDGeneratorFunc(func(context.Context) (string, error) {
		return "", errors.New("id service unavailable")
	})

	workflow := testWorkflow()
	taken := FallbackID(workflow.ID, "C", "limit", "v")
	workflow.Nodes[taken] = testutil.CreateTestNode(taken, "fetch", testutil.WithData(map[string]any{"keep": "me"}))

	session := newTestSession(t, workflow, WithIDGenerator(failing))
	outcome, err := session.ExtractToVariable(context.Background(), "limit", "v")
	require.NoError(t, err)

	assert.NotEqual(t, taken, outcome.NodeID)

	existing := session.Draft().Node(taken)
	require.NotNil(t, existing)
	assert.Equal(t, "fetch", existing.ActionID)
	assert.Equal(t, map[string]any{"keep": "me"}, existing.Data)
}

func TestExtractToVariable_Errors(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, testWorkflow())

	outcome, err := session.ExtractToVariable(context.Background(), "text", "x")
	require.ErrorIs(t, err, ErrNoWire)
	assert.Equal(t, ExtractFailed, outcome.Status)

	_, err = session.ExtractToVariable(context.Background(), "limit", " .. ")
	require.True(t, IsInputError(err))

	catalog := testCatalog()
	delete(catalog, SetVariableAction)

	noSetVariable, err := NewSession(testWorkflow(), "C", catalog)
	require.NoError(t, err)

	outcome, err = noSetVariable.ExtractToVariable(context.Background(), "limit", "x")
	require.ErrorIs(t, err, ErrActionNotFound)
	assert.Equal(t, ExtractFailed, outcome.Status)
	assert.Len(t, dataEdgesInto(noSetVariable.Draft(), "C", "limit"), 1)
}

func TestNewNode_Defaults(t *testing.T) {
	t.Parallel()

	action := testutil.CreateTestAction("reply", testutil.WithInputs(
		models.ActionInput{Name: "chat_id", Type: "string"},
		models.ActionInput{Name: "parse_mode", Type: "string", Default: "HTML"},
		models.ActionInput{Name: "text", Type: "string"},
		models.ActionInput{Name: flow.ControlInput, Type: "flow"},
	))

	node := NewNode("n", action, models.Position{X: 1, Y: 2})

	assert.Equal(t, map[string]any{
		"chat_id":    "{{ runtime.chat_id }}",
		"parse_mode": "HTML",
	}, node.Data)
}

func TestCoerceLiteral(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input models.ActionInput
		value any
		want  any
	}{
		{"bool kept", models.ActionInput{Type: "boolean"}, true, true},
		{"bool parsed", models.ActionInput{Type: "boolean"}, "true", true},
		{"bool invalid", models.ActionInput{Type: "boolean"}, "maybe", false},
		{"number kept", models.ActionInput{Type: "number"}, 3, 3},
		{"number parsed", models.ActionInput{Type: "number"}, "2.5", 2.5},
		{"number default", models.ActionInput{Type: "number", Default: 7}, "x", 7},
		{"number null", models.ActionInput{Type: "number"}, "x", nil},
		{"enum member", models.ActionInput{Type: "number", Enum: []any{1, 2}}, float64(2), float64(2)},
		{"enum first option", models.ActionInput{Type: "string", Options: []any{"a", "b"}}, "z", "a"},
		{"reference cleared", models.ActionInput{Type: "string", Default: "d"}, "{{ nodes.a.b }}", "d"},
		{"string kept", models.ActionInput{Type: "string"}, "hi", "hi"},
		{"cron kept", models.ActionInput{Type: "cron"}, "@daily", "@daily"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, CoerceLiteral(tc.input, tc.value))
		})
	}
}

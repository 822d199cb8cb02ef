package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const legacyGreeter = `{
	"id": "greeter",
	"data": "{\"name\": \"Greeter\", \"nodes\": [{\"id\": \"T\", \"action_id\": \"command_trigger\", \"data\": {}}, {\"id\": \"H\", \"action_id\": \"http_request\", \"data\": {\"url\": \"https://example.com\"}}, {\"id\": \"S\", \"action_id\": \"send_message\", \"data\": {}}], \"edges\": [{\"id\": \"c1\", \"source_node\": \"T\", \"source_output\": \"next\", \"target_node\": \"H\", \"target_input\": \"flow_in\"}, {\"id\": \"c2\", \"source_node\": \"H\", \"source_output\": \"next\", \"target_node\": \"S\", \"target_input\": \"flow_in\"}, {\"id\": \"d1\", \"source_node\": \"H\", \"source_output\": \"body\", \"target_node\": \"S\", \"target_input\": \"text\"}]}"
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)

	err := app.Run(context.Background(), append([]string{"botflow"}, args...))

	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "greeter.json", legacyGreeter)

	out, err := run(t, "", "normalize", path)
	require.NoError(t, err)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal([]byte(out), &workflow))
	assert.Equal(t, "greeter", workflow.ID)
	assert.Equal(t, "Greeter", workflow.Name)
	assert.Len(t, workflow.Nodes, 3)
	assert.Len(t, workflow.Edges, 3)
}

func TestNormalizeCommand_StdinYAML(t *testing.T) {
	t.Parallel()

	out, err := run(t, legacyGreeter, "normalize", "--format", "yaml", "-")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "greeter", doc["id"])
	assert.Contains(t, doc, "nodes")
}

func TestNormalizeCommand_Errors(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "normalize")
	require.ErrorIs(t, err, errMissingInput)

	_, err = run(t, "[1, 2]", "normalize", "-")
	require.Error(t, err)

	_, err = run(t, legacyGreeter, "normalize", "--format", "toml", "-")
	require.Error(t, err)
}

func TestConvertCommand_RoundTrip(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "greeter.json", legacyGreeter)

	out, err := run(t, "", "convert", "--to", "canvas", path)
	require.NoError(t, err)

	graph := models.NewCanvasGraph()
	require.NoError(t, json.Unmarshal([]byte(out), graph))
	require.Len(t, graph.Nodes, 3)

	customIDs := make([]string, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		customIDs = append(customIDs, node.Data.CustomID)
	}

	assert.ElementsMatch(t, []string{"T", "H", "S"}, customIDs)

	out, err = run(t, out, "convert", "--to", "canonical", "-")
	require.NoError(t, err)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal([]byte(out), &workflow))
	assert.Len(t, workflow.Nodes, 3)
	assert.Len(t, workflow.Edges, 2, "only control edges are visible on the canvas")

	_, err = run(t, "", "convert", "--to", "svg", path)
	require.Error(t, err)
}

func TestActionsCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "actions")
	require.NoError(t, err)

	var summaries []actionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.NotEmpty(t, summaries)

	byID := make(map[string]actionSummary, len(summaries))
	for _, summary := range summaries {
		byID[summary.ID] = summary
	}

	require.Contains(t, byID, "condition")
	assert.ElementsMatch(t, []string{"true", "false"}, byID["condition"].FlowOutputs)
	assert.Contains(t, byID["http_request"].Outputs, "body")
}

func TestActionsCommand_CustomCatalog(t *testing.T) {
	t.Parallel()

	catalog := writeFile(t, "actions.yaml", `
actions:
  - id: notify_admin
    name: Notify admin
    inputs:
      - name: message
        type: string
`)

	out, err := run(t, "", "actions", "--actions-path", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, `"notify_admin"`)
}

func TestAncestorsCommand(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "greeter.json", legacyGreeter)

	out, err := run(t, "", "ancestors", "--node", "S", path)
	require.NoError(t, err)

	var ancestors []resolver.Ancestor
	require.NoError(t, json.Unmarshal([]byte(out), &ancestors))
	require.Len(t, ancestors, 2)

	ids := []string{ancestors[0].NodeID, ancestors[1].NodeID}
	assert.ElementsMatch(t, []string{"T", "H"}, ids)

	for _, ancestor := range ancestors {
		assert.Equal(t, ancestor.NodeID == "H", ancestor.Direct)
	}

	_, err = run(t, "", "ancestors", "--node", "missing", path)
	require.Error(t, err)
}

func TestAncestorsCommand_Query(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "greeter.json", legacyGreeter)

	out, err := run(t, "", "ancestors", "--node", "S", "--query", "request.body", path)
	require.NoError(t, err)

	var suggestions []resolver.Suggestion
	require.NoError(t, json.Unmarshal([]byte(out), &suggestions))
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "{{ nodes.H.body }}", suggestions[0].Value)
}

func TestAncestorsCommand_WorkflowsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "child.json"), []byte(`{
		"id": "child",
		"nodes": {
			"A": {"action_id": "command_trigger", "data": {}},
			"B": {"action_id": "http_request", "data": {}}
		},
		"edges": [
			{"id": "c1", "source_node": "A", "source_output": "next", "target_node": "B", "target_input": "flow_in"}
		]
	}`), 0o600))

	parent := writeFile(t, "parent.json", `{
		"id": "parent",
		"nodes": {
			"T": {"action_id": "command_trigger", "data": {}},
			"R": {"action_id": "run_workflow", "data": {"workflow_id": "child"}},
			"S": {"action_id": "send_message", "data": {}}
		},
		"edges": [
			{"id": "c1", "source_node": "T", "source_output": "next", "target_node": "R", "target_input": "flow_in"},
			{"id": "c2", "source_node": "R", "source_output": "next", "target_node": "S", "target_input": "flow_in"}
		]
	}`)

	out, err := run(t, "", "ancestors", "--node", "S", "--workflows-dir", dir, parent)
	require.NoError(t, err)

	var ancestors []resolver.Ancestor
	require.NoError(t, json.Unmarshal([]byte(out), &ancestors))

	var names []string

	for _, ancestor := range ancestors {
		if ancestor.NodeID != "R" {
			continue
		}

		for _, output := range ancestor.Outputs {
			names = append(names, output.Name)
		}
	}

	assert.Contains(t, names, resolver.TerminalOutputName("B", "body"))
}

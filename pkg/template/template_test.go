package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeReference(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  NodeReference
		ok    bool
	}{
		{
			name:  "simple",
			input: "{{ nodes.D.count }}",
			want:  NodeReference{NodeID: "D", Output: "count"},
			ok:    true,
		},
		{
			name:  "no spaces",
			input: "{{nodes.node-1.body}}",
			want:  NodeReference{NodeID: "node-1", Output: "body"},
			ok:    true,
		},
		{
			name:  "sub path",
			input: "  {{ nodes.http.body.items[0].name }}  ",
			want:  NodeReference{NodeID: "http", Output: "body", Path: ".items[0].name"},
			ok:    true,
		},
		{
			name:  "index path",
			input: "{{ nodes.list.rows[2] }}",
			want:  NodeReference{NodeID: "list", Output: "rows", Path: "[2]"},
			ok:    true,
		},
		{
			name:  "embedded in text",
			input: "Hello {{ nodes.D.count }}",
			ok:    false,
		},
		{
			name:  "missing output",
			input: "{{ nodes.D }}",
			ok:    false,
		},
		{
			name:  "unterminated",
			input: "{{ nodes.D.count",
			ok:    false,
		},
		{
			name:  "runtime variable",
			input: "{{ runtime.variables.total }}",
			ok:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ref, ok := ParseNodeReference(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, ref)

			if !tc.ok {
				assert.True(t, ref.IsZero())
			}
		})
	}
}

func TestBuildNodeReference(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "{{ nodes.D.count }}", BuildNodeReference("D", "count", ""))
	assert.Equal(t, "{{ nodes.D.body.items }}", BuildNodeReference("D", "body", "items"))
	assert.Equal(t, "{{ nodes.D.body.items }}", BuildNodeReference("D", "body", ".items"))
	assert.Equal(t, "{{ nodes.D.rows[0].id }}", BuildNodeReference("D", "rows", "[0].id"))

	ref, ok := ParseNodeReference(BuildNodeReference("n1", "rows", "[3].name"))
	require.True(t, ok)
	assert.Equal(t, NodeReference{NodeID: "n1", Output: "rows", Path: "[3].name"}, ref)
	assert.Equal(t, "{{ nodes.n1.rows[3].name }}", ref.String())
}

func TestRuntimeVariable_BuildExtractIdempotent(t *testing.T) {
	t.Parallel()

	paths := []string{
		"total",
		"user.name",
		"user name.first-name",
		"a..b",
		".leading.trailing.",
		"weird$$chars.__x__",
		"日本.語",
		"  spaced  ",
	}

	for _, p := range paths {
		normalized := NormalizeVariablePath(p)
		assert.Equal(t, normalized, NormalizeVariablePath(normalized), "normalize must be idempotent for %q", p)

		if normalized == "" {
			assert.Empty(t, BuildRuntimeVariable(p))

			continue
		}

		extracted, ok := ParseRuntimeVariable(BuildRuntimeVariable(p))
		require.True(t, ok, p)
		assert.Equal(t, normalized, extracted, p)

		extracted, ok = ParseRuntimeVariable(BuildRuntimeVariable(normalized))
		require.True(t, ok, p)
		assert.Equal(t, normalized, extracted, p)
	}
}

func TestNormalizeVariablePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user_name.first_name", NormalizeVariablePath("user name.first-name"))
	assert.Equal(t, "a.b", NormalizeVariablePath("a..b"))
	assert.Equal(t, "x_y", NormalizeVariablePath("x - y"))
	assert.Equal(t, "_", NormalizeVariablePath("$$"))
	assert.Empty(t, NormalizeVariablePath("..."))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindNodeReference, Classify("{{ nodes.a.b }}"))
	assert.Equal(t, KindRuntimeVariable, Classify("{{ runtime.variables.counter }}"))
	assert.Equal(t, KindRuntimeField, Classify("{{ runtime.chat_id }}"))
	assert.Equal(t, KindLiteral, Classify("{{ runtime.unknown_field }}"))
	assert.Equal(t, KindLiteral, Classify("{{ nodes.a.b }} and more"))
	assert.Equal(t, KindLiteral, Classify("{{ broken"))
	assert.Equal(t, KindLiteral, Classify(42))
	assert.Equal(t, KindLiteral, Classify(nil))
	assert.True(t, IsReference("{{ nodes.a.b }}"))
	assert.False(t, IsReference("plain"))
}

func TestRuntimeFields(t *testing.T) {
	t.Parallel()

	value, ok := DefaultForInput("chat_id")
	require.True(t, ok)
	assert.Equal(t, "{{ runtime.chat_id }}", value)

	_, ok = DefaultForInput("limit")
	assert.False(t, ok)

	_, isVariable := ParseRuntimeVariable(value)
	assert.False(t, isVariable, "fixed runtime fields never parse as variables")

	assert.Len(t, RuntimeFields(), 6)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	descriptions := Describe("Hi {{ runtime.username }}, you have {{ nodes.D.count }} items in {{ runtime.variables.cart }} {{ other }}")
	require.Len(t, descriptions, 4)

	assert.Equal(t, KindRuntimeField, descriptions[0].Kind)
	assert.Equal(t, "username", descriptions[0].Field)
	assert.Equal(t, KindNodeReference, descriptions[1].Kind)
	assert.Equal(t, NodeReference{NodeID: "D", Output: "count"}, descriptions[1].Node)
	assert.Equal(t, KindRuntimeVariable, descriptions[2].Kind)
	assert.Equal(t, "cart", descriptions[2].Variable)
	assert.Equal(t, KindLiteral, descriptions[3].Kind)

	assert.Nil(t, Describe("no expressions here"))
	assert.Equal(t, []string{"a", "b"}, ReferencedNodes("{{ nodes.a.x }} {{ nodes.b.y }} {{ nodes.a.z }}"))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	sample := map[string]any{
		"nodes": map[string]any{
			"D": map[string]any{"count": 3},
			"http-1": map[string]any{
				"body": map[string]any{
					"items": []any{map[string]any{"name": "first"}},
				},
			},
		},
		"runtime": map[string]any{
			"username":  "alice",
			"variables": map[string]any{"cart": "apples"},
		},
	}

	result, err := Preview("{{ nodes.D.count }}", sample)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result, 0.0001)

	result, err = Preview("{{ nodes.http-1.body.items[0].name }}", sample)
	require.NoError(t, err)
	assert.Equal(t, "first", result)

	result, err = Preview("Hi {{ runtime.username }}, {{ runtime.variables.cart }}", sample)
	require.NoError(t, err)
	assert.Equal(t, "Hi alice, apples", result)

	result, err = Preview("[{{ nodes.D.count }}, 4]", sample)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, 4.0}, result)

	result, err = Preview("{{ nodes.missing.value }}", sample)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = Preview(12, sample)
	require.NoError(t, err)
	assert.Equal(t, 12, result)

	_, err = Preview("{{ nodes.D.count.deeper }}", sample)
	assert.Error(t, err)
}

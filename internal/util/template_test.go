package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		state    map[string]any
		expected string
	}{
		{
			name:     "no placeholders",
			text:     "plain instruction text",
			state:    map[string]any{"unused": "x"},
			expected: "plain instruction text",
		},
		{
			name:     "single key",
			text:     "Review this draft: {blog_draft}",
			state:    map[string]any{"blog_draft": "once upon a time"},
			expected: "Review this draft: once upon a time",
		},
		{
			name: "multiple keys",
			text: "Tech: {tech_research} Health: {health_research}",
			state: map[string]any{
				"tech_research":   "A",
				"health_research": "B",
			},
			expected: "Tech: A Health: B",
		},
		{
			name:     "non-string value",
			text:     "iteration {count}",
			state:    map[string]any{"count": 3},
			expected: "iteration 3",
		},
		{
			name:     "escaped braces stay literal",
			text:     `respond with {{"status": "ok"}}`,
			state:    map[string]any{},
			expected: `respond with {"status": "ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderTemplate(tt.text, tt.state)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderTemplate_MissingKey(t *testing.T) {
	_, err := RenderTemplate("Edit {blog_draft} carefully", map[string]any{})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "blog_draft")
}

func TestRenderTemplate_ReportsAllMissingKeys(t *testing.T) {
	_, err := RenderTemplate("{a} and {b}", map[string]any{"c": 1})

	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestTemplateKeys(t *testing.T) {
	keys := TemplateKeys("{outline} then {draft} then {outline}")
	assert.Equal(t, []string{"outline", "draft"}, keys)

	assert.Empty(t, TemplateKeys("no placeholders here"))
}

package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	refine := MustNew("refine", "Existing: {existing_answer}\nNew: {text}\nAgain: {text}", "existing_answer", "text")

	tests := []struct {
		name    string
		vars    map[string]string
		want    string
		missing string
	}{
		{
			name: "all variables",
			vars: map[string]string{"existing_answer": "old", "text": "new"},
			want: "Existing: old\nNew: new\nAgain: new",
		},
		{
			name: "extra variables ignored",
			vars: map[string]string{"existing_answer": "old", "text": "new", "question": "unused"},
			want: "Existing: old\nNew: new\nAgain: new",
		},
		{
			name: "values with braces are inserted verbatim",
			vars: map[string]string{"existing_answer": "{json}", "text": "}"},
			want: "Existing: {json}\nNew: }\nAgain: }",
		},
		{
			name:    "missing variable",
			vars:    map[string]string{"text": "new"},
			missing: "existing_answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(refine, tt.vars)
			if tt.missing != "" {
				var missErr *MissingVariableError
				require.True(t, errors.As(err, &missErr), "want MissingVariableError, got %v", err)
				assert.Equal(t, "refine", missErr.Template)
				assert.Equal(t, tt.missing, missErr.Variable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderEscapedBraces(t *testing.T) {
	tmpl := MustNew("json", `Reply as {{"summary": "..."}} for: {text}`, "text")
	got, err := Render(tmpl, map[string]string{"text": "video"})
	require.NoError(t, err)
	assert.Equal(t, `Reply as {"summary": "..."} for: video`, got)
}

func TestNewValidatesPlaceholders(t *testing.T) {
	_, err := New("undeclared", "Hello {name}", "text")
	assert.Error(t, err)

	_, err = New("unclosed", "Hello {text", "text")
	assert.Error(t, err)

	_, err = New("stray", "Hello text}", "text")
	assert.Error(t, err)

	tmpl, err := New("ok", "{b} then {a} then {b}", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, tmpl.Variables())
	assert.Equal(t, "ok", tmpl.Name())
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew("bad", "{missing}") })
}

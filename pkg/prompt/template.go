package prompt

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// MissingVariableError means a template placeholder had no value.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt %q: missing variable %q", e.Template, e.Variable)
}

// Template is an immutable f-string style prompt, e.g. "Summarize: {text}".
// Literal braces are written as {{ and }}.
type Template struct {
	name         string
	text         string
	placeholders []string
}

// New parses text and checks that every placeholder is declared.
func New(name, text string, variables ...string) (Template, error) {
	placeholders, err := parsePlaceholders(text)
	if err != nil {
		return Template{}, fmt.Errorf("prompt %q: %w", name, err)
	}
	declared := make(map[string]struct{}, len(variables))
	for _, v := range variables {
		declared[v] = struct{}{}
	}
	for _, p := range placeholders {
		if _, ok := declared[p]; !ok {
			return Template{}, fmt.Errorf("prompt %q: placeholder %q is not declared", name, p)
		}
	}
	return Template{name: name, text: text, placeholders: placeholders}, nil
}

// MustNew is New for package-level templates.
func MustNew(name, text string, variables ...string) Template {
	t, err := New(name, text, variables...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Template) Name() string { return t.name }

// Variables returns the placeholders in order of first appearance.
func (t Template) Variables() []string {
	return append([]string(nil), t.placeholders...)
}

// Render substitutes vars into the template. Extra entries are ignored.
func Render(t Template, vars map[string]string) (string, error) {
	values := make(map[string]any, len(t.placeholders))
	for _, p := range t.placeholders {
		v, ok := vars[p]
		if !ok {
			return "", &MissingVariableError{Template: t.name, Variable: p}
		}
		values[p] = v
	}

	pt := prompts.PromptTemplate{
		Template:       t.text,
		InputVariables: t.placeholders,
		TemplateFormat: prompts.TemplateFormatFString,
	}
	out, err := pt.Format(values)
	if err != nil {
		return "", fmt.Errorf("prompt %q: render: %w", t.name, err)
	}
	return out, nil
}

func parsePlaceholders(text string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := text[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, " \t\n{") {
				return nil, fmt.Errorf("invalid placeholder %q at offset %d", name, i)
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		}
	}
	return out, nil
}

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "schema.json"

// JSONPrompt appends the answer-format instruction to prompt.
func JSONPrompt(prompt, schema string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nRespond with a single JSON object and nothing else.")
	if strings.TrimSpace(schema) != "" {
		b.WriteString(" The object must match this JSON Schema:\n")
		b.WriteString(schema)
	}
	return b.String()
}

// DecodeObject extracts the JSON object from a model answer and validates it
// against schema. Markdown code fences and text around the object are ignored.
// An empty schema skips validation.
func DecodeObject(raw, schema string) (map[string]any, error) {
	text := extractObject(raw)
	if text == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("decode JSON response: %w", err)
	}

	if strings.TrimSpace(schema) == "" {
		return data, nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, err
	}
	// Validate the generic decoding so numbers keep jsonschema's expectations.
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode JSON response: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}
	return data, nil
}

func compileSchema(schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader([]byte(schema))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// extractObject returns the outermost {...} span of s, or "".
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

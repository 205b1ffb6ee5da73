package provider

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// SchemaStrategy decides how the output schema reaches a vendor. Vendors with
// native structured output keep the system prompt as is; the rest get the
// schema folded into the prompt text.
type SchemaStrategy interface {
	SystemPrompt(systemPrompt string, schema *StructuredOutput) (string, error)
}

// NativeSchema leaves the system prompt untouched; the adapter sends the
// schema in a dedicated request field.
var NativeSchema SchemaStrategy = nativeSchema{}

type nativeSchema struct{}

func (nativeSchema) SystemPrompt(systemPrompt string, _ *StructuredOutput) (string, error) {
	return systemPrompt, nil
}

const defaultSchemaInstruction = "Respond with a single JSON object that conforms to the JSON schema below. " +
	"Output bare JSON only: no markdown code fences, no commentary before or after the object."

// EmbedSchemaInPrompt appends the serialized schema and an instruction to emit
// bare JSON to the system prompt.
type EmbedSchemaInPrompt struct {
	// Instruction replaces the default wording when set.
	Instruction string
}

func (e EmbedSchemaInPrompt) SystemPrompt(systemPrompt string, schema *StructuredOutput) (string, error) {
	if schema == nil || schema.Schema == nil {
		return systemPrompt, nil
	}

	raw, err := schema.SchemaJSON()
	if err != nil {
		return "", fmt.Errorf("serializing schema %q: %w", schema.Name, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", fmt.Errorf("formatting schema %q: %w", schema.Name, err)
	}

	instruction := e.Instruction
	if instruction == "" {
		instruction = defaultSchemaInstruction
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(systemPrompt, "\n"))
	sb.WriteString("\n\n## Output format\n")
	sb.WriteString(instruction)
	fmt.Fprintf(&sb, "\n\nSchema name: %s\n", schema.Name)
	if schema.Description != "" {
		fmt.Fprintf(&sb, "Schema description: %s\n", schema.Description)
	}
	sb.WriteString("\n")
	sb.Write(pretty.Bytes())
	sb.WriteString("\n")
	return sb.String(), nil
}

// StrictCompatible reports whether the schema satisfies the rules of strict
// structured output: every object closes additionalProperties and lists all
// of its properties as required. An object without declared properties is
// never strict.
func (s *StructuredOutput) StrictCompatible() bool {
	doc, err := s.SchemaMap()
	if err != nil {
		return false
	}
	return strictNode(doc)
}

func strictNode(node any) bool {
	m, ok := node.(map[string]any)
	if !ok {
		return true
	}

	if isObjectSchema(m) {
		if allowed, ok := m["additionalProperties"].(bool); !ok || allowed {
			return false
		}
		props, _ := m["properties"].(map[string]any)
		if len(props) == 0 {
			return false
		}
		required := make(map[string]bool, len(props))
		list, _ := m["required"].([]any)
		for _, name := range list {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
		for name := range props {
			if !required[name] {
				return false
			}
		}
	}

	for _, key := range []string{"properties", "$defs", "definitions"} {
		children, _ := m[key].(map[string]any)
		for _, child := range children {
			if !strictNode(child) {
				return false
			}
		}
	}
	for _, key := range []string{"anyOf", "allOf", "oneOf"} {
		children, _ := m[key].([]any)
		for _, child := range children {
			if !strictNode(child) {
				return false
			}
		}
	}
	if items, ok := m["items"]; ok && !strictNode(items) {
		return false
	}
	return true
}

func isObjectSchema(m map[string]any) bool {
	if _, ok := m["properties"]; ok {
		return true
	}
	switch t := m["type"].(type) {
	case string:
		return t == "object"
	case []any:
		for _, v := range t {
			if v == "object" {
				return true
			}
		}
	}
	return false
}

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/nlweb/query-core/pkg/schemas"
)

// toolDefinitionsSchema is the embedded JSON Schema validated against the
// tool-definitions document before it is decoded. It enforces the §3
// invariant ("id non-empty; type must match a registered handler") before a
// single ToolDefinition struct is built, the same validate-then-decode
// division of labor the tool-definitions document loading in this spec
// calls for.
const toolDefinitionsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string"},
      "type": {"type": "string", "enum": ["search", "compare", "details", "ensemble"]},
      "enabled": {"type": "boolean"},
      "priority": {"type": "integer"},
      "parameters": {"type": "object"}
    }
  }
}`

// LoadToolDefinitions reads, schema-validates, and decodes the
// tool-definitions document at path. An empty path returns an empty slice
// (no custom tool definitions configured).
func LoadToolDefinitions(path string) ([]schemas.ToolDefinition, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tool definitions: read %s: %w", path, err)
	}

	compiler := jsonschema.NewCompiler()
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(toolDefinitionsSchema)))
	if err != nil {
		return nil, fmt.Errorf("tool definitions: parse embedded schema: %w", err)
	}
	if err := compiler.AddResource("tooldefs.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("tool definitions: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("tooldefs.json")
	if err != nil {
		return nil, fmt.Errorf("tool definitions: compile schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("tool definitions: %s is not valid JSON: %w", path, err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("tool definitions: %s failed schema validation: %w", path, err)
	}

	var defs []schemas.ToolDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("tool definitions: decode %s: %w", path, err)
	}
	for _, d := range defs {
		if !schemas.KnownToolTypes[d.Type] {
			return nil, fmt.Errorf("tool definitions: %s: unknown tool type %q for id %q", path, d.Type, d.ID)
		}
	}
	return defs, nil
}

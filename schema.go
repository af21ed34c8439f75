package alfred

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchema converts the parameter to a JSON Schema map.
func (p *Parameter) JSONSchema() map[string]any {
	schema := map[string]any{
		"type": string(p.Type),
	}

	if p.Description != "" {
		schema["description"] = p.Description
	}

	if p.Type == TypeObject && p.Properties != nil {
		schema["properties"] = propertiesSchema(p.Properties)
		if required := requiredFields(p.Properties); len(required) > 0 {
			schema["required"] = required
		}
	}

	if p.Type == TypeArray && p.Items != nil {
		schema["items"] = p.Items.JSONSchema()
	}

	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}

	return schema
}

// JSONSchema returns the input schema of the tool as a JSON Schema object.
func (s *ToolSpec) JSONSchema() map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": propertiesSchema(s.Parameters),
	}
	if required := requiredFields(s.Parameters); len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// RequiredFields returns the sorted names of required parameters.
func (s *ToolSpec) RequiredFields() []string {
	return requiredFields(s.Parameters)
}

func propertiesSchema(params map[string]*Parameter) map[string]any {
	props := make(map[string]any, len(params))
	for name, param := range params {
		props[name] = param.JSONSchema()
	}
	return props
}

func requiredFields(params map[string]*Parameter) []string {
	var required []string
	for name, param := range params {
		if param.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}

// compileSchema compiles the input schema of a tool for argument validation.
func compileSchema(spec *ToolSpec) (*jsonschema.Schema, error) {
	doc, err := roundTrip(spec.JSONSchema())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode tool schema", goerr.V("tool", spec.Name))
	}

	url := "https://alfred.invalid/tools/" + spec.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add tool schema", goerr.V("tool", spec.Name))
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile tool schema", goerr.V("tool", spec.Name))
	}
	return schema, nil
}

// roundTrip normalizes v into the generic JSON representation the validator expects.
func roundTrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

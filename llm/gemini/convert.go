package gemini

import (
	"github.com/m-mizutani/alfred"
	"google.golang.org/genai"
)

// convertTool converts alfred.ToolSpec to Gemini function declaration
func convertTool(spec alfred.ToolSpec) *genai.FunctionDeclaration {
	// Gemini requires an empty slice, not nil
	required := spec.RequiredFields()
	if required == nil {
		required = []string{}
	}

	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(spec.Parameters)),
		Required:   required,
	}
	for name, param := range spec.Parameters {
		parameters.Properties[name] = convertParameter(param)
	}

	return &genai.FunctionDeclaration{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  parameters,
	}
}

func convertParameter(param *alfred.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        geminiType(param.Type),
		Description: param.Description,
	}

	if len(param.Enum) > 0 {
		schema.Enum = param.Enum
	}

	if param.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema, len(param.Properties))
		for name, prop := range param.Properties {
			schema.Properties[name] = convertParameter(prop)
		}
		schema.Required = []string{}
		for name, prop := range param.Properties {
			if prop.Required {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	if param.Items != nil {
		schema.Items = convertParameter(param.Items)
	}

	return schema
}

func geminiType(paramType alfred.ParameterType) genai.Type {
	switch paramType {
	case alfred.TypeString:
		return genai.TypeString
	case alfred.TypeNumber:
		return genai.TypeNumber
	case alfred.TypeInteger:
		return genai.TypeInteger
	case alfred.TypeBoolean:
		return genai.TypeBoolean
	case alfred.TypeArray:
		return genai.TypeArray
	case alfred.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertInputs converts alfred.Input to Gemini parts
func convertInputs(input ...alfred.Input) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(input))

	for _, in := range input {
		switch v := in.(type) {
		case alfred.Text:
			parts = append(parts, &genai.Part{Text: string(v)})
		case alfred.FunctionResponse:
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:   v.ID,
					Name: v.Name,
					Response: map[string]any{
						"result": v.Content,
					},
				},
			})
		default:
			return nil, alfred.ErrInvalidParameter
		}
	}
	return parts, nil
}

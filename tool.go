package alfred

import (
	"context"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// OutputType is the type tag of a tool result.
type OutputType string

const (
	// OutputString is the only output type in use. Every tool returns text.
	OutputString OutputType = "string"
)

// ToolSpec is the specification of a tool.
// It is the contract an LLM uses to decide when and how to call a tool.
type ToolSpec struct {
	// Name is the unique identifier for the tool in a Registry.
	Name string

	// Description is a human-readable description of what the tool does.
	Description string

	// Parameters defines the input fields the tool accepts, keyed by field name.
	Parameters map[string]*Parameter

	// OutputType is the type of the value returned by Invoke. Empty means OutputString.
	OutputType OutputType
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}
	if !toolNamePattern.MatchString(s.Name) {
		return eb.Wrap(ErrInvalidTool, "name must match "+toolNamePattern.String())
	}
	if s.Description == "" {
		return eb.Wrap(ErrInvalidTool, "description is required")
	}

	switch s.OutputType {
	case "", OutputString:
	default:
		return eb.Wrap(ErrInvalidTool, "unsupported output type", goerr.V("output_type", s.OutputType))
	}

	for name, param := range s.Parameters {
		if err := param.Validate(); err != nil {
			return eb.Wrap(err, "invalid parameter", goerr.V("parameter", name))
		}
	}

	return nil
}

// ParameterType is the type of a parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter is a parameter of a tool.
type Parameter struct {
	// Type is the type of the parameter.
	Type ParameterType

	// Description explains the purpose and expected format of the parameter.
	Description string

	// Required marks the parameter as mandatory in its enclosing object.
	Required bool

	// Enum is the list of allowed values for the parameter.
	Enum []string

	// Properties defines the fields of an object parameter.
	Properties map[string]*Parameter

	// Items defines the element type of an array parameter.
	Items *Parameter
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("type", p.Type))

	switch p.Type {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean:
	case TypeObject:
		if p.Properties == nil {
			return eb.Wrap(ErrInvalidParameter, "properties is required for object type")
		}
		for name, prop := range p.Properties {
			if err := prop.Validate(); err != nil {
				return eb.Wrap(err, "invalid property", goerr.V("property", name))
			}
		}
	case TypeArray:
		if p.Items == nil {
			return eb.Wrap(ErrInvalidParameter, "items is required for array type")
		}
		if err := p.Items.Validate(); err != nil {
			return eb.Wrap(err, "invalid items")
		}
	case "":
		return eb.Wrap(ErrInvalidParameter, "type is required")
	default:
		return eb.Wrap(ErrInvalidParameter, "unknown type")
	}

	return nil
}

// Tool is a named capability the agent can invoke.
//
// Invoke has no error return: every failure, including missing credentials,
// network errors and malformed responses, must be reported as descriptive
// text. The agent treats every tool output purely as text.
type Tool interface {
	// Spec returns the specification of the tool.
	Spec() ToolSpec

	// Invoke runs the tool with arguments decoded from the LLM's function call.
	Invoke(ctx context.Context, args map[string]any) string
}

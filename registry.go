package alfred

import (
	"context"
	"fmt"

	"github.com/m-mizutani/alfred/trace"
	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

type registeredTool struct {
	tool   Tool
	spec   ToolSpec
	schema *jsonschema.Schema
}

// Registry is an ordered set of tools with unique names.
type Registry struct {
	tools []*registeredTool
	index map[string]*registeredTool
}

// NewRegistry creates a Registry from tools in the given order.
// It fails if a tool spec is invalid or two tools share a name.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		index: make(map[string]*registeredTool, len(tools)),
	}

	for _, tool := range tools {
		if err := r.add(tool); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) add(tool Tool) error {
	spec := tool.Spec()
	if err := spec.Validate(); err != nil {
		return err
	}
	if _, ok := r.index[spec.Name]; ok {
		return goerr.Wrap(ErrToolNameConflict, "tool is already registered", goerr.V("tool_name", spec.Name))
	}

	schema, err := compileSchema(&spec)
	if err != nil {
		return err
	}

	entry := &registeredTool{tool: tool, spec: spec, schema: schema}
	r.tools = append(r.tools, entry)
	r.index[spec.Name] = entry
	return nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	tools := make([]Tool, len(r.tools))
	for i, entry := range r.tools {
		tools[i] = entry.tool
	}
	return tools
}

// Specs returns the specs of the registered tools in registration order.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, len(r.tools))
	for i, entry := range r.tools {
		specs[i] = entry.spec
	}
	return specs
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	entry, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return entry.tool, true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Invoke runs the tool named by call and returns its text result.
// An unknown tool or arguments that do not match the tool's input schema
// produce an error text for the LLM; Invoke itself never fails.
// If a trace.Handler is stored in ctx, the execution is reported to it.
func (r *Registry) Invoke(ctx context.Context, call FunctionCall) string {
	logger := LoggerFromContext(ctx)

	h := trace.HandlerFrom(ctx)
	if h != nil {
		ctx = h.StartToolExec(ctx, call.Name, call.Arguments)
	}

	result, err := r.invoke(ctx, call)
	if err != nil {
		logger.Info("tool call rejected", "call", call, "error", err)
		result = "Error: " + err.Error()
	} else {
		logger.Debug("tool result", "tool", call.Name, "result", result)
	}

	if h != nil {
		h.EndToolExec(ctx, result, err)
	}
	return result
}

func (r *Registry) invoke(ctx context.Context, call FunctionCall) (string, error) {
	entry, ok := r.index[call.Name]
	if !ok {
		return "", goerr.Wrap(ErrToolNotFound, fmt.Sprintf("%s is not found", call.Name), goerr.V("tool_name", call.Name))
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	instance, err := roundTrip(args)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidArguments, "arguments are not JSON encodable", goerr.V("tool_name", call.Name))
	}
	if err := entry.schema.Validate(instance); err != nil {
		return "", goerr.Wrap(ErrInvalidArguments, fmt.Sprintf("invalid arguments for %s: %v", call.Name, err), goerr.V("tool_name", call.Name))
	}

	return entry.tool.Invoke(ctx, args), nil
}

package alfred_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/gt"
)

type echoTool struct {
	name string
}

func (x *echoTool) Spec() alfred.ToolSpec {
	return alfred.ToolSpec{
		Name:        x.name,
		Description: "Echoes the given message.",
		Parameters: map[string]*alfred.Parameter{
			"message": {Type: alfred.TypeString, Description: "message to echo", Required: true},
			"times":   {Type: alfred.TypeInteger, Description: "repeat count"},
		},
		OutputType: alfred.OutputString,
	}
}

func (x *echoTool) Invoke(ctx context.Context, args map[string]any) string {
	msg, _ := args["message"].(string)
	return "echo: " + msg
}

func TestToolSpecValidate(t *testing.T) {
	testCases := map[string]struct {
		spec  alfred.ToolSpec
		isErr bool
	}{
		"valid": {
			spec: (&echoTool{name: "echo"}).Spec(),
		},
		"empty name": {
			spec:  alfred.ToolSpec{Description: "x"},
			isErr: true,
		},
		"name with space": {
			spec:  alfred.ToolSpec{Name: "bad name", Description: "x"},
			isErr: true,
		},
		"empty description": {
			spec:  alfred.ToolSpec{Name: "x"},
			isErr: true,
		},
		"unsupported output type": {
			spec:  alfred.ToolSpec{Name: "x", Description: "x", OutputType: "image"},
			isErr: true,
		},
		"parameter without type": {
			spec: alfred.ToolSpec{
				Name:        "x",
				Description: "x",
				Parameters:  map[string]*alfred.Parameter{"q": {Description: "query"}},
			},
			isErr: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.isErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestParameterValidate(t *testing.T) {
	t.Run("object requires properties", func(t *testing.T) {
		p := &alfred.Parameter{Type: alfred.TypeObject}
		err := p.Validate()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, alfred.ErrInvalidParameter))
	})

	t.Run("array requires items", func(t *testing.T) {
		p := &alfred.Parameter{Type: alfred.TypeArray}
		gt.Error(t, p.Validate())
	})

	t.Run("nested array of strings", func(t *testing.T) {
		p := &alfred.Parameter{
			Type:  alfred.TypeArray,
			Items: &alfred.Parameter{Type: alfred.TypeString},
		}
		gt.NoError(t, p.Validate())
	})

	t.Run("unknown type", func(t *testing.T) {
		p := &alfred.Parameter{Type: "date"}
		gt.Error(t, p.Validate())
	})
}

func TestToolSpecJSONSchema(t *testing.T) {
	spec := (&echoTool{name: "echo"}).Spec()
	schema := spec.JSONSchema()

	gt.Equal(t, schema["type"], any("object"))
	gt.Equal(t, schema["required"], any([]string{"message"}))

	props := schema["properties"].(map[string]any)
	msg := props["message"].(map[string]any)
	gt.Equal(t, msg["type"], any("string"))
	gt.Equal(t, msg["description"], any("message to echo"))
	gt.Equal(t, spec.RequiredFields(), []string{"message"})
}

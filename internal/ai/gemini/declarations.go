package gemini

import (
	"google.golang.org/genai"

	"github.com/spigell/smart-hr/internal/tools"
)

// declarations builds the function declarations for every capability.
func declarations(specs []tools.Spec) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        string(spec.Name),
			Description: spec.Description,
		}
		if len(spec.Fields) > 0 {
			decl.Parameters = parameters(spec.Fields)
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func parameters(fields []tools.Field) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		prop := &genai.Schema{Description: f.Description, Enum: f.Enum}
		switch f.Type {
		case tools.TypeInteger:
			prop.Type = genai.TypeInteger
		default:
			prop.Type = genai.TypeString
		}
		schema.Properties[f.Name] = prop
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}

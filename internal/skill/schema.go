package skill

import (
	"slices"

	"github.com/soyeahso/wawa/internal/llm"
)

// ToToolSchemas projects defs into provider tool schemas, one per definition,
// in the same order.
func ToToolSchemas(defs []Definition) []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(defs))
	for _, def := range defs {
		out = append(out, ToToolSchema(def))
	}
	return out
}

// ToToolSchema projects a single definition.
func ToToolSchema(def Definition) llm.ToolSchema {
	props := make(map[string]llm.PropertySchema, len(def.Parameters))
	for _, p := range def.Parameters {
		prop := llm.PropertySchema{
			Type:        jsonType(p.Type),
			Description: p.Description,
			Enum:        slices.Clone(p.Enum),
		}
		if p.Type == ParamDate {
			prop.Format = "date-time"
		}
		props[p.Name] = prop
	}
	return llm.ToolSchema{
		Name:        def.Name,
		Description: def.Description,
		Parameters: llm.ObjectSchema{
			Type:       "object",
			Properties: props,
			Required:   def.RequiredParams(),
		},
	}
}

// ToolSchemasForModule returns the schemas offered in module. An empty module
// offers every skill.
func ToolSchemasForModule(c *Catalog, module string) []llm.ToolSchema {
	if module == "" {
		return ToToolSchemas(c.ListAll())
	}
	return ToToolSchemas(c.ListByModule(module))
}

func jsonType(t ParamType) string {
	switch t {
	case ParamNumber:
		return "number"
	case ParamBoolean:
		return "boolean"
	default:
		return "string"
	}
}

package registry

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ReflectSchema derives a tool's input-schema JSON from a Go struct tag
// layout via reflection, the same approach the gateway's own config
// loader uses for its schema export.
func ReflectSchema(v any) json.RawMessage {
	r := &jsonschema.Reflector{
		FieldNameTag:             "json",
		DoNotReference:           true,
		ExpandedStruct:           true,
		RequiredFromJSONSchemaTags: false,
	}
	schema := r.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return NormalizeSchema(raw)
}

// NormalizeSchema applies the model-binding adapter's field-wise type
// mapping (string→string, integer→integer, number→floating,
// boolean→boolean, everything else collapses to string) to a parsed
// JSON-Schema document, used to sanitize schemas arriving from
// untrusted sources such as a remote tool-catalog fetch.
func NormalizeSchema(raw json.RawMessage) json.RawMessage {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	normalizeNode(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return out
}

var allowedSchemaTypes = map[string]struct{}{
	"string":  {},
	"integer": {},
	"number":  {},
	"boolean": {},
	"object":  {},
	"array":   {},
}

func normalizeNode(node map[string]any) {
	if t, ok := node["type"].(string); ok {
		if _, allowed := allowedSchemaTypes[t]; !allowed {
			node["type"] = "string"
		}
	}
	if props, ok := node["properties"].(map[string]any); ok {
		for _, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				normalizeNode(propMap)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		normalizeNode(items)
	}
}

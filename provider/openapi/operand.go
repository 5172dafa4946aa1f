package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/specshape/specshape/api"
)

// coerce classifies an operand as a schema to walk, the absence of one, or
// a value from outside the dialect. A nil schema result with foreign=false
// means "no constraint declared": the caller projects it to the
// unconstrained shape. Description entities passed through without a schema
// fall in the same bucket.
func coerce(operand any) (sch *openapi3.Schema, foreign bool, err error) {
	switch v := operand.(type) {
	case nil:
		return nil, false, nil
	case *openapi3.Schema:
		return v, false, nil
	case *openapi3.SchemaRef:
		if v == nil {
			return nil, false, nil
		}
		return v.Value, false, nil
	case map[string]any:
		s, err := decodeSchemaMap(v)
		if err != nil {
			return nil, false, err
		}
		return s, false, nil
	case []byte:
		s, err := decodeSchemaBytes(v)
		if err != nil {
			return nil, false, err
		}
		return s, false, nil
	case *api.Parameter:
		if v == nil || v.Schema == nil {
			return nil, false, nil
		}
		return coerce(v.Schema)
	case *api.BodyParameter:
		if v == nil || v.Schema == nil {
			return nil, false, nil
		}
		return coerce(v.Schema)
	default:
		return nil, true, nil
	}
}

// decodeSchemaMap converts a raw mapping, as the document codec leaves
// schema nodes, into a kin-openapi schema by round-tripping through JSON.
func decodeSchemaMap(m map[string]any) (*openapi3.Schema, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode schema node: %w", err)
	}
	sch := &openapi3.Schema{}
	if err := sch.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("openapi: decode schema node: %w", err)
	}
	return sch, nil
}

func decodeSchemaBytes(data []byte) (*openapi3.Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("openapi: parse schema bytes: %w", err)
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("openapi: schema bytes must decode to a mapping, got %T", node)
	}
	return decodeSchemaMap(m)
}

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/specshape/specshape/api"
)

// Marshal encodes a description into the YAML format Parse reads. Schema
// operands must be plain YAML values or kin-openapi nodes; resolved refs
// are inlined so the output stays self-contained. Operands with no wire
// form, such as Go reflect types, fail with ConversionError.
func Marshal(desc *api.Description) ([]byte, error) {
	if desc == nil {
		return nil, &DocumentError{Code: InputError, Message: "document: nil description"}
	}

	wire := &wireDocument{
		Version:  Version,
		Metadata: marshalMetadata(desc.Metadata),
	}
	if len(desc.Endpoints) > 0 {
		wire.Endpoints = make(map[string]*wireEndpoint, len(desc.Endpoints))
	}

	for _, name := range desc.EndpointNames() {
		ep, err := marshalEndpoint(name, desc.Endpoints[name])
		if err != nil {
			return nil, err
		}
		wire.Endpoints[name] = ep
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wire); err != nil {
		return nil, &DocumentError{Code: ConversionError, Message: fmt.Sprintf("encode document: %v", err), Cause: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &DocumentError{Code: ConversionError, Message: fmt.Sprintf("encode document: %v", err), Cause: err}
	}
	return buf.Bytes(), nil
}

func marshalEndpoint(name string, ep *api.Endpoint) (*wireEndpoint, error) {
	if ep == nil {
		return &wireEndpoint{}, nil
	}
	out := &wireEndpoint{Metadata: marshalMetadata(ep.Metadata)}

	for _, kind := range api.EntryKinds() {
		if !kind.Named() {
			continue
		}
		entries, _ := ep.Entries(kind)
		if len(entries) == 0 {
			continue
		}
		wireMap := make(map[string]*wireEntry, len(entries))
		for entryName, entry := range entries {
			we := &wireEntry{}
			if entry != nil {
				schema, err := marshalSchema(entry.Schema, fmt.Sprintf("endpoint %q %s entry %q", name, kind, entryName))
				if err != nil {
					return nil, err
				}
				we.Schema = schema
				we.Metadata = marshalMetadata(entry.Metadata)
			}
			wireMap[entryName] = we
		}
		switch kind {
		case api.EntryParams:
			out.Params = wireMap
		case api.EntryQuery:
			out.Query = wireMap
		case api.EntryHeaders:
			out.Headers = wireMap
		case api.EntryCookies:
			out.Cookies = wireMap
		case api.EntryResponses:
			out.Responses = wireMap
		}
	}

	if ep.Body != nil {
		schema, err := marshalSchema(ep.Body.Schema, fmt.Sprintf("endpoint %q body", name))
		if err != nil {
			return nil, err
		}
		out.Body = &wireEntry{Schema: schema, Metadata: marshalMetadata(ep.Body.Metadata)}
	}

	return out, nil
}

// marshalSchema converts a schema operand into a plain YAML value. Resolved
// kin-openapi refs inline their target; an unresolved ref keeps its $ref
// string so no information is dropped.
func marshalSchema(operand any, where string) (any, error) {
	switch v := operand.(type) {
	case nil:
		return nil, nil
	case *openapi3.SchemaRef:
		if v == nil {
			return nil, nil
		}
		if v.Value != nil {
			return jsonValue(v.Value, where)
		}
		if v.Ref != "" {
			return map[string]any{"$ref": v.Ref}, nil
		}
		return nil, nil
	case *openapi3.Schema:
		if v == nil {
			return nil, nil
		}
		return jsonValue(v, where)
	default:
		if _, ok := operand.(reflect.Type); ok {
			return nil, &DocumentError{
				Code:    ConversionError,
				Message: fmt.Sprintf("document: %s: Go type operand %v has no wire form", where, operand),
			}
		}
		return operand, nil
	}
}

// jsonValue round-trips a kin-openapi node through its JSON encoding into
// plain maps and slices the YAML encoder can serialize.
func jsonValue(node json.Marshaler, where string) (any, error) {
	raw, err := node.MarshalJSON()
	if err != nil {
		return nil, &DocumentError{
			Code:    ConversionError,
			Message: fmt.Sprintf("document: %s: encode schema: %v", where, err),
			Cause:   err,
		}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DocumentError{
			Code:    ConversionError,
			Message: fmt.Sprintf("document: %s: decode schema: %v", where, err),
			Cause:   err,
		}
	}
	return out, nil
}

func marshalMetadata(m *api.Metadata) *wireMetadata {
	if m == nil {
		return nil
	}
	return &wireMetadata{SchemaType: m.SchemaType}
}

// Package openapi provides the schema provider for OpenAPI-style schema
// nodes. It accepts kin-openapi schema values as well as the raw mapping or
// byte forms such nodes take inside loaded description documents.
//
// The input/output asymmetry follows the dialect: readOnly properties exist
// only on the output side, writeOnly properties only on the input side, and
// a property with a default may be omitted on input but is always present
// on output once validation has applied the default.
package openapi

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/specshape/specshape/provider"
	"github.com/specshape/specshape/shape"
)

// ProviderID is the id this provider is conventionally registered under.
const ProviderID = "openapi"

// DefaultMaxDepth bounds recursion into nested schemas.
const DefaultMaxDepth = 32

// Provider projects OpenAPI schemas into shapes. Construct with New.
type Provider struct {
	maxDepth int
}

// Option configures a Provider.
type Option func(*Provider)

// WithMaxDepth bounds recursion into nested schemas. Subtrees beyond the
// limit project to the unconstrained shape, which keeps self-referential
// schemas terminating.
func WithMaxDepth(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// New returns an OpenAPI schema provider.
func New(opts ...Option) *Provider {
	p := &Provider{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ provider.Provider = (*Provider)(nil)

// ProjectInput projects the operand into the shape of values accepted
// before validation.
func (p *Provider) ProjectInput(operand any) (shape.Shape, error) {
	return p.project(operand, false)
}

// ProjectOutput projects the operand into the shape of values produced
// after validation.
func (p *Provider) ProjectOutput(operand any) (shape.Shape, error) {
	return p.project(operand, true)
}

func (p *Provider) project(operand any, out bool) (shape.Shape, error) {
	sch, foreign, err := coerce(operand)
	if err != nil {
		return nil, err
	}
	if foreign {
		return shape.Opaque{Value: operand}, nil
	}
	return p.walk(sch, out, p.maxDepth), nil
}

func (p *Provider) walk(sch *openapi3.Schema, out bool, depth int) shape.Shape {
	if sch == nil || depth <= 0 {
		return shape.Any{}
	}

	var s shape.Shape
	switch {
	case len(sch.Enum) > 0:
		s = enumShape(sch.Enum)
	case len(sch.OneOf) > 0:
		s = p.walkVariants(sch.OneOf, out, depth)
	case len(sch.AnyOf) > 0:
		s = p.walkVariants(sch.AnyOf, out, depth)
	case len(sch.AllOf) > 0:
		s = p.mergeAllOf(sch, out, depth)
	default:
		s = p.walkTyped(sch, out, depth)
	}

	if sch.Nullable {
		s = shape.MarkNullable(s)
	}
	return s
}

func (p *Provider) walkTyped(sch *openapi3.Schema, out bool, depth int) shape.Shape {
	switch sch.Type {
	case "string":
		return shape.Primitive{Name: "string"}
	case "integer":
		return shape.Primitive{Name: "int"}
	case "number":
		return shape.Primitive{Name: "float64"}
	case "boolean":
		return shape.Primitive{Name: "bool"}
	case "null":
		return shape.Literal{}
	case "array":
		return shape.Array{Elem: p.walk(deref(sch.Items), out, depth-1)}
	case "object":
		return p.walkObject(sch, out, depth)
	case "":
		// Untyped nodes still imply a structure when they carry object or
		// array keywords.
		if len(sch.Properties) > 0 || sch.AdditionalProperties != nil || sch.AdditionalPropertiesAllowed != nil {
			return p.walkObject(sch, out, depth)
		}
		if sch.Items != nil {
			return shape.Array{Elem: p.walk(deref(sch.Items), out, depth-1)}
		}
		return shape.Any{}
	default:
		// A type keyword outside the dialect constrains nothing we model.
		return shape.Any{}
	}
}

func (p *Provider) walkObject(sch *openapi3.Schema, out bool, depth int) shape.Shape {
	// Pure dictionary schemas project to maps.
	if len(sch.Properties) == 0 {
		if ap := deref(sch.AdditionalProperties); ap != nil {
			return shape.Map{Elem: p.walk(ap, out, depth-1)}
		}
		if sch.AdditionalPropertiesAllowed != nil && *sch.AdditionalPropertiesAllowed {
			return shape.Map{Elem: shape.Any{}}
		}
		return shape.Object{}
	}

	required := make(map[string]struct{}, len(sch.Required))
	for _, name := range sch.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(sch.Properties))
	for name := range sch.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]shape.Field, 0, len(names))
	for _, name := range names {
		prop := deref(sch.Properties[name])
		if prop != nil {
			if out && prop.WriteOnly {
				continue
			}
			if !out && prop.ReadOnly {
				continue
			}
		}

		_, isRequired := required[name]
		hasDefault := prop != nil && prop.Default != nil
		var optional bool
		if out {
			// Validation fills defaulted fields, so on the output side a
			// field is absent only when neither required nor defaulted.
			optional = !isRequired && !hasDefault
		} else {
			// A default makes the field omissible on the input side even
			// when the schema lists it as required.
			optional = !isRequired || hasDefault
		}

		fields = append(fields, shape.Field{
			Name:     name,
			Shape:    p.walk(prop, out, depth-1),
			Optional: optional,
		})
	}

	open := sch.AdditionalProperties != nil ||
		(sch.AdditionalPropertiesAllowed != nil && *sch.AdditionalPropertiesAllowed)
	return shape.Object{Fields: fields, Open: open}
}

func (p *Provider) walkVariants(refs openapi3.SchemaRefs, out bool, depth int) shape.Shape {
	variants := make([]shape.Shape, 0, len(refs))
	for _, ref := range refs {
		variants = append(variants, p.walk(deref(ref), out, depth-1))
	}
	if len(variants) == 1 {
		return variants[0]
	}
	return shape.Union{Variants: variants}
}

// mergeAllOf flattens the object members of an allOf composition into a
// single record. Later members override the shape of colliding fields; a
// field required by any member stays required. The schema's own properties,
// when present next to allOf, merge last.
func (p *Provider) mergeAllOf(sch *openapi3.Schema, out bool, depth int) shape.Shape {
	members := make([]shape.Shape, 0, len(sch.AllOf)+1)
	for _, ref := range sch.AllOf {
		members = append(members, p.walk(deref(ref), out, depth-1))
	}
	if len(sch.Properties) > 0 {
		members = append(members, p.walkObject(sch, out, depth))
	}

	merged := make(map[string]shape.Field)
	open := false
	sawObject := false
	for _, member := range members {
		obj, ok := member.(shape.Object)
		if !ok {
			continue
		}
		sawObject = true
		open = open || obj.Open
		for _, f := range obj.Fields {
			if prev, exists := merged[f.Name]; exists && !prev.Optional {
				f.Optional = false
			}
			merged[f.Name] = f
		}
	}
	if !sawObject {
		return shape.Any{}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]shape.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, merged[name])
	}
	return shape.Object{Fields: fields, Open: open}
}

func enumShape(values []any) shape.Shape {
	if len(values) == 1 {
		return shape.Literal{Value: values[0]}
	}
	variants := make([]shape.Shape, 0, len(values))
	for _, v := range values {
		variants = append(variants, shape.Literal{Value: v})
	}
	return shape.Union{Variants: variants}
}

func deref(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}
	return ref.Value
}

// Package gotype projects native Go types into shapes. The operand bound
// to an API location is either a reflect.Type or an ordinary Go value,
// which the provider reflects over. Struct fields follow encoding/json
// conventions: the configured tag names the field, `-` and unexported
// fields are skipped, and anonymous struct fields without a tag name are
// flattened into the enclosing object.
//
// The input/output asymmetry for this dialect is carried by `omitempty`:
// callers may leave such fields out, so they are optional in the input
// shape, while a decoded value always holds every field and the output
// shape lists them all as present.
package gotype

import (
	"reflect"
	"strings"
	"time"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/provider"
	"github.com/specshape/specshape/shape"
)

// ProviderID is the identifier the provider is registered under.
const ProviderID = "gotype"

// DefaultMaxDepth bounds type recursion so self-referential types
// (linked lists, trees) terminate in an Any leaf.
const DefaultMaxDepth = 16

// DefaultTagName is the struct tag consulted for field names.
const DefaultTagName = "json"

var timeType = reflect.TypeOf(time.Time{})

// Provider reflects Go types into shapes.
type Provider struct {
	maxDepth int
	tagName  string
}

var _ provider.Provider = (*Provider)(nil)

// Option adjusts how types are walked.
type Option func(*Provider)

// WithMaxDepth caps recursion into nested and self-referential types.
func WithMaxDepth(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithTagName selects the struct tag that names fields, for callers whose
// types carry e.g. `yaml` or `mapstructure` tags instead of `json`.
func WithTagName(tag string) Option {
	return func(p *Provider) {
		if tag != "" {
			p.tagName = tag
		}
	}
}

// New returns a provider with the given options applied.
func New(opts ...Option) *Provider {
	p := &Provider{maxDepth: DefaultMaxDepth, tagName: DefaultTagName}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProjectInput reports the shape a caller may supply for the operand type.
func (p *Provider) ProjectInput(operand any) (shape.Shape, error) {
	return p.project(operand, false)
}

// ProjectOutput reports the shape a decoded value of the operand type
// presents. Optionality from omitempty does not apply here.
func (p *Provider) ProjectOutput(operand any) (shape.Shape, error) {
	return p.project(operand, true)
}

func (p *Provider) project(operand any, out bool) (shape.Shape, error) {
	switch v := operand.(type) {
	case nil:
		return shape.Any{}, nil
	case reflect.Type:
		return p.walk(v, out, p.maxDepth), nil
	case *api.Parameter:
		if v == nil || v.Schema == nil {
			return shape.Any{}, nil
		}
		return p.project(v.Schema, out)
	case *api.BodyParameter:
		if v == nil || v.Schema == nil {
			return shape.Any{}, nil
		}
		return p.project(v.Schema, out)
	default:
		return p.walk(reflect.TypeOf(operand), out, p.maxDepth), nil
	}
}

func (p *Provider) walk(t reflect.Type, out bool, depth int) shape.Shape {
	if t == nil || depth <= 0 {
		return shape.Any{}
	}

	switch t.Kind() {
	case reflect.Pointer:
		return shape.MarkNullable(p.walk(t.Elem(), out, depth-1))
	case reflect.Interface:
		// Neither empty nor named interfaces constrain the value we
		// will actually see.
		return shape.Any{}
	case reflect.String:
		return shape.Primitive{Name: "string"}
	case reflect.Bool:
		return shape.Primitive{Name: "bool"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return shape.Primitive{Name: t.Kind().String()}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			// encoding/json renders byte slices as base64 strings.
			return shape.Primitive{Name: "string"}
		}
		return shape.Array{Elem: p.walk(t.Elem(), out, depth-1)}
	case reflect.Array:
		return shape.Array{Elem: p.walk(t.Elem(), out, depth-1)}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return shape.Opaque{Value: t}
		}
		return shape.Map{Elem: p.walk(t.Elem(), out, depth-1)}
	case reflect.Struct:
		if t == timeType {
			// encoding/json renders time.Time as an RFC 3339 string.
			return shape.Primitive{Name: "string"}
		}
		return p.walkStruct(t, out, depth)
	default:
		// chan, func, complex, uintptr, unsafe.Pointer have no data shape.
		return shape.Opaque{Value: t}
	}
}

// walkStruct lists fields in declaration order, which reflection already
// keeps stable. Promoted fields from flattened embeds keep the position
// of the embed but lose to fields the struct declares itself, matching
// encoding/json shadowing.
func (p *Provider) walkStruct(t reflect.Type, out bool, depth int) shape.Shape {
	own := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(p.tagName)
		name, _ := parseTag(tag)
		if name == "-" && !strings.Contains(tag, ",") {
			continue
		}
		if sf.Anonymous && name == "" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		own[name] = true
	}

	fields := make([]shape.Field, 0, t.NumField())
	seen := make(map[string]bool, t.NumField())
	add := func(f shape.Field) {
		if seen[f.Name] {
			return
		}
		seen[f.Name] = true
		fields = append(fields, f)
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get(p.tagName)
		name, omitempty := parseTag(tag)
		if name == "-" && !strings.Contains(tag, ",") {
			continue
		}

		if sf.Anonymous && name == "" {
			emb := p.walk(sf.Type, out, depth-1)
			if n, ok := emb.(shape.Nullable); ok {
				emb = n.Elem
			}
			if obj, ok := emb.(shape.Object); ok {
				for _, ef := range obj.Fields {
					if !own[ef.Name] {
						add(ef)
					}
				}
				continue
			}
		}

		if name == "" {
			name = sf.Name
		}
		add(shape.Field{
			Name:     name,
			Shape:    p.walk(sf.Type, out, depth-1),
			Optional: !out && omitempty,
		})
	}

	return shape.Object{Fields: fields}
}

func parseTag(tag string) (name string, omitempty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return parts[0], omitempty
}

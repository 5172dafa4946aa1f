// Package shape defines the reified value model that schema providers
// project schemas into. Shapes are plain immutable values: providers build
// them, the projector hands them back untouched, and consumers compare or
// render them without knowing which schema dialect they came from.
package shape

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies a shape node type.
type Kind int

const (
	KindAny Kind = iota
	KindPrimitive
	KindObject
	KindArray
	KindMap
	KindUnion
	KindLiteral
	KindNullable
	KindOpaque
)

var kindNames = map[Kind]string{
	KindAny:       "any",
	KindPrimitive: "primitive",
	KindObject:    "object",
	KindArray:     "array",
	KindMap:       "map",
	KindUnion:     "union",
	KindLiteral:   "literal",
	KindNullable:  "nullable",
	KindOpaque:    "opaque",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Shape is a projected value shape. Implementations are small value types;
// comparing and rendering them never mutates.
type Shape interface {
	// Kind discriminates the concrete node type.
	Kind() Kind
	// String renders a compact Go-flavored signature, e.g.
	// "{id: int, name?: string}" or "[]string?".
	String() string
	// Equal reports structural equality with another shape.
	Equal(other Shape) bool
}

// Any is the unconstrained shape. Absent or empty schemas project to it.
type Any struct{}

func (Any) Kind() Kind             { return KindAny }
func (Any) String() string         { return "any" }
func (Any) Equal(other Shape) bool { return other != nil && other.Kind() == KindAny }

// Primitive is a scalar shape. Name holds the Go-flavored type name,
// e.g. "string", "int", "float64", "bool".
type Primitive struct {
	Name string
}

func (p Primitive) Kind() Kind     { return KindPrimitive }
func (p Primitive) String() string { return p.Name }

func (p Primitive) Equal(other Shape) bool {
	o, ok := other.(Primitive)
	return ok && o.Name == p.Name
}

// Field is a named member of an Object. Optional fields may be absent on the
// input side of a projection.
type Field struct {
	Name     string
	Shape    Shape
	Optional bool
}

// Object is a record shape with a stable field order. Builders emit fields
// name-sorted so two projections of the same schema compare equal. Open
// objects additionally admit members beyond the listed fields.
type Object struct {
	Fields []Field
	Open   bool
}

func (o Object) Kind() Kind { return KindObject }

func (o Object) String() string {
	parts := make([]string, 0, len(o.Fields)+1)
	for _, f := range o.Fields {
		name := f.Name
		if f.Optional {
			name += "?"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, f.Shape))
	}
	if o.Open {
		parts = append(parts, "...")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o Object) Equal(other Shape) bool {
	oo, ok := other.(Object)
	if !ok || oo.Open != o.Open || len(oo.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range o.Fields {
		g := oo.Fields[i]
		if g.Name != f.Name || g.Optional != f.Optional || !equalShapes(g.Shape, f.Shape) {
			return false
		}
	}
	return true
}

// Field returns the named field, if present.
func (o Object) Field(name string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Array is a homogeneous list shape.
type Array struct {
	Elem Shape
}

func (a Array) Kind() Kind     { return KindArray }
func (a Array) String() string { return "[]" + elemString(a.Elem) }

func (a Array) Equal(other Shape) bool {
	o, ok := other.(Array)
	return ok && equalShapes(o.Elem, a.Elem)
}

// Map is a string-keyed dictionary shape.
type Map struct {
	Elem Shape
}

func (m Map) Kind() Kind     { return KindMap }
func (m Map) String() string { return "map[string]" + elemString(m.Elem) }

func (m Map) Equal(other Shape) bool {
	o, ok := other.(Map)
	return ok && equalShapes(o.Elem, m.Elem)
}

// Union is a sum shape; a value matches any one variant.
type Union struct {
	Variants []Shape
}

func (u Union) Kind() Kind { return KindUnion }

func (u Union) String() string {
	parts := make([]string, 0, len(u.Variants))
	for _, v := range u.Variants {
		parts = append(parts, elemString(v))
	}
	return strings.Join(parts, " | ")
}

func (u Union) Equal(other Shape) bool {
	o, ok := other.(Union)
	if !ok || len(o.Variants) != len(u.Variants) {
		return false
	}
	for i, v := range u.Variants {
		if !equalShapes(o.Variants[i], v) {
			return false
		}
	}
	return true
}

// Literal is a shape matched by exactly one value. Enum members project to
// literals; a nil Value is the null literal.
type Literal struct {
	Value any
}

func (l Literal) Kind() Kind { return KindLiteral }

func (l Literal) String() string {
	if l.Value == nil {
		return "null"
	}
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

func (l Literal) Equal(other Shape) bool {
	o, ok := other.(Literal)
	return ok && reflect.DeepEqual(o.Value, l.Value)
}

// Nullable wraps a shape whose values may also be null.
type Nullable struct {
	Elem Shape
}

func (n Nullable) Kind() Kind     { return KindNullable }
func (n Nullable) String() string { return elemString(n.Elem) + "?" }

func (n Nullable) Equal(other Shape) bool {
	o, ok := other.(Nullable)
	return ok && equalShapes(o.Elem, n.Elem)
}

// Opaque carries an operand no provider interpretation applied to. The raw
// value is kept so consumers can still inspect it.
type Opaque struct {
	Value any
}

func (o Opaque) Kind() Kind { return KindOpaque }

func (o Opaque) String() string {
	if s, ok := o.Value.(fmt.Stringer); ok {
		return "opaque<" + s.String() + ">"
	}
	return fmt.Sprintf("opaque<%T>", o.Value)
}

func (o Opaque) Equal(other Shape) bool {
	oo, ok := other.(Opaque)
	return ok && reflect.DeepEqual(oo.Value, o.Value)
}

// MarkNullable wraps s so its values may be null. Already-nullable and
// unconstrained shapes are returned unchanged.
func MarkNullable(s Shape) Shape {
	if s == nil {
		return Any{}
	}
	switch s.Kind() {
	case KindNullable, KindAny:
		return s
	}
	return Nullable{Elem: s}
}

// elemString parenthesizes union elements so nested renderings like
// "[](string | int)" stay unambiguous.
func elemString(s Shape) string {
	if s == nil {
		return "any"
	}
	if s.Kind() == KindUnion {
		return "(" + s.String() + ")"
	}
	return s.String()
}

func equalShapes(a, b Shape) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

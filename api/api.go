// Package api defines the declarative description tree that resolution and
// projection operate on: a Description of named Endpoints, each carrying
// name-keyed parameter collections and an optional body. Schemas attached to
// parameters are opaque here; only a registered schema provider interprets
// them. The tree is treated as immutable once built.
package api

import "sort"

// EntryKind names a data location within an endpoint.
type EntryKind string

const (
	EntryParams    EntryKind = "params"
	EntryQuery     EntryKind = "query"
	EntryHeaders   EntryKind = "headers"
	EntryCookies   EntryKind = "cookies"
	EntryResponses EntryKind = "responses"
	EntryBody      EntryKind = "body"
)

// EntryKinds returns every kind in canonical order.
func EntryKinds() []EntryKind {
	return []EntryKind{EntryParams, EntryQuery, EntryHeaders, EntryCookies, EntryResponses, EntryBody}
}

// Valid reports whether k is one of the defined kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryParams, EntryQuery, EntryHeaders, EntryCookies, EntryResponses, EntryBody:
		return true
	}
	return false
}

// Named reports whether k is a name-keyed collection. Body is the one
// singular kind; every other kind holds entries by name.
func (k EntryKind) Named() bool {
	return k.Valid() && k != EntryBody
}

// Metadata carries resolution hints attached to a description node.
type Metadata struct {
	// SchemaType names the schema provider governing this node's subtree.
	// Empty means inherit from the enclosing scope.
	SchemaType string
}

// ProviderID returns the declared provider id, or "" when the metadata is
// absent or silent. Safe on a nil receiver.
func (m *Metadata) ProviderID() string {
	if m == nil {
		return ""
	}
	return m.SchemaType
}

// Description is the root of an API description.
type Description struct {
	Metadata  *Metadata
	Endpoints map[string]*Endpoint
}

// Endpoint groups the data locations of a single operation.
type Endpoint struct {
	Metadata  *Metadata
	Params    map[string]*Parameter
	Query     map[string]*Parameter
	Headers   map[string]*Parameter
	Cookies   map[string]*Parameter
	Responses map[string]*Parameter
	Body      *BodyParameter
}

// Parameter is a named entry in one of an endpoint's collections.
type Parameter struct {
	// Schema is the provider-specific schema node, nil when the entry
	// declares no schema.
	Schema   any
	Metadata *Metadata
}

// BodyParameter is the single request/response body of an endpoint.
type BodyParameter struct {
	Schema   any
	Metadata *Metadata
}

// Entries returns the named collection for kind. The second result is false
// for body and for invalid kinds, which have no collection.
func (e *Endpoint) Entries(kind EntryKind) (map[string]*Parameter, bool) {
	if e == nil {
		return nil, false
	}
	switch kind {
	case EntryParams:
		return e.Params, true
	case EntryQuery:
		return e.Query, true
	case EntryHeaders:
		return e.Headers, true
	case EntryCookies:
		return e.Cookies, true
	case EntryResponses:
		return e.Responses, true
	}
	return nil, false
}

// EntryNames returns the sorted entry names of a named collection. Body and
// invalid kinds yield nil.
func (e *Endpoint) EntryNames(kind EntryKind) []string {
	entries, ok := e.Entries(kind)
	if !ok || len(entries) == 0 {
		return nil
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EndpointNames returns the description's endpoint names, sorted.
func (d *Description) EndpointNames() []string {
	if d == nil || len(d.Endpoints) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Endpoints))
	for name := range d.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

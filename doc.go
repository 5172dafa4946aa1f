// Package specshape resolves which schema provider governs each location of
// an API description and projects that location's schema into input and
// output shapes.
//
// An API description (package api) is a tree of endpoints, each carrying
// named parameter collections (params, query, headers, cookies, responses)
// and an optional body. Every one of those locations may bind a schema, and
// every level of the tree may declare which schema dialect interprets the
// schemas beneath it through its metadata.
//
// # Resolution
//
// Provider selection cascades through four levels, narrowest first:
//
//  1. the entry's own metadata
//  2. the enclosing endpoint's metadata
//  3. the description's metadata
//  4. the engine's default provider
//
// The first level that declares a schemaType wins; there is no merging. An
// absent body is not an error, the body location simply resolves at endpoint
// scope. Resolution only reads the description, so the same inputs always
// select the same provider.
//
// # Projection
//
// A provider (package provider) interprets one schema dialect. Given the
// operand bound to a location it produces two shapes: the input shape,
// describing values a caller may supply before validation, and the output
// shape, describing values the system yields after validation. The built-in
// dialects are openapi (kin-openapi schema nodes, where readOnly, writeOnly
// and default drive the input/output asymmetry) and gotype (reflection over
// Go types following encoding/json conventions). Shapes (package shape) are
// plain comparable values with a compact Go-flavored rendering.
//
// # Usage
//
// Registries are plain constructed values, so different engines can carry
// different provider sets without sharing global state:
//
//	engine := specshape.New()
//	desc, err := specshape.Load("api.yaml")
//	if err != nil {
//		...
//	}
//	in, err := engine.InputShape(desc, "getUser", api.EntryParams, "id")
//	out, err := engine.OutputShape(desc, "getUser", api.EntryResponses, "200")
//
// Description documents load from YAML or JSON files (package document),
// which can also import OpenAPI v3 and Swagger v2 documents. The Engine in
// this package is a thin facade; the resolve and project packages expose the
// same operations piecewise for callers that need only one half.
package specshape

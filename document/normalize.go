package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/provider/openapi"
)

// ImportOption configures how an OpenAPI document converts into a
// Description.
type ImportOption func(*importConfig)

type importConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[string]struct{}
}

// WithIncludeTags keeps only operations carrying at least one of the given
// tags.
func WithIncludeTags(tags []string) ImportOption {
	return func(c *importConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags drops operations carrying any of the given tags.
func WithExcludeTags(tags []string) ImportOption {
	return func(c *importConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithMethods keeps only operations using one of the given HTTP methods.
func WithMethods(methods []string) ImportOption {
	return func(c *importConfig) {
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			if c.methods == nil {
				c.methods = make(map[string]struct{}, len(methods))
			}
			c.methods[m] = struct{}{}
		}
	}
}

// FromOpenAPI converts a loaded OpenAPI v3 document into a Description.
// Every operation becomes an endpoint named by its operationId, or by a
// name derived from method and path (GET /users/{id} becomes getUsersId)
// when the operationId is absent. Parameters map to the collection matching
// their "in" (path to params, then query, headers and cookies), request
// bodies to body, and responses to the responses collection keyed by status
// code. Schemas stay raw openapi3 nodes, so the imported description
// carries schemaType "openapi" at the top level and no deeper overrides.
func FromOpenAPI(doc *openapi3.T, opts ...ImportOption) (*api.Description, error) {
	if doc == nil {
		return nil, &DocumentError{Code: InputError, Message: "openapi: nil document"}
	}

	cfg := &importConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	desc := &api.Description{
		Metadata:  &api.Metadata{SchemaType: openapi.ProviderID},
		Endpoints: make(map[string]*api.Endpoint),
	}

	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	for _, p := range pathKeys {
		item := doc.Paths[p]
		if item == nil {
			continue
		}

		ops := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"DELETE", item.Delete},
			{"PATCH", item.Patch},
			{"HEAD", item.Head},
			{"OPTIONS", item.Options},
			{"TRACE", item.Trace},
		}

		for _, pair := range ops {
			if pair.op == nil {
				continue
			}
			if len(cfg.methods) > 0 {
				if _, ok := cfg.methods[pair.method]; !ok {
					continue
				}
			}
			if !allowByTags(pair.op.Tags, cfg) {
				continue
			}

			ep := buildEndpoint(item, pair.op)
			name := endpointName(pair.op, pair.method, p)
			desc.Endpoints[uniqueName(desc.Endpoints, name)] = ep
		}
	}

	return desc, nil
}

func allowByTags(tags []string, cfg *importConfig) bool {
	if len(cfg.includeTags) > 0 {
		found := false
		for _, t := range tags {
			if _, ok := cfg.includeTags[strings.TrimSpace(t)]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, t := range tags {
		if _, ok := cfg.excludeTags[strings.TrimSpace(t)]; ok {
			return false
		}
	}
	return true
}

func buildEndpoint(item *openapi3.PathItem, op *openapi3.Operation) *api.Endpoint {
	ep := &api.Endpoint{}

	// Path-level parameters first, shadowed by operation-level ones with the
	// same in and name.
	for _, pref := range item.Parameters {
		addParameter(ep, pref)
	}
	for _, pref := range op.Parameters {
		addParameter(ep, pref)
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		ep.Body = &api.BodyParameter{Schema: pickMediaSchema(op.RequestBody.Value.Content)}
	}

	if len(op.Responses) > 0 {
		codes := make([]string, 0, len(op.Responses))
		for code := range op.Responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			rref := op.Responses[code]
			if rref == nil || rref.Value == nil {
				continue
			}
			if ep.Responses == nil {
				ep.Responses = make(map[string]*api.Parameter)
			}
			ep.Responses[code] = &api.Parameter{Schema: pickMediaSchema(rref.Value.Content)}
		}
	}

	return ep
}

func addParameter(ep *api.Endpoint, pref *openapi3.ParameterRef) {
	if pref == nil || pref.Value == nil {
		return
	}
	p := pref.Value
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}

	entry := &api.Parameter{}
	if p.Schema != nil {
		entry.Schema = p.Schema
	}

	switch strings.ToLower(strings.TrimSpace(p.In)) {
	case "path":
		if ep.Params == nil {
			ep.Params = make(map[string]*api.Parameter)
		}
		ep.Params[name] = entry
	case "query":
		if ep.Query == nil {
			ep.Query = make(map[string]*api.Parameter)
		}
		ep.Query[name] = entry
	case "header":
		if ep.Headers == nil {
			ep.Headers = make(map[string]*api.Parameter)
		}
		ep.Headers[name] = entry
	case "cookie":
		if ep.Cookies == nil {
			ep.Cookies = make(map[string]*api.Parameter)
		}
		ep.Cookies[name] = entry
	}
}

// pickMediaSchema selects one schema from a content map: application/json
// when present, else the first media type in sorted order.
func pickMediaSchema(content openapi3.Content) any {
	if len(content) == 0 {
		return nil
	}
	if mt := content["application/json"]; mt != nil && mt.Schema != nil {
		return mt.Schema
	}
	mimes := make([]string, 0, len(content))
	for mime := range content {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)
	for _, mime := range mimes {
		if mt := content[mime]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

func endpointName(op *openapi3.Operation, method, path string) string {
	if id := strings.TrimSpace(op.OperationID); id != "" {
		return id
	}
	return deriveEndpointName(method, path)
}

// deriveEndpointName builds a camelCase name from method and path, so
// GET /users/{id} becomes getUsersId.
func deriveEndpointName(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(method)))
	upper := true
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}

// uniqueName disambiguates derived names that collide, which can happen when
// two paths differ only in separators.
func uniqueName(endpoints map[string]*api.Endpoint, base string) string {
	if _, taken := endpoints[base]; !taken {
		return base
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if _, taken := endpoints[name]; !taken {
			return name
		}
	}
}

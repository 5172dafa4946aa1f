package document

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specshape/specshape/api"
)

// Version is the document format version this package reads.
const Version = 1

type wireDocument struct {
	Version   int                      `yaml:"version"`
	Metadata  *wireMetadata            `yaml:"metadata,omitempty"`
	Endpoints map[string]*wireEndpoint `yaml:"endpoints"`
}

type wireMetadata struct {
	SchemaType string `yaml:"schemaType"`
}

type wireEndpoint struct {
	Metadata  *wireMetadata         `yaml:"metadata,omitempty"`
	Params    map[string]*wireEntry `yaml:"params,omitempty"`
	Query     map[string]*wireEntry `yaml:"query,omitempty"`
	Headers   map[string]*wireEntry `yaml:"headers,omitempty"`
	Cookies   map[string]*wireEntry `yaml:"cookies,omitempty"`
	Responses map[string]*wireEntry `yaml:"responses,omitempty"`
	Body      *wireEntry            `yaml:"body,omitempty"`
}

type wireEntry struct {
	Schema   any           `yaml:"schema,omitempty"`
	Metadata *wireMetadata `yaml:"metadata,omitempty"`
}

// Parse decodes a description document from YAML or JSON bytes. Unknown
// keys are rejected so misspelled metadata fails loudly instead of being
// silently dropped from the cascade.
func Parse(data []byte) (*api.Description, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DocumentError{Code: InputError, Message: "document: input is empty"}
	}

	var wire wireDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wire); err != nil {
		return nil, &DocumentError{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}

	if wire.Version != 0 && wire.Version != Version {
		return nil, &DocumentError{Code: ValidationError, Message: fmt.Sprintf("document: unsupported version %d (want %d)", wire.Version, Version)}
	}
	if err := validate(&wire); err != nil {
		return nil, err
	}

	return convert(&wire), nil
}

func validate(wire *wireDocument) error {
	names := make([]string, 0, len(wire.Endpoints))
	for name := range wire.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return &DocumentError{Code: ValidationError, Message: "document: endpoint with empty name"}
		}
		ep := wire.Endpoints[name]
		if ep == nil {
			continue
		}
		for _, kind := range api.EntryKinds() {
			for entry := range wireEntries(ep, kind) {
				if strings.TrimSpace(entry) == "" {
					return &DocumentError{
						Code:    ValidationError,
						Message: fmt.Sprintf("document: endpoint %q has a %s entry with an empty name", name, kind),
					}
				}
			}
		}
	}
	return nil
}

func wireEntries(ep *wireEndpoint, kind api.EntryKind) map[string]*wireEntry {
	switch kind {
	case api.EntryParams:
		return ep.Params
	case api.EntryQuery:
		return ep.Query
	case api.EntryHeaders:
		return ep.Headers
	case api.EntryCookies:
		return ep.Cookies
	case api.EntryResponses:
		return ep.Responses
	default:
		return nil
	}
}

func convert(wire *wireDocument) *api.Description {
	desc := &api.Description{
		Metadata:  convertMetadata(wire.Metadata),
		Endpoints: make(map[string]*api.Endpoint, len(wire.Endpoints)),
	}
	for name, ep := range wire.Endpoints {
		desc.Endpoints[name] = convertEndpoint(ep)
	}
	return desc
}

func convertEndpoint(ep *wireEndpoint) *api.Endpoint {
	if ep == nil {
		return &api.Endpoint{}
	}
	out := &api.Endpoint{
		Metadata:  convertMetadata(ep.Metadata),
		Params:    convertEntries(ep.Params),
		Query:     convertEntries(ep.Query),
		Headers:   convertEntries(ep.Headers),
		Cookies:   convertEntries(ep.Cookies),
		Responses: convertEntries(ep.Responses),
	}
	if ep.Body != nil {
		out.Body = &api.BodyParameter{
			Schema:   ep.Body.Schema,
			Metadata: convertMetadata(ep.Body.Metadata),
		}
	}
	return out
}

func convertEntries(entries map[string]*wireEntry) map[string]*api.Parameter {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]*api.Parameter, len(entries))
	for name, e := range entries {
		if e == nil {
			out[name] = &api.Parameter{}
			continue
		}
		out[name] = &api.Parameter{
			Schema:   e.Schema,
			Metadata: convertMetadata(e.Metadata),
		}
	}
	return out
}

func convertMetadata(m *wireMetadata) *api.Metadata {
	if m == nil {
		return nil
	}
	return &api.Metadata{SchemaType: m.SchemaType}
}

// Package project turns description locations into shapes. For every
// location it resolves the governing provider, selects the operand the
// provider will see, and invokes the provider's input or output projection.
// The projector adds nothing of its own on top of what the provider returns.
package project

import (
	"github.com/go-logr/logr"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/provider"
	"github.com/specshape/specshape/resolve"
	"github.com/specshape/specshape/shape"
)

// Projector projects locations of a description through the providers of a
// registry. Construct with New; a Projector is safe for concurrent use.
type Projector struct {
	registry  *provider.Registry
	resolver  *resolve.Resolver
	defaultID string
	log       logr.Logger
}

// Option configures a Projector.
type Option func(*Projector)

// WithDefaultProvider sets the id used when no level of a description
// declares one.
func WithDefaultProvider(id string) Option {
	return func(p *Projector) { p.defaultID = id }
}

// WithResolver substitutes a preconfigured resolver. Without it the
// projector builds its own from the configured default id.
func WithResolver(r *resolve.Resolver) Option {
	return func(p *Projector) { p.resolver = r }
}

// WithLogger routes projection traces to log. The default discards them.
func WithLogger(log logr.Logger) Option {
	return func(p *Projector) { p.log = log }
}

// New returns a Projector over reg. A nil registry behaves like an empty
// one: every projection fails with a not-found lookup.
func New(reg *provider.Registry, opts ...Option) *Projector {
	p := &Projector{registry: reg, log: logr.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = provider.NewRegistry()
	}
	if p.resolver == nil {
		p.resolver = resolve.New(resolve.WithDefaultProvider(p.defaultID), resolve.WithLogger(p.log))
	}
	return p
}

// InputShape projects the location's schema into the shape of values
// accepted there, before validation.
func (p *Projector) InputShape(d *api.Description, endpoint string, kind api.EntryKind, entry string) (shape.Shape, error) {
	loc, err := p.locate(d, endpoint, kind, entry)
	if err != nil {
		return nil, err
	}
	s, err := loc.provider.ProjectInput(loc.operand)
	if err != nil {
		return nil, err
	}
	p.log.V(1).Info("projected input shape",
		"endpoint", endpoint, "kind", kind, "entry", entry, "provider", loc.id, "shape", s)
	return s, nil
}

// OutputShape projects the location's schema into the shape of values
// produced there, after validation.
func (p *Projector) OutputShape(d *api.Description, endpoint string, kind api.EntryKind, entry string) (shape.Shape, error) {
	loc, err := p.locate(d, endpoint, kind, entry)
	if err != nil {
		return nil, err
	}
	s, err := loc.provider.ProjectOutput(loc.operand)
	if err != nil {
		return nil, err
	}
	p.log.V(1).Info("projected output shape",
		"endpoint", endpoint, "kind", kind, "entry", entry, "provider", loc.id, "shape", s)
	return s, nil
}

// EffectiveProvider reports which provider governs a location, without
// projecting anything.
func (p *Projector) EffectiveProvider(d *api.Description, endpoint string, kind api.EntryKind, entry string) (string, error) {
	return p.resolver.Entry(d, endpoint, kind, entry)
}

// location pairs the resolved provider with the operand it will project.
type location struct {
	id       string
	provider provider.Provider
	operand  any
}

func (p *Projector) locate(d *api.Description, endpoint string, kind api.EntryKind, entry string) (location, error) {
	id, err := p.resolver.Entry(d, endpoint, kind, entry)
	if err != nil {
		return location{}, err
	}
	prov, err := p.registry.Lookup(id)
	if err != nil {
		// Lookup failures already carry the offending id; hand them
		// through untouched.
		return location{}, err
	}
	return location{id: id, provider: prov, operand: operandAt(d.Endpoints[endpoint], kind, entry)}, nil
}

// operandAt picks what the provider sees: the entry's schema when one is
// declared, otherwise the entry itself. An absent body yields a nil operand.
// The location is known to exist once resolution succeeded.
func operandAt(ep *api.Endpoint, kind api.EntryKind, entry string) any {
	if kind == api.EntryBody {
		if ep.Body == nil {
			return nil
		}
		if ep.Body.Schema != nil {
			return ep.Body.Schema
		}
		return ep.Body
	}
	entries, _ := ep.Entries(kind)
	param := entries[entry]
	if param.Schema != nil {
		return param.Schema
	}
	return param
}

package specshape

import (
	"github.com/go-logr/logr"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/document"
	"github.com/specshape/specshape/project"
	"github.com/specshape/specshape/provider"
	"github.com/specshape/specshape/provider/gotype"
	"github.com/specshape/specshape/provider/openapi"
	"github.com/specshape/specshape/shape"
)

// DefaultProviderID is the provider selected when no metadata level
// declares one and the engine was not configured with another default.
const DefaultProviderID = openapi.ProviderID

// Engine ties a provider registry and the resolution cascade into a single
// projection surface. The zero value is not usable; construct with New.
type Engine struct {
	registry  *provider.Registry
	projector *project.Projector
	defaultID string
	log       logr.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry supplies the provider registry. Without it the engine uses
// DefaultRegistry.
func WithRegistry(reg *provider.Registry) Option {
	return func(e *Engine) { e.registry = reg }
}

// WithDefaultProvider sets the provider used when the cascade finds no
// declaration at any level.
func WithDefaultProvider(id string) Option {
	return func(e *Engine) { e.defaultID = id }
}

// WithLogger routes debug logging. Resolution decisions log at V(1).
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an engine. Unless overridden it projects with the built-in
// providers and defaults to the openapi dialect.
func New(opts ...Option) *Engine {
	e := &Engine{defaultID: DefaultProviderID, log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	e.projector = project.New(e.registry,
		project.WithDefaultProvider(e.defaultID),
		project.WithLogger(e.log),
	)
	return e
}

// DefaultRegistry returns a fresh registry with the built-in providers
// registered: openapi and gotype. Each call constructs a new registry, so
// callers can extend or replace entries without affecting other engines.
func DefaultRegistry() *provider.Registry {
	reg := provider.NewRegistry()
	reg.MustRegister(openapi.ProviderID, openapi.New())
	reg.MustRegister(gotype.ProviderID, gotype.New())
	return reg
}

// Register adds or replaces a provider in the engine's registry.
func (e *Engine) Register(id string, p provider.Provider) error {
	return e.registry.Register(id, p)
}

// Registry exposes the engine's registry, for callers that need to inspect
// or extend the provider set.
func (e *Engine) Registry() *provider.Registry {
	return e.registry
}

// InputShape projects the schema at the given location into the shape a
// caller may supply.
func (e *Engine) InputShape(d *api.Description, endpoint string, kind api.EntryKind, entry string) (shape.Shape, error) {
	return e.projector.InputShape(d, endpoint, kind, entry)
}

// OutputShape projects the schema at the given location into the shape the
// system yields after validation.
func (e *Engine) OutputShape(d *api.Description, endpoint string, kind api.EntryKind, entry string) (shape.Shape, error) {
	return e.projector.OutputShape(d, endpoint, kind, entry)
}

// EffectiveProvider reports which provider id the cascade selects for the
// given location, without projecting anything.
func (e *Engine) EffectiveProvider(d *api.Description, endpoint string, kind api.EntryKind, entry string) (string, error) {
	return e.projector.EffectiveProvider(d, endpoint, kind, entry)
}

// Load reads a description document from a YAML or JSON file. It is a
// convenience for package document's Load.
func Load(path string) (*api.Description, error) {
	return document.Load(path)
}

// Parse decodes a description document from YAML or JSON bytes. It is a
// convenience for package document's Parse.
func Parse(data []byte) (*api.Description, error) {
	return document.Parse(data)
}

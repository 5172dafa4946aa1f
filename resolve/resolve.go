// Package resolve decides which schema provider governs each location of a
// description. Every declaration level may pin a provider through its
// metadata; the narrowest declaration wins, and locations that declare
// nothing inherit from the level above. The full cascade, from narrowest to
// widest:
//
//  1. entry metadata (the parameter or body itself)
//  2. endpoint metadata
//  3. description metadata
//  4. the default provider id
//
// Resolution only reads the description. It is deterministic, side-effect
// free, and safe to call concurrently.
package resolve

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/specshape/specshape/api"
)

// Resolver applies the provider cascade with a configured default id.
type Resolver struct {
	defaultID string
	log       logr.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultProvider sets the id used when no level of the description
// declares one. An empty default makes resolution yield "" for undeclared
// locations, which downstream lookups then report as not registered.
func WithDefaultProvider(id string) Option {
	return func(r *Resolver) { r.defaultID = id }
}

// WithLogger routes resolution traces to log. The default discards them.
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New returns a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{log: logr.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns the configured default provider id.
func (r *Resolver) Default() string {
	return r.defaultID
}

// Entry resolves the provider governing one entry of an endpoint. For the
// five named kinds the entry name must exist in its collection; for body the
// name is ignored and an absent body simply resolves at endpoint scope, the
// body location being optional by construction.
func (r *Resolver) Entry(d *api.Description, endpoint string, kind api.EntryKind, entry string) (string, error) {
	ep, err := lookupEndpoint(d, endpoint)
	if err != nil {
		return "", err
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w %q", ErrInvalidKind, string(kind))
	}

	var entryMeta *api.Metadata
	if kind == api.EntryBody {
		if ep.Body != nil {
			entryMeta = ep.Body.Metadata
		}
	} else {
		entries, _ := ep.Entries(kind)
		param, ok := entries[entry]
		if !ok {
			return "", &UnknownEntryError{Endpoint: endpoint, Kind: kind, Entry: entry}
		}
		entryMeta = param.Metadata
	}

	id, origin := r.cascade(d, ep, entryMeta)
	r.log.V(1).Info("resolved provider",
		"endpoint", endpoint, "kind", kind, "entry", entry, "provider", id, "origin", origin)
	return id, nil
}

// Endpoint resolves the provider at endpoint scope, the form used when no
// entry is being asked about. The cascade starts at the endpoint's own
// metadata.
func (r *Resolver) Endpoint(d *api.Description, endpoint string) (string, error) {
	ep, err := lookupEndpoint(d, endpoint)
	if err != nil {
		return "", err
	}
	id, origin := r.cascade(d, ep, nil)
	r.log.V(1).Info("resolved provider",
		"endpoint", endpoint, "provider", id, "origin", origin)
	return id, nil
}

// cascade is the one authoritative precedence chain. entryMeta is nil when
// resolving at endpoint scope or for an absent body; the chain then starts
// one level up. The origin names the deciding level for diagnostics.
func (r *Resolver) cascade(d *api.Description, ep *api.Endpoint, entryMeta *api.Metadata) (id, origin string) {
	if id := entryMeta.ProviderID(); id != "" {
		return id, "entry"
	}
	if id := ep.Metadata.ProviderID(); id != "" {
		return id, "endpoint"
	}
	if id := d.Metadata.ProviderID(); id != "" {
		return id, "description"
	}
	return r.defaultID, "default"
}

func lookupEndpoint(d *api.Description, endpoint string) (*api.Endpoint, error) {
	if d == nil {
		return nil, ErrNilDescription
	}
	ep, ok := d.Endpoints[endpoint]
	if !ok || ep == nil {
		return nil, &UnknownEndpointError{Endpoint: endpoint}
	}
	return ep, nil
}

// EffectiveProvider resolves the provider governing one entry with an
// explicit default id, for callers that do not hold a Resolver.
func EffectiveProvider(d *api.Description, endpoint string, kind api.EntryKind, entry, defaultID string) (string, error) {
	r := Resolver{defaultID: defaultID, log: logr.Discard()}
	return r.Entry(d, endpoint, kind, entry)
}

// EndpointProvider resolves the provider at endpoint scope with an explicit
// default id.
func EndpointProvider(d *api.Description, endpoint, defaultID string) (string, error) {
	r := Resolver{defaultID: defaultID, log: logr.Discard()}
	return r.Endpoint(d, endpoint)
}

package resolve

import (
	"errors"
	"fmt"

	"github.com/specshape/specshape/api"
)

var (
	// ErrUnknownEndpoint matches resolutions naming an endpoint the
	// description does not declare.
	ErrUnknownEndpoint = errors.New("resolve: unknown endpoint")
	// ErrUnknownEntry matches resolutions naming an entry absent from its
	// named collection. Absent bodies do not produce it.
	ErrUnknownEntry = errors.New("resolve: unknown entry")
	// ErrInvalidKind is returned for entry kinds outside the defined set.
	ErrInvalidKind = errors.New("resolve: invalid entry kind")
	// ErrNilDescription is returned when no description is supplied.
	ErrNilDescription = errors.New("resolve: nil description")
)

// UnknownEndpointError carries the endpoint name that failed to resolve.
type UnknownEndpointError struct {
	Endpoint string
}

func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("resolve: unknown endpoint %q", e.Endpoint)
}

func (e *UnknownEndpointError) Is(target error) bool {
	return target == ErrUnknownEndpoint
}

// UnknownEntryError carries the location that failed to resolve.
type UnknownEntryError struct {
	Endpoint string
	Kind     api.EntryKind
	Entry    string
}

func (e *UnknownEntryError) Error() string {
	return fmt.Sprintf("resolve: endpoint %q has no %s entry %q", e.Endpoint, e.Kind, e.Entry)
}

func (e *UnknownEntryError) Is(target error) bool {
	return target == ErrUnknownEntry
}

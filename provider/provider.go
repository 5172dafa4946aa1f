// Package provider defines the schema provider contract and the registry
// that binds provider ids to implementations. A provider owns one schema
// dialect: it receives opaque schema operands from the projector and turns
// them into shapes. The registry is a plain constructible object; programs
// create one, register their providers, and pass it to whatever resolves
// against it. There is no package-level default.
package provider

import (
	"errors"
	"fmt"

	"github.com/specshape/specshape/shape"
)

var (
	// ErrNotFound matches lookups for ids with no registered provider.
	ErrNotFound = errors.New("provider: not registered")
	// ErrEmptyID is returned when registering under an empty id.
	ErrEmptyID = errors.New("provider: empty provider id")
	// ErrNilProvider is returned when registering a nil provider.
	ErrNilProvider = errors.New("provider: nil provider")
)

// Provider projects schema operands of one dialect into shapes.
//
// Operands arrive exactly as they appear in the description tree; when an
// entry carries no schema the entry itself is passed through, so
// implementations must tolerate operands that are not schemas at all.
// Projections must be deterministic and side-effect free: the projector
// relies on identical operands yielding equal shapes.
type Provider interface {
	// ProjectInput returns the shape of values accepted at the location,
	// before validation and defaulting.
	ProjectInput(operand any) (shape.Shape, error)
	// ProjectOutput returns the shape of values produced at the location,
	// after validation and defaulting.
	ProjectOutput(operand any) (shape.Shape, error)
}

// NotFoundError reports a lookup for an id no provider was registered under.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("provider: %q is not registered", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

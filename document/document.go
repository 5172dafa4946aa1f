// Package document reads API description documents from YAML or JSON and
// builds the in-memory model the resolver and projector work on.
//
// A document names its endpoints, the entries inside each endpoint, the
// schema node bound to each entry, and optional metadata at every level:
//
//	version: 1
//	metadata:
//	  schemaType: openapi
//	endpoints:
//	  getUser:
//	    metadata:
//	      schemaType: gotype
//	    params:
//	      id:
//	        schema: {type: string}
//
// Schema nodes are kept as the raw decoded value; interpreting them is the
// job of whichever provider the metadata cascade selects. For the same
// reason the loader does not check that a schemaType names a registered
// provider. Absent metadata stays absent so resolution can fall through to
// the enclosing level.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specshape/specshape/api"
)

// ErrorCode categorizes document errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// DocumentError is a structured error with an optional source location.
type DocumentError struct {
	Code     ErrorCode
	Message  string
	Location string // file path, empty when parsing raw bytes
	Cause    error
}

func (e *DocumentError) Error() string { return e.Message }
func (e *DocumentError) Unwrap() error { return e.Cause }

// Load reads and parses a description document from a filesystem path.
func Load(path string) (*api.Description, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &DocumentError{Code: InputError, Message: "document: path is empty"}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &DocumentError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &DocumentError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}

	desc, err := Parse(raw)
	if err != nil {
		var derr *DocumentError
		if errors.As(err, &derr) && derr.Location == "" {
			derr.Location = abs
		}
		return nil, err
	}
	return desc, nil
}

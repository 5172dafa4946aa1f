package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/document"
	"github.com/specshape/specshape/provider"
)

// location identifies one schema-bearing place in a description.
type location struct {
	Endpoint string
	Kind     api.EntryKind
	Entry    string
}

// collectLocations lists the description's locations in stable order:
// endpoints alphabetically, kinds in declaration order with the body last,
// entries alphabetically. The filters narrow the walk.
func collectLocations(desc *api.Description, endpoint string, kind api.EntryKind, entry string) ([]location, error) {
	endpoints := desc.EndpointNames()
	if endpoint != "" {
		if _, ok := desc.Endpoints[endpoint]; !ok {
			return nil, usageErrorf("endpoint %q not found in document (known: %s)", endpoint, strings.Join(endpoints, ", "))
		}
		endpoints = []string{endpoint}
	}

	var locs []location
	for _, name := range endpoints {
		ep := desc.Endpoints[name]
		for _, k := range api.EntryKinds() {
			if kind != "" && k != kind {
				continue
			}
			if k == api.EntryBody {
				if ep.Body != nil && entry == "" {
					locs = append(locs, location{Endpoint: name, Kind: k})
				}
				continue
			}
			for _, e := range ep.EntryNames(k) {
				if entry != "" && e != entry {
					continue
				}
				locs = append(locs, location{Endpoint: name, Kind: k, Entry: e})
			}
		}
	}

	if entry != "" && len(locs) == 0 {
		return nil, usageErrorf("no %s entry named %q in the selected endpoints", kind, entry)
	}
	return locs, nil
}

// displayEntry renders the entry column; the body has no entry name.
func (l location) displayEntry() string {
	if l.Kind == api.EntryBody {
		return "-"
	}
	return l.Entry
}

// loadDocument reads the description document, mapping structured document
// errors into friendly messages.
func loadDocument(path string) (*api.Description, error) {
	desc, err := document.Load(path)
	if err != nil {
		return nil, mapDocumentError(err)
	}
	return desc, nil
}

// mapDocumentError rewrites a structured document error into a friendly
// message with its location on a separate line. Other errors pass through.
func mapDocumentError(err error) error {
	var derr *document.DocumentError
	if errors.As(err, &derr) {
		msg := derr.Message
		if derr.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, derr.Location)
		}
		return newUsageError(msg)
	}
	return err
}

// mapProjectionError turns a missing-provider failure into a usage error
// that names the providers the registry actually has.
func mapProjectionError(err error, reg *provider.Registry) error {
	var nf *provider.NotFoundError
	if errors.As(err, &nf) {
		return usageErrorf("provider %q is not registered (available: %s)", nf.ID, strings.Join(reg.IDs(), ", "))
	}
	return err
}

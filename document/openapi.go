package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// OpenAPISettings configures how OpenAPI source documents are fetched for
// import.
type OpenAPISettings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs permits file:// external references when the root input
	// is a URL. Local file inputs may always reference sibling files.
	AllowFileRefs bool
}

// DefaultOpenAPISettings returns recommended defaults.
func DefaultOpenAPISettings() OpenAPISettings {
	return OpenAPISettings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// OpenAPIOption mutates OpenAPISettings.
type OpenAPIOption func(*OpenAPISettings)

func WithHTTPTimeout(d time.Duration) OpenAPIOption {
	return func(s *OpenAPISettings) { s.HTTPTimeout = d }
}

func WithMaxRetries(n int) OpenAPIOption {
	return func(s *OpenAPISettings) { s.MaxRetries = n }
}

func WithBackoffBase(d time.Duration) OpenAPIOption {
	return func(s *OpenAPISettings) { s.BackoffBase = d }
}

func WithAllowFileRefs(allow bool) OpenAPIOption {
	return func(s *OpenAPISettings) { s.AllowFileRefs = allow }
}

// LoadOpenAPI reads an OpenAPI document for import. The input may be a
// filesystem path or an http/https URL; file:// URLs are blocked. Swagger
// v2.0 inputs are converted to v3 via kin-openapi before import.
//
// Validation runs in permissive mode: unresolved external refs do not fail
// the load, the affected schemas simply import as unconstrained.
func LoadOpenAPI(ctx context.Context, input string, opts ...OpenAPIOption) (*openapi3.T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &DocumentError{Code: InputError, Message: "openapi: input is empty"}
	}

	settings := DefaultOpenAPISettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &DocumentError{Code: InputError, Message: "openapi: file:// URLs are blocked", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &DocumentError{Code: InputError, Message: fmt.Sprintf("openapi: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}

		// Fetch head bytes to detect the version reliably.
		raw, fetchErr := fetchWithRetry(ctx, input, settings)
		if fetchErr != nil {
			return nil, &DocumentError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, fetchErr), Location: input, Cause: fetchErr}
		}

		version, derr := detectOpenAPIVersion(raw)
		if derr != nil {
			return nil, &DocumentError{Code: ParseError, Message: derr.Error(), Location: input, Cause: derr}
		}

		switch version {
		case 3:
			// Load through the URI so relative external refs resolve
			// against the document's base URL.
			loader := newOpenAPILoader(settings, false)
			doc, err := loader.LoadFromURI(u)
			if err != nil {
				return nil, mapOpenAPIError(err, input)
			}
			return validatePermissive(ctx, doc, input)
		case 2:
			doc, err := convertV2ToV3(raw)
			if err != nil {
				return nil, &DocumentError{Code: ConversionError, Message: fmt.Sprintf("convert v2 to v3: %v", err), Location: input, Cause: err}
			}
			// Refs that fail to resolve import as unconstrained schemas.
			_ = newOpenAPILoader(settings, false).ResolveRefsIn(doc, nil)
			return validatePermissive(ctx, doc, input)
		default:
			return nil, &DocumentError{Code: ParseError, Message: "openapi: unknown or unsupported OpenAPI/Swagger version", Location: input}
		}
	}

	// Treat as a local filesystem path.
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &DocumentError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, rerr := os.ReadFile(abs)
	if rerr != nil {
		return nil, &DocumentError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, rerr), Location: abs, Cause: rerr}
	}

	version, derr := detectOpenAPIVersion(raw)
	if derr != nil {
		return nil, &DocumentError{Code: ParseError, Message: derr.Error(), Location: abs, Cause: derr}
	}

	switch version {
	case 3:
		loader := newOpenAPILoader(settings, true)
		doc, err := loader.LoadFromFile(abs)
		if err != nil {
			return nil, mapOpenAPIError(err, abs)
		}
		return validatePermissive(ctx, doc, abs)
	case 2:
		doc, cerr := convertV2ToV3(raw)
		if cerr != nil {
			return nil, &DocumentError{Code: ConversionError, Message: fmt.Sprintf("convert v2 to v3: %v", cerr), Location: abs, Cause: cerr}
		}
		_ = newOpenAPILoader(settings, true).ResolveRefsIn(doc, nil)
		return validatePermissive(ctx, doc, abs)
	default:
		return nil, &DocumentError{Code: ParseError, Message: "openapi: unknown or unsupported OpenAPI/Swagger version", Location: abs}
	}
}

func validatePermissive(ctx context.Context, doc *openapi3.T, location string) (*openapi3.T, error) {
	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, mapOpenAPIError(err, location)
	}
	return doc, nil
}

func newOpenAPILoader(settings OpenAPISettings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			req, err := http.NewRequest(http.MethodGet, uri.String(), nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectOpenAPIVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else an
// error.
func detectOpenAPIVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse openapi document: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, errors.New("openapi: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings OpenAPISettings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			defer resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == 429 {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// mapOpenAPIError converts kin-openapi load and validation failures into a
// DocumentError, folding the first JSON pointer into the message when one
// is available.
func mapOpenAPIError(err error, location string) error {
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	msg := err.Error()
	if ptr := extractJSONPointer(err); ptr != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, ptr)
	}
	return &DocumentError{Code: code, Message: msg, Location: location, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation reports whether a best-effort import can
// continue, e.g. when external refs stayed unresolved.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"gopkg.in/yaml.v3"
)

// fileConfig holds every key a specshape config file may carry. Commands
// pick the fields they care about, so one file can drive inspect, shapes,
// providers, and import alike.
type fileConfig struct {
	Doc         string
	Endpoint    string
	Kind        string
	Entry       string
	Default     string
	Input       string
	Out         string
	IncludeTags []string
	ExcludeTags []string
	JSON        bool
	Debug       bool
	Force       bool
	Verbose     bool
}

// parseFileConfig loads a YAML or JSON config file. Unknown keys are
// rejected so typos surface instead of silently falling back to defaults.
func parseFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, usageErrorf("parse config file %q: %v", path, err)
	}

	var cfg fileConfig
	for key, value := range raw {
		switch normalizeKey(key) {
		case "doc", "document":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Doc = str
		case "endpoint":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Endpoint = str
		case "kind":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Kind = str
		case "entry":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Entry = str
		case "default", "defaultprovider":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Default = str
		case "input":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Input = str
		case "out", "output":
			str, err := valueAsString(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Out = str
		case "includetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.IncludeTags = list
		case "excludetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.ExcludeTags = list
		case "json":
			val, err := valueAsBool(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.JSON = val
		case "debug":
			val, err := valueAsBool(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Debug = val
		case "force":
			val, err := valueAsBool(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Force = val
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return nil, usageErrorf("config field %q: %v", key, err)
			}
			cfg.Verbose = val
		default:
			return nil, usageErrorf("config file %q: unknown field %q", path, key)
		}
	}

	return &cfg, nil
}

// normalizeKey folds case and separators so configs accept doc, Doc,
// default-provider, default_provider, and friends interchangeably.
func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0", "":
			return false, nil
		}
		return false, fmt.Errorf("expected bool, got %q", val)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

// newRunLogger returns the logger for a command run. Verbose mode surfaces
// the V(1) resolution decisions the library logs, one line per event.
func newRunLogger(verbose bool, w io.Writer) logr.Logger {
	if !verbose {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1})
}

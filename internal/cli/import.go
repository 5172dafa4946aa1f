package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/specshape/specshape/document"
)

// ImportConfig captures the options for the import command after merging
// config file values and CLI overrides.
type ImportConfig struct {
	Input       string
	Out         string
	IncludeTags []string
	ExcludeTags []string
	ConfigPath  string
	Force       bool
	Verbose     bool
}

var importRunner = runImport

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert an OpenAPI or Swagger document into a description document",
		Long: "Import reads an OpenAPI v3 or Swagger v2 document from a file or URL and " +
			"converts every operation into a description endpoint, with parameters, request " +
			"bodies, and responses mapped onto the matching entry kinds. The result projects " +
			"through the openapi provider.",
		Example: strings.TrimSpace(`  specshape import --input petstore.yaml --out api.yaml
  specshape import --input https://example.com/openapi.json
  specshape import --input petstore.yaml --include-tags users,orders`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveImportConfig(cmd)
			if err != nil {
				return err
			}
			return importRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "OpenAPI document to import (file path or http/https URL)")
	flags.String("out", "", "Where to write the description document (default: stdout)")
	flags.StringSlice("include-tags", nil, "Only import operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Skip operations with these tags")
	flags.Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func resolveImportConfig(cmd *cobra.Command) (*ImportConfig, error) {
	var cfg ImportConfig

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		fc, err := parseFileConfig(configPath)
		if err != nil {
			return nil, err
		}
		if fc.Input != "" {
			cfg.Input = fc.Input
		}
		if fc.Out != "" {
			cfg.Out = fc.Out
		}
		if len(fc.IncludeTags) > 0 {
			cfg.IncludeTags = fc.IncludeTags
		}
		if len(fc.ExcludeTags) > 0 {
			cfg.ExcludeTags = fc.ExcludeTags
		}
		cfg.Force = fc.Force
		cfg.Verbose = fc.Verbose
	}

	if err := applyImportFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyImportFlagOverrides(flags *pflag.FlagSet, cfg *ImportConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("include-tags") {
		value, err := flags.GetStringSlice("include-tags")
		if err != nil {
			return err
		}
		cfg.IncludeTags = value
	}
	if flags.Changed("exclude-tags") {
		value, err := flags.GetStringSlice("exclude-tags")
		if err != nil {
			return err
		}
		cfg.ExcludeTags = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	return nil
}

func (c *ImportConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *ImportConfig) validate() error {
	if c.Input == "" {
		return newUsageError("import: --input is required (set via flag or config file)")
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usageErrorf("import: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}
	return nil
}

func runImport(ctx context.Context, cfg *ImportConfig, stdout io.Writer) error {
	log := newRunLogger(cfg.Verbose, os.Stderr)

	doc, err := document.LoadOpenAPI(ctx, cfg.Input)
	if err != nil {
		return mapDocumentError(err)
	}
	log.V(1).Info("loaded openapi document", "input", cfg.Input)

	desc, err := document.FromOpenAPI(doc,
		document.WithIncludeTags(cfg.IncludeTags),
		document.WithExcludeTags(cfg.ExcludeTags),
	)
	if err != nil {
		return mapDocumentError(err)
	}
	if len(desc.Endpoints) == 0 {
		return newUsageError("import: no operations matched the requested filters")
	}
	log.V(1).Info("converted operations", "endpoints", len(desc.Endpoints))

	data, err := document.Marshal(desc)
	if err != nil {
		return mapDocumentError(err)
	}

	if cfg.Out == "" {
		_, err := stdout.Write(data)
		return err
	}

	absPath, err := filepath.Abs(cfg.Out)
	if err != nil {
		return fmt.Errorf("import: resolve output path: %w", err)
	}
	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("import: %q already exists (use --force to overwrite)", absPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usageErrorf("import: cannot create parent directory: %v", err)
	}

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return usageErrorf("import: cannot write temp file: %v", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usageErrorf("import: cannot place file at %s: %v", absPath, err)
	}

	fmt.Fprintf(stdout, "Imported %d endpoints to %s\n", len(desc.Endpoints), absPath)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/specshape/specshape"
	"github.com/specshape/specshape/resolve"
)

// InspectConfig captures all inputs that influence the inspect command
// after merging defaults, config file values, and CLI overrides.
type InspectConfig struct {
	Doc        string
	Endpoint   string
	Default    string
	ConfigPath string
	Verbose    bool
}

var inspectRunner = runInspect

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show which schema provider governs each location of a document",
		Long: "Inspect walks every parameter, query, header, cookie, response, and body " +
			"of an API description document and reports the provider the metadata cascade " +
			"selects for it. No providers need to be registered; this is a pure resolution view.",
		Example: strings.TrimSpace(`  specshape inspect --doc api.yaml
  specshape inspect --doc api.yaml --endpoint getUser --default gotype`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveInspectConfig(cmd)
			if err != nil {
				return err
			}
			return inspectRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("doc", "", "Path to the API description document (YAML or JSON)")
	flags.String("endpoint", "", "Only inspect this endpoint")
	flags.String("default", "", "Provider used when no metadata level declares one")

	return cmd
}

func resolveInspectConfig(cmd *cobra.Command) (*InspectConfig, error) {
	cfg := InspectConfig{Default: specshape.DefaultProviderID}

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
		if fc.Doc != "" {
			cfg.Doc = fc.Doc
		}
		if fc.Endpoint != "" {
			cfg.Endpoint = fc.Endpoint
		}
		if fc.Default != "" {
			cfg.Default = fc.Default
		}
		cfg.Verbose = fc.Verbose
	}

	if err := applyInspectFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.Doc = strings.TrimSpace(cfg.Doc)
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Default = strings.TrimSpace(cfg.Default)
	if cfg.Doc == "" {
		return nil, newUsageError("inspect: --doc is required (set via flag or config file)")
	}

	return &cfg, nil
}

func applyInspectFlagOverrides(flags *pflag.FlagSet, cfg *InspectConfig) error {
	if flags.Changed("doc") {
		value, err := flags.GetString("doc")
		if err != nil {
			return err
		}
		cfg.Doc = strings.TrimSpace(value)
	}
	if flags.Changed("endpoint") {
		value, err := flags.GetString("endpoint")
		if err != nil {
			return err
		}
		cfg.Endpoint = strings.TrimSpace(value)
	}
	if flags.Changed("default") {
		value, err := flags.GetString("default")
		if err != nil {
			return err
		}
		cfg.Default = strings.TrimSpace(value)
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

func runInspect(ctx context.Context, cfg *InspectConfig, out io.Writer) error {
	_ = ctx

	desc, err := loadDocument(cfg.Doc)
	if err != nil {
		return err
	}

	locs, err := collectLocations(desc, cfg.Endpoint, "", "")
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		fmt.Fprintln(out, "document has no schema locations")
		return nil
	}

	resolver := resolve.New(
		resolve.WithDefaultProvider(cfg.Default),
		resolve.WithLogger(newRunLogger(cfg.Verbose, os.Stderr)),
	)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tKIND\tENTRY\tPROVIDER")
	for _, loc := range locs {
		id, err := resolver.Entry(desc, loc.Endpoint, loc.Kind, loc.Entry)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", loc.Endpoint, loc.Kind, loc.displayEntry(), id)
	}
	return w.Flush()
}

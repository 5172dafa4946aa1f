package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/specshape/specshape"
	"github.com/specshape/specshape/api"
	"github.com/specshape/specshape/shape"
)

// ShapesConfig captures all inputs that influence the shapes command after
// merging defaults, config file values, and CLI overrides.
type ShapesConfig struct {
	Doc        string
	Endpoint   string
	Kind       string
	Entry      string
	Default    string
	ConfigPath string
	JSON       bool
	Debug      bool
	Verbose    bool
}

// shapeRow is one projected location, as printed or marshalled.
type shapeRow struct {
	Endpoint string `json:"endpoint"`
	Kind     string `json:"kind"`
	Entry    string `json:"entry,omitempty"`
	Provider string `json:"provider"`
	Input    string `json:"input"`
	Output   string `json:"output"`
}

var shapesRunner = runShapes

func newShapesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shapes",
		Short: "Project the schemas of a document into input and output shapes",
		Long: "Shapes resolves the governing provider for each location of an API " +
			"description document and projects the location's schema into the shape a " +
			"caller may supply and the shape the system yields.",
		Example: strings.TrimSpace(`  specshape shapes --doc api.yaml
  specshape shapes --doc api.yaml --endpoint getUser --kind params --entry id
  specshape shapes --doc api.yaml --json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveShapesConfig(cmd)
			if err != nil {
				return err
			}
			return shapesRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("doc", "", "Path to the API description document (YAML or JSON)")
	flags.String("endpoint", "", "Only project this endpoint")
	flags.String("kind", "", "Only project this entry kind (params|query|headers|cookies|responses|body)")
	flags.String("entry", "", "Only project this entry (requires --kind)")
	flags.String("default", "", "Provider used when no metadata level declares one")
	flags.Bool("json", false, "Emit rows as JSON instead of a table")
	flags.Bool("debug", false, "Dump the projected shape values after the table")

	return cmd
}

func resolveShapesConfig(cmd *cobra.Command) (*ShapesConfig, error) {
	cfg := ShapesConfig{Default: specshape.DefaultProviderID}

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
		if fc.Kind != "" {
			cfg.Kind = fc.Kind
		}
		if fc.Entry != "" {
			cfg.Entry = fc.Entry
		}
		if fc.Default != "" {
			cfg.Default = fc.Default
		}
		cfg.JSON = fc.JSON
		cfg.Debug = fc.Debug
		cfg.Verbose = fc.Verbose
	}

	if err := applyShapesFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyShapesFlagOverrides(flags *pflag.FlagSet, cfg *ShapesConfig) error {
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
	if flags.Changed("kind") {
		value, err := flags.GetString("kind")
		if err != nil {
			return err
		}
		cfg.Kind = strings.TrimSpace(value)
	}
	if flags.Changed("entry") {
		value, err := flags.GetString("entry")
		if err != nil {
			return err
		}
		cfg.Entry = strings.TrimSpace(value)
	}
	if flags.Changed("default") {
		value, err := flags.GetString("default")
		if err != nil {
			return err
		}
		cfg.Default = strings.TrimSpace(value)
	}
	if flags.Changed("json") {
		value, err := flags.GetBool("json")
		if err != nil {
			return err
		}
		cfg.JSON = value
	}
	if flags.Changed("debug") {
		value, err := flags.GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = value
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

func (c *ShapesConfig) normalize() {
	c.Doc = strings.TrimSpace(c.Doc)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.Entry = strings.TrimSpace(c.Entry)
	c.Default = strings.TrimSpace(c.Default)
}

func (c *ShapesConfig) validate() error {
	if c.Doc == "" {
		return newUsageError("shapes: --doc is required (set via flag or config file)")
	}
	if c.Kind != "" && !api.EntryKind(c.Kind).Valid() {
		kinds := make([]string, 0, len(api.EntryKinds()))
		for _, k := range api.EntryKinds() {
			kinds = append(kinds, string(k))
		}
		return usageErrorf("shapes: unsupported --kind %q (allowed: %s)", c.Kind, strings.Join(kinds, ", "))
	}
	if c.Entry != "" {
		if c.Kind == "" {
			return newUsageError("shapes: --entry requires --kind")
		}
		if api.EntryKind(c.Kind) == api.EntryBody {
			return newUsageError("shapes: --entry does not apply to the body")
		}
	}
	return nil
}

func runShapes(ctx context.Context, cfg *ShapesConfig, out io.Writer) error {
	_ = ctx

	desc, err := loadDocument(cfg.Doc)
	if err != nil {
		return err
	}

	locs, err := collectLocations(desc, cfg.Endpoint, api.EntryKind(cfg.Kind), cfg.Entry)
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		fmt.Fprintln(out, "document has no schema locations")
		return nil
	}

	engine := specshape.New(
		specshape.WithDefaultProvider(cfg.Default),
		specshape.WithLogger(newRunLogger(cfg.Verbose, os.Stderr)),
	)

	rows := make([]shapeRow, 0, len(locs))
	values := make([]struct{ in, out shape.Shape }, 0, len(locs))
	for _, loc := range locs {
		id, err := engine.EffectiveProvider(desc, loc.Endpoint, loc.Kind, loc.Entry)
		if err != nil {
			return err
		}
		in, err := engine.InputShape(desc, loc.Endpoint, loc.Kind, loc.Entry)
		if err != nil {
			return mapProjectionError(err, engine.Registry())
		}
		outShape, err := engine.OutputShape(desc, loc.Endpoint, loc.Kind, loc.Entry)
		if err != nil {
			return mapProjectionError(err, engine.Registry())
		}
		rows = append(rows, shapeRow{
			Endpoint: loc.Endpoint,
			Kind:     string(loc.Kind),
			Entry:    loc.Entry,
			Provider: id,
			Input:    in.String(),
			Output:   outShape.String(),
		})
		values = append(values, struct{ in, out shape.Shape }{in, outShape})
	}

	if cfg.JSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encode rows: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tKIND\tENTRY\tPROVIDER\tINPUT\tOUTPUT")
	for i, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Endpoint, row.Kind, locs[i].displayEntry(), row.Provider, row.Input, row.Output)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.Debug {
		for i, row := range rows {
			fmt.Fprintf(out, "\n# %s %s %s\n", row.Endpoint, row.Kind, locs[i].displayEntry())
			spew.Fdump(out, values[i].in, values[i].out)
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/specshape/specshape"
)

// ProvidersConfig captures the options for the providers command.
type ProvidersConfig struct {
	Default    string
	ConfigPath string
}

var providersRunner = runProviders

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the built-in schema providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveProvidersConfig(cmd)
			if err != nil {
				return err
			}
			return providersRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("default", "", "Provider to mark as the default")

	return cmd
}

func resolveProvidersConfig(cmd *cobra.Command) (*ProvidersConfig, error) {
	cfg := ProvidersConfig{Default: specshape.DefaultProviderID}

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
		if fc.Default != "" {
			cfg.Default = fc.Default
		}
	}

	if cmd.Flags().Changed("default") {
		value, err := cmd.Flags().GetString("default")
		if err != nil {
			return nil, err
		}
		cfg.Default = strings.TrimSpace(value)
	}

	return &cfg, nil
}

func runProviders(ctx context.Context, cfg *ProvidersConfig, out io.Writer) error {
	_ = ctx

	reg := specshape.DefaultRegistry()
	ids := reg.IDs()
	if !reg.Has(cfg.Default) {
		return usageErrorf("default provider %q is not registered (available: %s)", cfg.Default, strings.Join(ids, ", "))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tDEFAULT")
	for _, id := range ids {
		mark := ""
		if id == cfg.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", id, mark)
	}
	return w.Flush()
}

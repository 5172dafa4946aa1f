package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample API description document",
		Long:  "Scaffold a commented API description document that shows how provider metadata cascades from the document through endpoints down to single entries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
			}
			return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", "specshape.yaml", "Where to write the sample document")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, stdout io.Writer) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "specshape.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usageErrorf("init: cannot create parent directory: %v", err)
	}

	content := strings.TrimSpace(sampleDocumentYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return usageErrorf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usageErrorf("init: cannot place file at %s: %v", absPath, err)
	}
	fmt.Fprintf(stdout, "Wrote sample document to %s\n", absPath)
	return nil
}

// sampleDocumentYAML is a commented example document showing the metadata
// cascade across all three declaration levels.
const sampleDocumentYAML = `# specshape API description (YAML)
# Every location resolves its schema provider through a cascade:
# entry metadata, then endpoint metadata, then this document metadata,
# then the engine default (openapi unless configured otherwise).
version: 1

# Document-wide default dialect.
metadata:
  schemaType: openapi

endpoints:
  getUser:
    params:
      id:
        schema: {type: string}
    query:
      expand:
        # Entry-level override: this one location uses the gotype dialect.
        metadata:
          schemaType: gotype
        schema: {type: string}
    responses:
      "200":
        schema:
          type: object
          required: [id, name]
          properties:
            id: {type: integer}
            name: {type: string}

  createUser:
    # Endpoint-level override would go here:
    # metadata:
    #   schemaType: gotype
    body:
      schema:
        type: object
        required: [name]
        properties:
          name: {type: string}
          role: {type: string, default: user}
`

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/john-wilkinson/pym/pkg/pipeline"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    resolveFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph [specifier...]",
		Short: "Print the resolved dependency graph",
		Long: `Resolve the project's dependencies without installing them and print the
graph as Graphviz DOT, SVG or JSON. Edges that close a cycle are drawn
dashed. JSON output also lists conflicts and fetch failures.`,
		Example: `  pym graph
  pym graph --format svg -o deps.svg
  pym graph --format json | jq '.diagnostics'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, flags)
			if err != nil {
				return err
			}
			defer runner.Close()
			defer runner.Cleanup(c.dir)

			var res *pipeline.Resolution
			if len(args) > 0 {
				res, err = runner.ResolveSpecifiers(ctx, c.dir, args)
			} else {
				res, err = runner.Resolve(ctx, c.dir)
			}
			if err != nil {
				return err
			}
			// stdout may carry the graph itself, so diagnostics go to the log.
			for _, d := range res.Diagnostics {
				c.Logger.Warn(d.String())
			}

			data, err := pipeline.Render(ctx, res, format, detailed)
			if err != nil {
				return err
			}
			if output == "" {
				if _, err := stdout.Write(data); err != nil {
					return err
				}
			} else {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("Wrote %s graph", format)
				printFile(output)
			}

			if res.Fatal() {
				return fmt.Errorf("%d unresolved dependencies", len(res.Diagnostics.Fatal()))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot, svg or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include depth and source in node labels")

	return cmd
}

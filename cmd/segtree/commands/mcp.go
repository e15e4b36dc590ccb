package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/segtree/pkg/mcp"
	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug          bool
		maxCoordinates int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes one interval-coverage engine as tools that AI agents
can discover and invoke:
  - segtree_reset: Load a coordinate set
  - segtree_add_segment / segtree_remove_segment: Record or undo a segment
  - segtree_union: Covered parts of a range
  - segtree_stats: Covered length and overlap extremes
  - segtree_contains: Overlap count at a point
  - segtree_profile: Overlap count per elementary interval
  - segtree_segments: Recorded segments overlapping a range`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			providers, err := initEnvObservability(observability.ModeMCP, debug, true)
			if err != nil {
				return err
			}

			defer shutdown(providers)

			svc, _, err := newService(providers, maxCoordinates)
			if err != nil {
				return err
			}

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Service: svc,
				Version: version.Version,
				Logger:  providers.Logger,
				Metrics: red,
				Tracer:  providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().IntVar(&maxCoordinates, "max-coordinates", 0, "reject coordinate sets larger than this (0: unlimited)")

	return cmd
}

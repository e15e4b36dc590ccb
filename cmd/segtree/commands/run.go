package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/segtree/pkg/observability"
	"github.com/Sumatoshi-tech/segtree/pkg/report"
	"github.com/Sumatoshi-tech/segtree/pkg/workload"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	format  string
	plot    string
	theme   string
	noColor bool
	debug   bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var ro runOptions

	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Replay a workload file and report coverage",
		Long: `Build an engine over the workload coordinates, add every segment, remove
every removal, then answer the union queries and point lookups.

Examples:
  segtree run workload.yaml
  segtree run workload.yaml --format json
  segtree run workload.yaml --plot coverage.html --theme light`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&ro.format, "format", "f", string(report.FormatTable), "output format: table, json or yaml")
	cmd.Flags().StringVar(&ro.plot, "plot", "", "write an HTML overlap chart to this file")
	cmd.Flags().StringVar(&ro.theme, "theme", string(report.ThemeDark), "chart theme: dark or light")
	cmd.Flags().BoolVar(&ro.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&ro.debug, "debug", false, "enable debug logging and full trace sampling")

	return cmd
}

func (ro *runOptions) run(cmd *cobra.Command, path string) error {
	format, err := report.ParseFormat(ro.format)
	if err != nil {
		return err
	}

	theme, err := report.ParseTheme(ro.theme)
	if err != nil {
		return err
	}

	w, err := workload.Load(path)
	if err != nil {
		return err
	}

	providers, err := initEnvObservability(observability.ModeRun, ro.debug, false)
	if err != nil {
		return err
	}

	defer shutdown(providers)

	svc, _, err := newService(providers, 0)
	if err != nil {
		return err
	}

	res, err := workload.Run(cmd.Context(), svc, w)
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}

	out := cmd.OutOrStdout()

	err = report.Write(out, res, report.Options{Format: format, Color: ro.colorEnabled(out)})
	if err != nil {
		return err
	}

	if ro.plot == "" {
		return nil
	}

	return writePlot(ro.plot, res, theme)
}

// colorEnabled honours --no-color and the terminal detection of fatih/color.
// Output that is not the process stdout is never colored.
func (ro *runOptions) colorEnabled(out io.Writer) bool {
	return !ro.noColor && !color.NoColor && out == os.Stdout
}

func writePlot(path string, res *workload.Result, theme report.Theme) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	err = report.WriteChart(f, res, theme)
	if err != nil {
		_ = f.Close()

		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close plot: %w", err)
	}

	return nil
}

package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/segtree/pkg/workload"
)

// ErrValidationFailed indicates a workload file with schema violations.
var ErrValidationFailed = errors.New("workload validation failed")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <workload.yaml>",
		Short: "Validate a workload file against the workload schema",
		Long: `Validate a workload file against the embedded workload JSON schema.

Exits with status 2 when the file has schema violations.

Examples:
  segtree validate workload.yaml
  segtree validate --no-color workload.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], colorize && !nocolor)
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", true, "colored output when the terminal supports it")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, colorize bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read workload: %w", err)
	}

	problems, err := workload.Validate(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	if !colorize || color.NoColor {
		ok.DisableColor()
		bad.DisableColor()
	}

	out := cmd.OutOrStdout()

	if len(problems) == 0 {
		ok.Fprintf(out, "Workload is valid (%s)\n", path)

		return nil
	}

	bad.Fprintf(out, "Workload validation failed (%s)\n", path)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, p := range problems {
		bad.Fprintf(out, "  - %s\n", p)
	}

	return fmt.Errorf("%w: %s: %d problems", ErrValidationFailed, path, len(problems))
}

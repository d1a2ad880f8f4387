package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keyforge/dispatch/internal/output"
)

// OutputFlags selects how structured results are rendered.
type OutputFlags struct {
	Format string
}

// AddTo registers the output flag on the given cobra command.
func (f *OutputFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Format, "output", "o", "table", "Output format: table, json, yaml")
}

// Parse returns the selected format.
func (f *OutputFlags) Parse() (output.Format, error) {
	format, err := output.ParseFormat(f.Format)
	if err != nil {
		return "", NewExitError(err, ExitValidationError)
	}
	return format, nil
}

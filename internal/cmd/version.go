package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyforge/dispatch/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(g *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show dispatch version information.

Displays:
  - dispatch version, commit, and build date
  - the worker tool (worker.command) and whether its version is supported`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			command := "docker-compose"
			if cfg, err := g.requireConfig(); err == nil {
				command = cfg.Worker.Command
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.FullVersionString(version.Get(), version.DetectTool(command)))
			return nil
		},
	}
}

package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keyforge/dispatch/internal/config"
	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/stats"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd(g *GlobalConfig) *cobra.Command {
	var flags OutputFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded build requests",
		Long: `Summarize the build requests recorded in the stats database
(stats.path in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, g, &flags)
		},
	}
	flags.AddTo(cmd)
	return cmd
}

func runStats(cmd *cobra.Command, g *GlobalConfig, flags *OutputFlags) error {
	format, err := flags.Parse()
	if err != nil {
		return err
	}
	cfg, err := g.requireConfig()
	if err != nil {
		return err
	}
	if cfg.Stats.Path == "" {
		return oerrors.NewValidationError("stats are disabled", g.ConfigPath.Value, "stats.path",
			"Set stats.path in the config file.")
	}
	path := config.ExpandTilde(cfg.Stats.Path)
	if _, err := os.Stat(path); err != nil {
		return oerrors.NewNotFoundError("stats database not found", path, "Run `dispatch serve` to record requests.")
	}

	sink, err := stats.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	summary, err := sink.Summarize(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.Encode(out, format, summary)
	}

	fmt.Fprintln(out, output.StyleSummary.Render(fmt.Sprintf(
		"%d requests, %d succeeded, %d joined a running build",
		summary.Requests, summary.Successes, summary.Joined)))

	boards := make([]string, 0, len(summary.Boards))
	for b := range summary.Boards {
		boards = append(boards, b)
	}
	slices.Sort(boards)

	tbl := output.NewTable("BOARD", "REQUESTS")
	for _, b := range boards {
		tbl.Row(b, strconv.Itoa(summary.Boards[b]))
	}
	if tbl.Len() > 0 {
		fmt.Fprintln(out, tbl.String())
	}
	return nil
}

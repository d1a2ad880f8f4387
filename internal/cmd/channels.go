package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/versions"
)

type channelsFlags struct {
	output OutputFlags
	check  bool
}

// NewChannelsCmd creates the channels command.
func NewChannelsCmd(g *GlobalConfig) *cobra.Command {
	var flags channelsFlags

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List firmware channels and their build containers",
		Long: `List the firmware channels a build request may name in "env", with the
container that compiles each one.

Channels come from the config file, the versions file, and release tags of
the controller repository, in that order.

Examples:
  dispatch channels
  dispatch channels --check -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChannels(cmd, g, &flags)
		},
	}

	flags.output.AddTo(cmd)
	cmd.Flags().BoolVar(&flags.check, "check", false, "Check containers against the compose file")

	return cmd
}

func runChannels(cmd *cobra.Command, g *GlobalConfig, flags *channelsFlags) error {
	format, err := flags.output.Parse()
	if err != nil {
		return err
	}
	cfg, err := g.requireConfig()
	if err != nil {
		return err
	}

	var lister containerLister
	if flags.check {
		lister = newRunner(cfg)
	}
	registry, err := newRegistry(cmd.Context(), cfg, lister)
	if err != nil {
		return err
	}

	channels := registry.Channels()
	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		byName := make(map[string]versions.Channel, len(channels))
		for _, ch := range channels {
			byName[ch.Name] = ch
		}
		return output.Encode(out, format, byName)
	}

	available := registry.Available()
	tbl := output.NewTable("CHANNEL", "CONTAINER", "MODE", "SOURCE", "TAG", "AVAILABLE")
	for _, ch := range channels {
		mode := output.StatusCurrent
		if ch.Legacy {
			mode = output.StatusLegacy
		}
		avail := "-"
		if available != nil {
			avail = strconv.FormatBool(available[ch.Container])
		}
		tag := ch.Tag
		if tag == "" {
			tag = "-"
		}
		tbl.Row(ch.Name, ch.Container, output.StatusStyle(mode).Render(mode), string(ch.Source), tag, avail)
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

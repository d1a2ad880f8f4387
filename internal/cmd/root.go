package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keyforge/dispatch/internal/config"
	"github.com/keyforge/dispatch/internal/output"
)

// GlobalConfig holds configuration resolved during PersistentPreRunE. It is
// passed to every sub-command constructor.
type GlobalConfig struct {
	// Config is the loaded configuration with defaults applied. It is nil
	// when loading failed; LoadErr then holds the reason.
	Config  *config.Config
	LoadErr error

	ConfigPath config.ResolvedValue
	Verbose    bool
}

// requireConfig returns the loaded configuration or the load error.
func (g *GlobalConfig) requireConfig() (*config.Config, error) {
	if g.Config == nil {
		if g.LoadErr != nil {
			return nil, NewExitError(g.LoadErr, ExitValidationError)
		}
		return config.DefaultConfig(), nil
	}
	return g.Config, nil
}

type rootFlags struct {
	config     string
	verbose    bool
	timestamps bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var flags rootFlags
	g := &GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Keyboard firmware build dispatcher",
		Long: `dispatch turns keyboard layouts into layer files and compiles them in
build containers, running each distinct request once and sharing the
result with every identical request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd, &flags, g)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "Path to config file (env: DISPATCH_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.timestamps, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewServeCmd(g))
	rootCmd.AddCommand(NewGenerateCmd(g))
	rootCmd.AddCommand(NewChannelsCmd(g))
	rootCmd.AddCommand(NewStatsCmd(g))
	rootCmd.AddCommand(NewConfigCmd(g))
	rootCmd.AddCommand(NewVersionCmd(g))

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging.
func initializeGlobals(cmd *cobra.Command, flags *rootFlags, g *GlobalConfig) error {
	g.Verbose = flags.verbose

	path, err := config.ResolveConfigPath(flags.config)
	if err != nil {
		return err
	}
	g.ConfigPath = path

	// A broken config file only fails the commands that need it.
	g.Config, g.LoadErr = config.NewLoader().Load(path.Value)

	// Timestamps: flag (if explicitly set) > config > default (nil = true)
	logCfg := output.LogConfig{Verbose: flags.verbose}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(flags.timestamps)
	} else if g.Config != nil && g.Config.Log.Timestamps != nil {
		logCfg.Timestamps = g.Config.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	config.LogResolvedValues(path)
	if g.LoadErr != nil {
		output.Debug("config load error", "error", g.LoadErr)
	}
	return nil
}

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keyforge/dispatch/internal/config"
	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(g *GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	c.AddCommand(NewConfigInitCmd(g))
	c.AddCommand(NewConfigVetCmd(g))

	return c
}

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(g *GlobalConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration to ~/.dispatch/config.yaml, or to the
path given by --config / DISPATCH_CONFIG.

Examples:
  dispatch config init
  dispatch config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, g, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

func runConfigInit(cmd *cobra.Command, g *GlobalConfig, force bool) error {
	path := g.ConfigPath.Value
	if path == "" {
		paths, err := config.DefaultPaths()
		if err != nil {
			return oerrors.Wrap(oerrors.ErrEnvironment, "could not determine home directory")
		}
		path = paths.ConfigFile
	}
	path = config.ExpandTilde(path)

	if _, err := os.Stat(path); err == nil && !force {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.DefaultConfig()); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return oerrors.Wrapf(oerrors.ErrEnvironment, err, "creating config directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return oerrors.Wrapf(oerrors.ErrEnvironment, err, "writing %s", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.FormatCheckmark("Configuration written to "+path))
	fmt.Fprintln(out, "Validate with: dispatch config vet")
	return nil
}

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(g *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet [file]",
		Short: "Validate configuration",
		Long: `Validate a configuration file against the embedded schema.

The config path is resolved using precedence:
  argument > --config flag > DISPATCH_CONFIG env > ~/.dispatch/config.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.ConfigPath.Value
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigVet(cmd, path)
		},
	}
}

func runConfigVet(cmd *cobra.Command, path string) error {
	if path == "" {
		resolved, err := config.ResolveConfigPath("")
		if err != nil {
			return err
		}
		path = resolved.Value
	}
	path = config.ExpandTilde(path)

	output.Debug("validating config", "path", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &oerrors.DetailError{
			Type:     "not found",
			Message:  "configuration file not found",
			Location: path,
			Hint:     "Run 'dispatch config init' to create default configuration",
			Cause:    oerrors.ErrNotFound,
		}
	}

	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidateFile(path); err != nil {
		return NewExitError(err, ExitValidationError)
	}

	fmt.Fprintln(cmd.OutOrStdout(), output.FormatCheckmark("Configuration is valid: "+path))
	return nil
}

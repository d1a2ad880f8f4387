package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/layer"
	"github.com/keyforge/dispatch/internal/layout"
	"github.com/keyforge/dispatch/internal/layoutrepo"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/plan"
)

type generateFlags struct {
	legacy  bool
	layouts string
	rev     string
	outDir  string
	plan    bool
}

// NewGenerateCmd creates the generate command.
func NewGenerateCmd(g *GlobalConfig) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate <layout.json>",
		Short: "Generate layer files for a layout without compiling",
		Long: `Generate the layer files for a layout, the same way the service does
before starting a build.

Without --out-dir the files are printed to stdout.

Examples:
  # Print the layer files
  dispatch generate my-layout.json

  # Write legacy-mode files using base layouts at a tag
  dispatch generate my-layout.json --legacy --rev v1.2.0 --out-dir ./kll`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, &flags, args[0])
		},
	}

	cmd.Flags().BoolVar(&flags.legacy, "legacy", false, "Generate for a legacy channel")
	cmd.Flags().StringVar(&flags.layouts, "layouts", "", "Base layout directory (default: paths.layouts)")
	cmd.Flags().StringVar(&flags.rev, "rev", "", "Read base layouts at this git revision")
	cmd.Flags().StringVarP(&flags.outDir, "out-dir", "d", "", "Write files to this directory")
	cmd.Flags().BoolVar(&flags.plan, "plan", false, "Also print the worker environment")

	return cmd
}

func runGenerate(cmd *cobra.Command, g *GlobalConfig, flags *generateFlags, file string) error {
	cfg, err := g.requireConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return oerrors.NewNotFoundError("layout file not readable", file, "")
	}
	lc, err := layout.Parse(data)
	if err != nil {
		return err
	}

	root := flags.layouts
	if root == "" {
		root = cfg.Paths.Layouts
	}
	var src layer.BaseSource = layer.FileBaseSource{Root: root}
	if flags.rev != "" {
		src = (&layoutrepo.Repo{Root: root}).Source(flags.rev)
	}

	mode := layer.ModeCurrent
	if flags.legacy {
		mode = layer.ModeLegacy
	}

	res, err := layer.New(src).Generate(lc, mode)
	if err != nil {
		return err
	}
	files := res.Files()
	if len(files) == 0 {
		return oerrors.NewValidationError("layout produced no layer files", file, "header.Layout",
			"Set header.Name and header.Layout.")
	}

	out := cmd.OutOrStdout()
	if flags.outDir == "" {
		printFiles(out, files)
	} else if err := writeFiles(out, flags.outDir, files); err != nil {
		return err
	}

	for _, name := range res.IgnoredAnimations {
		fmt.Fprintln(out, output.FormatNotice(fmt.Sprintf("animation %s has no frames", name)))
	}

	if flags.plan {
		info, err := plan.Plan(lc, files)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, output.StyleSummary.Render("worker: "+info.Script))
		for _, env := range info.WorkerEnv() {
			fmt.Fprintln(out, "  "+env.String())
		}
	}

	fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf("%d layer files (%s)", len(files),
		output.StatusStyle(mode.String()).Render(mode.String()))))
	return nil
}

func printFiles(w io.Writer, files []layer.File) {
	for _, f := range files {
		fmt.Fprintf(w, "### %s\n%s\n", f.Name, f.Content)
	}
}

func writeFiles(w io.Writer, dir string, files []layer.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oerrors.Wrapf(oerrors.ErrEnvironment, err, "creating %s", dir)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return oerrors.Wrapf(oerrors.ErrEnvironment, err, "writing %s", f.Name)
		}
		fmt.Fprintln(w, output.FormatFileLine(f.Name, strings.Count(f.Content, "\n")))
	}
	return nil
}

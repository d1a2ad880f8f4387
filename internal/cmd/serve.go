package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/keyforge/dispatch/internal/config"
	"github.com/keyforge/dispatch/internal/dispatch"
	"github.com/keyforge/dispatch/internal/layer"
	"github.com/keyforge/dispatch/internal/layoutrepo"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/server"
	"github.com/keyforge/dispatch/internal/stats"
	"github.com/keyforge/dispatch/internal/versions"
	"github.com/keyforge/dispatch/internal/worker"
)

type serveFlags struct {
	listen          string
	composeUp       bool
	shutdownTimeout time.Duration
}

// NewServeCmd creates the serve command.
func NewServeCmd(g *GlobalConfig) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the build dispatch HTTP service",
		Long: `Run the build dispatch HTTP service.

Startup:
  1. Validate the configuration
  2. Optionally bring the compose services up (--compose-up)
  3. List the build containers the compose file defines
  4. Resolve channels from config, the versions file, and controller tags
  5. Serve until SIGINT or SIGTERM, then drain in-flight builds

Examples:
  # Serve with the default configuration
  dispatch serve

  # Listen on all interfaces
  dispatch serve --listen 0.0.0.0:3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.listen, "listen", "", "Listen address (env: DISPATCH_LISTEN)")
	cmd.Flags().BoolVar(&flags.composeUp, "compose-up", false, "Bring compose services up before serving")
	cmd.Flags().DurationVar(&flags.shutdownTimeout, "shutdown-timeout", 10*time.Second,
		"How long to wait for in-flight requests on shutdown; builds still running afterwards finish in the background")

	return cmd
}

func runServe(cmd *cobra.Command, g *GlobalConfig, flags *serveFlags) error {
	cfg, err := g.requireConfig()
	if err != nil {
		return err
	}
	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(cfg); err != nil {
		return NewExitError(err, ExitValidationError)
	}

	listen := config.Resolve(config.ResolveOptions{
		Key:         "listen",
		FlagValue:   flags.listen,
		ConfigValue: cfg.Listen,
		Default:     config.DefaultListen,
	})
	config.LogResolvedValues(listen)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := newRunner(cfg)
	if flags.composeUp || cfg.Worker.ComposeUp {
		output.Info("bringing compose services up", "file", cfg.Worker.UpFile)
		if err := runner.Up(ctx); err != nil {
			return err
		}
	}

	registry, err := newRegistry(ctx, cfg, runner)
	if err != nil {
		return err
	}

	sink, closeSink, err := openStats(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	if err := os.MkdirAll(cfg.Paths.Workspace, 0o755); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	orch := dispatch.New(dispatch.Options{
		Workspace:   cfg.Paths.Workspace,
		WorkerKll:   cfg.Paths.WorkerKll,
		FileHost:    cfg.FileHost,
		BuildsRoute: cfg.BuildsRoute,
	}, dispatch.Deps{
		Generator: layer.New(layer.FileBaseSource{Root: cfg.Paths.Layouts}),
		Runner:    runner,
		Resolver:  registry,
		Stats:     sink,
	})

	srv := server.New(server.Config{
		Addr:            listen.Value,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		BuildsRoute:     cfg.BuildsRoute,
		OutputDir:       cfg.Paths.Output,
		ShutdownTimeout: flags.shutdownTimeout,
	}, orch, orch.Jobs(), registry, &layoutrepo.Repo{Root: cfg.Paths.Layouts})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Serve(egCtx)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		if ctx.Err() != nil {
			output.Info("received shutdown signal")
		}
		return nil
	})

	err = eg.Wait()
	output.Info("waiting for running builds")
	orch.Wait()
	return err
}

func newRunner(cfg *config.Config) *worker.ComposeRunner {
	return &worker.ComposeRunner{
		Command:     cfg.Worker.Command,
		ComposeFile: cfg.Worker.ComposeFile,
		UpFile:      cfg.Worker.UpFile,
	}
}

// containerLister is the part of worker.Runner newRegistry needs.
type containerLister interface {
	Containers(ctx context.Context) ([]string, error)
}

// newRegistry builds the channel registry: static config channels, then the
// versions file, then controller release tags. Available containers are
// taken from the compose file when it can be read.
func newRegistry(ctx context.Context, cfg *config.Config, lister containerLister) (*versions.Registry, error) {
	registry := versions.NewRegistry(cfg.Channels, cfg.LegacyChannels)

	if cfg.VersionsFile != "" {
		if err := registry.LoadFile(config.ExpandTilde(cfg.VersionsFile)); err != nil {
			return nil, err
		}
	}

	if cfg.ControllerRepo != "" {
		n, err := registry.Discover(config.ExpandTilde(cfg.ControllerRepo), cfg.ContainerPrefix)
		if err != nil {
			return nil, err
		}
		output.Info("discovered release channels", "count", n, "repo", cfg.ControllerRepo)
		if n > 0 && cfg.VersionsFile != "" {
			if err := registry.SaveFile(config.ExpandTilde(cfg.VersionsFile)); err != nil {
				return nil, err
			}
		}
	}

	if lister != nil {
		containers, err := lister.Containers(ctx)
		if err != nil {
			output.Warn("could not list build containers; accepting every configured container", "err", err)
		} else {
			output.Info("available build containers", "containers", containers)
			registry.SetAvailable(containers)
		}
	}
	return registry, nil
}

// openStats opens the configured stats sink. The returned close function
// is always safe to call.
func openStats(cfg *config.Config) (stats.Sink, func(), error) {
	if cfg.Stats.Path == "" {
		return stats.Nop{}, func() {}, nil
	}
	sink, err := stats.OpenSQLite(config.ExpandTilde(cfg.Stats.Path))
	if err != nil {
		return nil, nil, err
	}
	output.Info("recording request stats", "path", cfg.Stats.Path)
	return sink, func() {
		if err := sink.Close(); err != nil {
			output.Warn("closing stats database", "err", err)
		}
	}, nil
}

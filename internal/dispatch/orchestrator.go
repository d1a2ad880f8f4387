// Package dispatch runs build requests: it fingerprints them, starts at
// most one compile per fingerprint, and lets every caller for that
// fingerprint share the outcome.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/fingerprint"
	"github.com/keyforge/dispatch/internal/jobs"
	"github.com/keyforge/dispatch/internal/layer"
	"github.com/keyforge/dispatch/internal/layout"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/plan"
	"github.com/keyforge/dispatch/internal/stats"
	"github.com/keyforge/dispatch/internal/versions"
	"github.com/keyforge/dispatch/internal/worker"
)

// ConfigFileName is the copy of the submitted layout kept in each workspace.
const ConfigFileName = "config.json"

// statsTimeout bounds a single stats write.
const statsTimeout = 5 * time.Second

// Options are the filesystem and naming settings of an Orchestrator.
type Options struct {
	// Workspace is the host directory holding one subdirectory per
	// fingerprint.
	Workspace string
	// WorkerKll is where the worker sees Workspace.
	WorkerKll string
	// FileHost and BuildsRoute prefix artifact names in responses.
	FileHost    string
	BuildsRoute string
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Generator *layer.Generator
	Runner    worker.Runner
	Resolver  versions.Resolver
	// Stats may be nil.
	Stats stats.Sink
}

// Client identifies the requester for stats.
type Client struct {
	Addr      string
	UserAgent string
}

// Request is one build request.
type Request struct {
	Config *layout.Config
	// Raw is the submitted config document, kept verbatim in the
	// workspace. When nil the canonical form is kept instead.
	Raw    []byte
	Env    string
	Client Client
	// Logger scopes request logging. Nil uses the job logger.
	Logger *log.Logger
}

// Result is the outcome reported to a requester.
type Result struct {
	Filename    string
	Success     bool
	Fingerprint fingerprint.Fingerprint
	// Joined is true when this request shared a compile started by an
	// earlier request.
	Joined   bool
	Duration time.Duration
}

// Orchestrator owns the job table. It is safe for concurrent use.
type Orchestrator struct {
	opts  Options
	deps  Deps
	table *jobs.Table

	pending sync.WaitGroup
}

// New returns an Orchestrator with an empty job table.
func New(opts Options, deps Deps) *Orchestrator {
	if deps.Stats == nil {
		deps.Stats = stats.Nop{}
	}
	return &Orchestrator{
		opts:  opts,
		deps:  deps,
		table: jobs.NewTable(),
	}
}

// Jobs returns the job table, for diagnostics.
func (o *Orchestrator) Jobs() *jobs.Table {
	return o.table
}

// Build handles one request. It returns after the compile for the
// request's fingerprint has finished, or when ctx is done. A failed
// compile is a Result with Success false, not an error.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	ch, err := o.deps.Resolver.Resolve(req.Env)
	if err != nil {
		return nil, err
	}
	mode := layer.ModeCurrent
	if ch.Legacy {
		mode = layer.ModeLegacy
	}

	canonical, err := req.Config.Canonical()
	if err != nil {
		return nil, err
	}
	fp := fingerprint.Compute(ch.Container, canonical, req.Env)

	logger := req.Logger
	if logger == nil {
		logger = output.JobLogger(fp.String())
	}
	logger = logger.With("fingerprint", fp)
	logger.Debug("received request", "board", req.Config.Header.Name, "layers", req.Config.LayerCount(),
		"channel", ch.Name, "container", ch.Container)

	entry, created, err := o.table.Acquire(fp, func() (*jobs.Started, error) {
		return o.start(ctx, fp, ch, mode, req, canonical, logger)
	})
	if err != nil {
		return nil, err
	}
	if created {
		o.pending.Add(1)
		go o.complete(entry, logger)
	} else {
		logger.Debug("joining existing build", "pid", entry.Handle.PID())
	}

	success, err := entry.Wait(ctx)
	if err != nil {
		logger.Warn("stopped waiting for build", "err", err)
		return nil, err
	}

	res := &Result{
		Filename:    o.artifactURL(entry.Info.ArtifactName(fp, success)),
		Success:     success,
		Fingerprint: fp,
		Joined:      !created,
		Duration:    time.Since(started),
	}
	logger.Info("build finished", "success", success, "joined", res.Joined, "duration", res.Duration.Round(time.Millisecond))

	o.record(ctx, req, ch, entry.Info, res, started, logger)
	return res, nil
}

// start generates layer files, persists the workspace, and spawns the
// worker. It runs under the job table lock.
func (o *Orchestrator) start(ctx context.Context, fp fingerprint.Fingerprint, ch versions.Channel, mode layer.Mode,
	req Request, canonical []byte, logger *log.Logger) (*jobs.Started, error) {
	logger.Debug("starting new build", "mode", mode)

	gen, err := o.deps.Generator.Generate(req.Config, mode)
	if err != nil {
		return nil, err
	}
	files := gen.Files()
	if len(files) == 0 {
		return nil, oerrors.Wrap(oerrors.ErrValidation, "layout header needs a board name and a layout name")
	}
	for _, name := range gen.IgnoredAnimations {
		logger.Debug("animation has no frames", "animation", name)
	}

	info, err := plan.Plan(req.Config, files)
	if err != nil {
		return nil, err
	}

	raw := req.Raw
	if raw == nil {
		raw = canonical
	}
	if err := o.writeWorkspace(fp, files, raw); err != nil {
		return nil, err
	}

	env := make([]string, 0, 4)
	for _, e := range info.WorkerEnv() {
		env = append(env, e.String())
	}
	h, err := o.deps.Runner.Start(ctx, worker.Invocation{
		Container: ch.Container,
		Script:    info.Script,
		Env:       env,
		KllDir:    path.Join(o.opts.WorkerKll, fp.String()),
		Output:    info.ArtifactBase(fp),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("build started", "pid", h.PID(), "board", info.Board.Name, "layers", len(files), "container", ch.Container)
	return &jobs.Started{Handle: h, Info: info}, nil
}

// complete waits for the worker and records the outcome before any waiter
// is released.
func (o *Orchestrator) complete(entry *jobs.Entry, logger *log.Logger) {
	defer o.pending.Done()
	out, _ := entry.Handle.Wait(context.Background())
	o.table.Finish(entry.Fingerprint, out.Success)
	logger.Debug("worker finished", "pid", entry.Handle.PID(), "exitCode", out.ExitCode, "duration", out.Duration)
}

// WorkspaceDir returns the host directory for fp.
func (o *Orchestrator) WorkspaceDir(fp fingerprint.Fingerprint) string {
	return filepath.Join(o.opts.Workspace, fp.String())
}

func (o *Orchestrator) writeWorkspace(fp fingerprint.Fingerprint, files []layer.File, raw []byte) error {
	dir := o.WorkspaceDir(fp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oerrors.Wrapf(oerrors.ErrEnvironment, err, "creating workspace")
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(f.Content), 0o644); err != nil {
			return oerrors.Wrapf(oerrors.ErrEnvironment, err, "writing %s", f.Name)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), raw, 0o644); err != nil {
		return oerrors.Wrapf(oerrors.ErrEnvironment, err, "writing %s", ConfigFileName)
	}
	return nil
}

func (o *Orchestrator) artifactURL(name string) string {
	return fmt.Sprintf("%s%s/%s", o.opts.FileHost, o.opts.BuildsRoute, name)
}

// record sends one stats record without blocking the caller.
func (o *Orchestrator) record(ctx context.Context, req Request, ch versions.Channel, info *plan.BuildInfo,
	res *Result, started time.Time, logger *log.Logger) {
	rec := stats.Record{
		ClientAddr:  req.Client.Addr,
		UserAgent:   req.Client.UserAgent,
		Fingerprint: res.Fingerprint.String(),
		Board:       info.Board.Name,
		Layout:      info.Layout,
		Layers:      len(info.PartialMaps) + 1,
		Container:   ch.Container,
		Success:     res.Success,
		Joined:      res.Joined,
		RequestedAt: started,
		Duration:    res.Duration,
	}

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
		defer cancel()
		if err := o.deps.Stats.Record(ctx, rec); err != nil {
			logger.Warn("recording stats", "err", err)
		}
	}()
}

// Wait blocks until every started compile has finished and every stats
// record has been written.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

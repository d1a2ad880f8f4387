package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/output"
)

// Defaults for ComposeRunner fields.
const (
	DefaultCommand     = "docker-compose"
	DefaultComposeFile = "docker-compose-build.yml"
	DefaultUpFile      = "docker-compose.yml"
)

// ComposeRunner runs compiles through docker-compose.
type ComposeRunner struct {
	// Command is the compose executable. Empty means DefaultCommand.
	Command string
	// ComposeFile defines the build services. Empty means DefaultComposeFile.
	ComposeFile string
	// UpFile defines the long-running services started by Up.
	UpFile string
	// Dir is the working directory for every invocation.
	Dir string
	// Logger receives worker output at debug level.
	Logger *log.Logger
}

var _ Runner = (*ComposeRunner)(nil)

// Args returns the compose arguments for inv.
func (r *ComposeRunner) Args(inv Invocation) []string {
	args := []string{"-f", r.composeFile(), "run", "--rm", "-T"}
	for _, e := range inv.Env {
		args = append(args, "-e", e)
	}
	return append(args, inv.Container, inv.Script, inv.KllDir, inv.Output)
}

// Start implements Runner. The process is not tied to ctx: a compile that
// has started runs to completion even if the requester goes away.
func (r *ComposeRunner) Start(ctx context.Context, inv Invocation) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := r.logger().With("container", inv.Container)
	stdout := &lineWriter{logger: logger, stream: "stdout"}
	stderr := &lineWriter{logger: logger, stream: "stderr"}

	cmd := exec.Command(r.command(), r.Args(inv)...)
	cmd.Dir = r.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, oerrors.NewEnvironmentError(
			fmt.Sprintf("starting %s for %s: %v", r.command(), inv.Container, err),
			map[string]string{"Command": r.command(), "Container": inv.Container},
			"check that the compose command is installed and on PATH")
	}

	h := NewHandle(cmd.Process.Pid)
	logger.Debug("worker started", "pid", h.PID(), "script", inv.Script, "output", inv.Output)

	go func() {
		err := cmd.Wait()
		stdout.Flush()
		stderr.Flush()

		o := Outcome{
			Success:  err == nil,
			ExitCode: cmd.ProcessState.ExitCode(),
			Duration: time.Since(h.Started()),
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			logger.Warn("waiting for worker", "pid", h.PID(), "err", err)
		}
		logger.Debug("worker exited", "pid", h.PID(), "code", o.ExitCode, "duration", o.Duration)
		h.Complete(o)
	}()

	return h, nil
}

// Containers implements Runner by asking compose for the build services.
// The first service is the shared base image and is not a build target.
func (r *ComposeRunner) Containers(ctx context.Context) ([]string, error) {
	out, err := r.runCapture(ctx, "-f", r.composeFile(), "config", "--services")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) <= 1 {
		return nil, nil
	}
	var services []string
	for _, l := range lines[1:] {
		if s := strings.TrimSpace(l); s != "" {
			services = append(services, s)
		}
	}
	return services, nil
}

// Up starts the long-running compose services without recreating them.
func (r *ComposeRunner) Up(ctx context.Context) error {
	upFile := r.UpFile
	if upFile == "" {
		upFile = DefaultUpFile
	}
	_, err := r.runCapture(ctx, "-f", upFile, "up", "-d", "--no-recreate")
	return err
}

func (r *ComposeRunner) runCapture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.command(), args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, oerrors.Wrap(oerrors.ErrEnvironment, fmt.Sprintf("%s %s failed with exit code %d: %s",
				r.command(), strings.Join(args, " "), exitErr.ExitCode(), strings.TrimSpace(stderr.String())))
		}
		return nil, oerrors.Wrapf(oerrors.ErrEnvironment, err, "%s %s", r.command(), strings.Join(args, " "))
	}

	return stdout.Bytes(), nil
}

func (r *ComposeRunner) command() string {
	if r.Command != "" {
		return r.Command
	}
	return DefaultCommand
}

func (r *ComposeRunner) composeFile() string {
	if r.ComposeFile != "" {
		return r.ComposeFile
	}
	return DefaultComposeFile
}

func (r *ComposeRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return output.Logger()
}

// lineWriter logs complete lines of process output at debug level.
type lineWriter struct {
	logger *log.Logger
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*lineWriter)(nil)

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	w.logger.Debug(line, "stream", w.stream)
}

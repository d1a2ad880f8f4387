package worker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/testutil"
)

// fakeCompose is run as `sh -f build.sh <args>`, standing in for
// docker-compose. It records its arguments and fails for containers whose
// name contains "broken".
const fakeCompose = `
if [ "$1" = config ]; then
  printf 'base\ncontroller-050\n\ncontroller-056\n'
  exit 0
fi
echo "$@" > args.txt
echo "compiling"
printf 'no newline' >&2
case "$*" in
  *broken*) exit 3 ;;
esac
exit 0
`

func newTestRunner(t *testing.T) (*ComposeRunner, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "build.sh", fakeCompose)
	testutil.WriteFile(t, dir, "up.sh", `echo "$@" > up.txt`)

	var buf bytes.Buffer
	return &ComposeRunner{
		Command:     "sh",
		ComposeFile: "build.sh",
		UpFile:      "up.sh",
		Dir:         dir,
		Logger:      log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}),
	}, dir, &buf
}

func TestComposeRunner_Args(t *testing.T) {
	r := &ComposeRunner{}
	args := r.Args(Invocation{
		Container: "controller-056",
		Script:    "ergodox.bash",
		Env:       []string{"DefaultMapOverride=stdFuncMap a-0", "PartialMapsExpandedOverride=", "Layout=", "SplitKeyboard=1"},
		KllDir:    "/tmp/kll/abc",
		Output:    "MDErgo1-Default-abc",
	})

	assert.Equal(t, []string{
		"-f", "docker-compose-build.yml", "run", "--rm", "-T",
		"-e", "DefaultMapOverride=stdFuncMap a-0",
		"-e", "PartialMapsExpandedOverride=",
		"-e", "Layout=",
		"-e", "SplitKeyboard=1",
		"controller-056", "ergodox.bash", "/tmp/kll/abc", "MDErgo1-Default-abc",
	}, args)
}

func TestComposeRunner_StartSuccess(t *testing.T) {
	r, dir, logs := newTestRunner(t)

	h, err := r.Start(context.Background(), Invocation{
		Container: "controller-056",
		Script:    "kira.bash",
		Env:       []string{"Layout=Blank"},
		KllDir:    "/tmp/kll/fp",
		Output:    "Kira-Default-fp",
	})
	require.NoError(t, err)
	assert.Positive(t, h.PID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, o.Success)
	assert.Equal(t, 0, o.ExitCode)

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "run --rm -T -e Layout=Blank controller-056 kira.bash /tmp/kll/fp Kira-Default-fp", strings.TrimSpace(string(args)))

	assert.Contains(t, logs.String(), "compiling")
	assert.Contains(t, logs.String(), "no newline", "partial lines are flushed")
}

func TestComposeRunner_StartFailure(t *testing.T) {
	r, _, _ := newTestRunner(t)

	h, err := r.Start(context.Background(), Invocation{Container: "broken", Script: "x", KllDir: "d", Output: "o"})
	require.NoError(t, err, "a failing compile is not a spawn error")

	o, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, o.Success)
	assert.Equal(t, 3, o.ExitCode)
}

func TestComposeRunner_SpawnError(t *testing.T) {
	r := &ComposeRunner{Command: filepath.Join(t.TempDir(), "missing-compose")}

	_, err := r.Start(context.Background(), Invocation{Container: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrEnvironment))

	var detail *oerrors.DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "c", detail.Context["Container"])
	assert.Equal(t, r.Command, detail.Context["Command"])
	assert.Contains(t, detail.Message, "missing-compose")
	assert.NotEmpty(t, detail.Hint)
}

func TestComposeRunner_StartCancelled(t *testing.T) {
	r, _, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Start(ctx, Invocation{Container: "c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComposeRunner_Containers(t *testing.T) {
	r, _, _ := newTestRunner(t)

	got, err := r.Containers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"controller-050", "controller-056"}, got)
}

func TestComposeRunner_ContainersError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "build.sh", "echo boom >&2; exit 1")
	r := &ComposeRunner{Command: "sh", ComposeFile: "build.sh", Dir: dir}

	_, err := r.Containers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrEnvironment))
	assert.Contains(t, err.Error(), "boom")
}

func TestComposeRunner_Up(t *testing.T) {
	r, dir, _ := newTestRunner(t)

	require.NoError(t, r.Up(context.Background()))

	args, err := os.ReadFile(filepath.Join(dir, "up.txt"))
	require.NoError(t, err)
	assert.Equal(t, "up -d --no-recreate", strings.TrimSpace(string(args)))
}

// Package worker starts and supervises containerized firmware compiles.
package worker

import (
	"context"
)

// Invocation describes one compile.
type Invocation struct {
	// Container is the compose service to run.
	Container string
	// Script is the board build script inside the container.
	Script string
	// Env holds NAME=value assignments, passed in order.
	Env []string
	// KllDir is the layer file directory as seen by the container.
	KllDir string
	// Output is the artifact base name.
	Output string
}

// Runner starts compiles and lists the containers that can run them.
type Runner interface {
	// Start spawns the compile and returns immediately. A spawn failure is
	// an environment error, not a failed build.
	Start(ctx context.Context, inv Invocation) (*Handle, error)

	// Containers lists the build containers the runner can target.
	Containers(ctx context.Context) ([]string, error)
}

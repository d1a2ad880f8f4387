package version

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinComposeVersion is the oldest compose release whose `run -T` and
// `config --services` behave as the dispatcher expects.
const MinComposeVersion = "1.25.0"

var toolVersionRegex = regexp.MustCompile(`v?\d+\.\d+\.\d+(?:-[a-zA-Z0-9.]+)?`)

// ToolInfo describes the worker tool installation.
type ToolInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Path      string `json:"path"`
	Found     bool   `json:"found"`
	Supported bool   `json:"supported"`
	Message   string `json:"message,omitempty"`
}

// DetectTool finds command in PATH and checks its version.
func DetectTool(command string) ToolInfo {
	info := ToolInfo{Name: command}

	path, err := exec.LookPath(command)
	if err != nil {
		info.Message = command + " not found in PATH"
		return info
	}
	info.Path = path
	info.Found = true

	version, err := toolVersion(path)
	if err != nil {
		info.Message = "failed to get version: " + err.Error()
		return info
	}
	info.Version = version
	info.Supported, info.Message = Supported(version)
	return info
}

// toolVersion runs `<tool> version --short` and extracts the version.
func toolVersion(path string) (string, error) {
	cmd := exec.Command(path, "version", "--short")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return extractVersion(out.String())
}

// extractVersion finds the first version number in tool output and
// normalizes it to a leading "v".
func extractVersion(output string) (string, error) {
	match := toolVersionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version in output %q", strings.TrimSpace(output))
	}
	if !strings.HasPrefix(match, "v") {
		match = "v" + match
	}
	return match, nil
}

// Supported reports whether version meets MinComposeVersion.
func Supported(version string) (bool, string) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, "invalid version format"
	}
	c, err := semver.NewConstraint(">= " + MinComposeVersion)
	if err != nil {
		return false, err.Error()
	}
	if !c.Check(v) {
		return false, "older than " + MinComposeVersion
	}
	return true, "supported"
}

// String returns a human-readable tool info string.
func (t ToolInfo) String() string {
	if !t.Found {
		return fmt.Sprintf("  %s: not found", t.Name)
	}
	return fmt.Sprintf("  %s: %s (%s)\n  Path: %s", t.Name, t.Version, t.Message, t.Path)
}

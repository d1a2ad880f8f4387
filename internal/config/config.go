// Package config provides configuration loading and management.
package config

// PathsConfig locates the directories the dispatcher reads and writes.
type PathsConfig struct {
	// Layouts holds the base layout JSON files.
	Layouts string `json:"layouts" yaml:"layouts" mapstructure:"layouts"`

	// Workspace holds one generated-file directory per fingerprint.
	Workspace string `json:"workspace" yaml:"workspace" mapstructure:"workspace"`

	// Output is where workers write artifacts; served under BuildsRoute.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// WorkerKll is the Workspace mount point inside the worker container.
	WorkerKll string `json:"workerKll" yaml:"workerKll" mapstructure:"workerKll"`
}

// WorkerConfig selects how build workers are started.
type WorkerConfig struct {
	Command     string `json:"command" yaml:"command" mapstructure:"command"`
	ComposeFile string `json:"composeFile" yaml:"composeFile" mapstructure:"composeFile"`
	UpFile      string `json:"upFile" yaml:"upFile" mapstructure:"upFile"`

	// ComposeUp brings the compose services up before serving.
	ComposeUp bool `json:"composeUp" yaml:"composeUp" mapstructure:"composeUp"`
}

// StatsConfig enables the request statistics database.
type StatsConfig struct {
	// Path is the SQLite database file. Empty disables stats.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty" yaml:"timestamps,omitempty" mapstructure:"timestamps"`
}

// Config is the dispatcher configuration.
// Loaded from ~/.dispatch/config.yaml, validated against the embedded CUE schema.
type Config struct {
	// Listen is the HTTP listen address.
	// Env: DISPATCH_LISTEN
	Listen string `json:"listen" yaml:"listen" mapstructure:"listen"`

	// FileHost prefixes artifact URLs in build responses.
	FileHost string `json:"fileHost" yaml:"fileHost" mapstructure:"fileHost"`

	// BuildsRoute is the URL path artifacts are served under.
	BuildsRoute string `json:"buildsRoute" yaml:"buildsRoute" mapstructure:"buildsRoute"`

	// MaxBodyBytes bounds a build request body.
	MaxBodyBytes int64 `json:"maxBodyBytes" yaml:"maxBodyBytes" mapstructure:"maxBodyBytes"`

	Paths  PathsConfig  `json:"paths" yaml:"paths" mapstructure:"paths"`
	Worker WorkerConfig `json:"worker" yaml:"worker" mapstructure:"worker"`

	// Channels maps channel names to worker containers.
	Channels map[string]string `json:"channels,omitempty" yaml:"channels,omitempty" mapstructure:"channels"`

	// LegacyChannels select legacy layer generation.
	LegacyChannels []string `json:"legacyChannels,omitempty" yaml:"legacyChannels,omitempty" mapstructure:"legacyChannels"`

	// VersionsFile persists discovered channel mappings. Empty disables it.
	VersionsFile string `json:"versionsFile,omitempty" yaml:"versionsFile,omitempty" mapstructure:"versionsFile"`

	// ControllerRepo is a local controller firmware checkout whose release
	// tags become channels. Empty disables discovery.
	ControllerRepo string `json:"controllerRepo,omitempty" yaml:"controllerRepo,omitempty" mapstructure:"controllerRepo"`

	// ContainerPrefix names discovered containers, e.g. "controller-".
	ContainerPrefix string `json:"containerPrefix" yaml:"containerPrefix" mapstructure:"containerPrefix"`

	Stats StatsConfig `json:"stats" yaml:"stats" mapstructure:"stats"`
	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
}

// Defaults.
const (
	DefaultListen          = "localhost:3000"
	DefaultFileHost        = "http://localhost:8080"
	DefaultBuildsRoute     = "/builds"
	DefaultMaxBodyBytes    = 10 << 20
	DefaultContainerPrefix = "controller-"
)

// DefaultChannels are the channels served when none are configured.
func DefaultChannels() map[string]string {
	return map[string]string{
		"latest": "controller-056",
		"lts":    "controller-050",
		"v0.5.6": "controller-056",
		"v0.5.0": "controller-050",
	}
}

// DefaultLegacyChannels are the legacy channels used when Channels is not
// configured.
func DefaultLegacyChannels() []string {
	return []string{"lts", "v0.5.0"}
}

// DefaultConfig returns a Config with all default values populated.
// Used by `dispatch config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Listen:       DefaultListen,
		FileHost:     DefaultFileHost,
		BuildsRoute:  DefaultBuildsRoute,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Paths: PathsConfig{
			Layouts:   "./layouts",
			Workspace: "./tmp_kll",
			Output:    "./tmp_builds",
			WorkerKll: "/tmp/kll",
		},
		Worker: WorkerConfig{
			Command:     "docker-compose",
			ComposeFile: "docker-compose-build.yml",
			UpFile:      "docker-compose.yml",
		},
		Channels:        DefaultChannels(),
		LegacyChannels:  DefaultLegacyChannels(),
		ContainerPrefix: DefaultContainerPrefix,
	}
}

// WithDefaults fills every unset field from DefaultConfig. Channels and
// LegacyChannels are defaulted together, so a configured channel set never
// inherits the default legacy list.
func (c *Config) WithDefaults() *Config {
	d := DefaultConfig()
	out := *c

	setString(&out.Listen, d.Listen)
	setString(&out.FileHost, d.FileHost)
	setString(&out.BuildsRoute, d.BuildsRoute)
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = d.MaxBodyBytes
	}
	setString(&out.Paths.Layouts, d.Paths.Layouts)
	setString(&out.Paths.Workspace, d.Paths.Workspace)
	setString(&out.Paths.Output, d.Paths.Output)
	setString(&out.Paths.WorkerKll, d.Paths.WorkerKll)
	setString(&out.Worker.Command, d.Worker.Command)
	setString(&out.Worker.ComposeFile, d.Worker.ComposeFile)
	setString(&out.Worker.UpFile, d.Worker.UpFile)
	setString(&out.ContainerPrefix, d.ContainerPrefix)

	if len(out.Channels) == 0 {
		out.Channels = d.Channels
		if len(out.LegacyChannels) == 0 {
			out.LegacyChannels = d.LegacyChannels
		}
	}
	return &out
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

package config

import (
	"embed"
	"fmt"
	"net"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		fmt.Fprintf(&sb, "  %s: %s\n", err.Field, err.Message)
	}
	return sb.String()
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schemaData, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaData)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}, nil
}

// Validate checks cfg against the schema, then applies the checks the
// schema cannot express. All problems are reported together.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	value := v.ctx.Encode(cfg)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			errs = append(errs, ValidationError{
				Field:   fieldPath(e.Path()),
				Message: fmt.Sprintf(format, args...),
			})
		}
	}

	if _, _, err := net.SplitHostPort(cfg.Listen); cfg.Listen != "" && err != nil {
		errs = append(errs, ValidationError{
			Field:   "listen",
			Message: "must be host:port",
		})
	}

	for name := range cfg.Channels {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ValidationError{
				Field:   "channels",
				Message: "channel names must not be empty",
			})
		}
	}
	for _, name := range cfg.LegacyChannels {
		if _, ok := cfg.Channels[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   "legacyChannels",
				Message: fmt.Sprintf("%q is not a configured channel", name),
			})
		}
	}

	if len(errs) > 0 {
		slices.SortStableFunc(errs, func(a, b ValidationError) int {
			return strings.Compare(a.Field, b.Field)
		})
		return errs
	}

	return nil
}

// fieldPath joins a CUE error path, dropping definition selectors.
func fieldPath(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if strings.HasPrefix(p, "#") {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ".")
}

// ValidateFile loads and validates a configuration file.
func (v *Validator) ValidateFile(path string) error {
	cfg, err := NewLoader().Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}

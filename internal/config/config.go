package config

import (
	"fmt"
	"strings"
	"time"
)

type LaunchModel string

const (
	LaunchModelUniform LaunchModel = "uniform"
	LaunchModelPoisson LaunchModel = "poisson"
)

// Config holds the full invocation surface of a load run. It is built once by
// the Loader and never mutated afterwards.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	InterviewKey string        `mapstructure:"interview_key"`
	Users        int           `mapstructure:"users"`
	Turns        int           `mapstructure:"turns"`
	MinDelay     time.Duration `mapstructure:"min_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Workers      int           `mapstructure:"workers"` // 0 means same as Users
	Timeout      time.Duration `mapstructure:"timeout"`
	IDLength     int           `mapstructure:"id_length"`
	LaunchRate   int           `mapstructure:"launch_rate"` // sessions per second (0 = unlimited)
	Launch       LaunchConfig  `mapstructure:"launch"`
	JSONOutput   bool          `mapstructure:"json_output"`
	Dashboard    bool          `mapstructure:"dashboard"`
	LogErrors    bool          `mapstructure:"log_errors"`
	ConfigFile   string        `mapstructure:"-"`
	Tracing      TracingConfig `mapstructure:"tracing"`
}

type LaunchConfig struct {
	Model LaunchModel `mapstructure:"model"`
}

// TracingConfig controls optional OTLP span export for sessions.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   bool    `mapstructure:"propagate"`
}

// ShouldPropagate reports whether W3C trace headers should be injected into
// harness requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Enabled && t.Propagate
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// WorkerCount resolves the effective pool size: an explicit Workers value,
// otherwise one worker per simulated user.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return c.Users
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.BaseURL) == "" {
		issues = append(issues, "base-url is required (use --help for usage information)")
	}
	if strings.TrimSpace(c.InterviewKey) == "" {
		issues = append(issues, "interview-key is required")
	}
	if c.Users < 1 {
		issues = append(issues, "users must be >= 1")
	}
	if c.Turns < 0 {
		issues = append(issues, "turns must be >= 0")
	}
	if c.MinDelay < 0 {
		issues = append(issues, "min-delay must be >= 0")
	}
	if c.MaxDelay < 0 {
		issues = append(issues, "max-delay must be >= 0")
	}
	if c.MaxDelay > 0 && c.MaxDelay < c.MinDelay {
		issues = append(issues, "max-delay must be >= min-delay")
	}
	if c.Workers < 0 {
		issues = append(issues, "workers must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.IDLength < 1 {
		issues = append(issues, "id-length must be >= 1")
	}
	if c.LaunchRate < 0 {
		issues = append(issues, "launch-rate must be >= 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	launchIssues := validateLaunchConfig(c.Launch)
	if len(launchIssues) > 0 {
		issues = append(issues, launchIssues...)
	}

	tracingIssues := validateTracingConfig(c.Tracing)
	if len(tracingIssues) > 0 {
		issues = append(issues, tracingIssues...)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateLaunchConfig(launch LaunchConfig) []string {
	model := launch.Model
	if model == "" {
		model = LaunchModelUniform
	}
	switch model {
	case LaunchModelUniform, LaunchModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("launch model %q is not supported", model)}
	}
}

func validateTracingConfig(tracing TracingConfig) []string {
	var issues []string
	if !tracing.Enabled {
		return nil
	}
	if tracing.SampleRate < 0 || tracing.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", tracing.SampleRate))
	}
	switch strings.ToLower(tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", tracing.Protocol))
	}
	return issues
}

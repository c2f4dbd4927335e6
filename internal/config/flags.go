package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "convofire",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.String("base-url", "http://127.0.0.1:8000", "Base URL of the interview service")
	flags.StringP("interview-key", "k", "STOCK_MARKET", "Interview configuration key the service should use")

	// Load shape flags
	flags.IntP("users", "u", 20, "Number of concurrent simulated interviewees")
	flags.IntP("turns", "n", 10, "Number of Q&A turns per interviewee")
	flags.Duration("min-delay", 1*time.Second, "Minimum delay between user turns")
	flags.Duration("max-delay", 3*time.Second, "Maximum delay between user turns (0 disables think time)")
	flags.IntP("workers", "w", 0, "Maximum concurrent sessions (0 means same as --users)")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout")
	flags.Int("id-length", 16, "Length of generated session identifiers")
	flags.Int("launch-rate", 0, "Sessions started per second (0 means unlimited)")
	flags.String("launch-model", string(LaunchModelUniform), "Session launch pacing model (uniform or poisson)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("log-errors", false, "Log each failed session to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.Bool("otlp", false, "Enable OTLP trace export (one span per session)")
	flags.String("otlp-endpoint", "", "OTLP collector endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("otlp-protocol", "grpc", "OTLP transport: 'grpc' or 'http'")
	flags.Bool("otlp-insecure", false, "Skip TLS for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("base-url") {
		val, err := fs.GetString("base-url")
		if err != nil {
			return err
		}
		cfg.BaseURL = strings.TrimSpace(val)
	}
	if fs.Changed("interview-key") {
		val, err := fs.GetString("interview-key")
		if err != nil {
			return err
		}
		cfg.InterviewKey = strings.TrimSpace(val)
	}
	if fs.Changed("users") {
		val, err := fs.GetInt("users")
		if err != nil {
			return err
		}
		cfg.Users = val
	}
	if fs.Changed("turns") {
		val, err := fs.GetInt("turns")
		if err != nil {
			return err
		}
		cfg.Turns = val
	}
	if fs.Changed("min-delay") {
		val, err := fs.GetDuration("min-delay")
		if err != nil {
			return err
		}
		cfg.MinDelay = val
	}
	if fs.Changed("max-delay") {
		val, err := fs.GetDuration("max-delay")
		if err != nil {
			return err
		}
		cfg.MaxDelay = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("id-length") {
		val, err := fs.GetInt("id-length")
		if err != nil {
			return err
		}
		cfg.IDLength = val
	}
	if fs.Changed("launch-rate") {
		val, err := fs.GetInt("launch-rate")
		if err != nil {
			return err
		}
		cfg.LaunchRate = val
	}
	if fs.Changed("launch-model") {
		val, err := fs.GetString("launch-model")
		if err != nil {
			return err
		}
		cfg.Launch.Model = LaunchModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("otlp") {
		val, err := fs.GetBool("otlp")
		if err != nil {
			return err
		}
		cfg.Tracing.Enabled = val
	}
	if fs.Changed("otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}

package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Flags override config-file settings; defaults follow the original invocation
// surface of the harness.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		BaseURL:      "http://127.0.0.1:8000",
		InterviewKey: "STOCK_MARKET",
		Users:        20,
		Turns:        10,
		MinDelay:     1 * time.Second,
		MaxDelay:     3 * time.Second,
		Timeout:      30 * time.Second,
		IDLength:     16,
		ConfigFile:   configPath,
		Launch:       LaunchConfig{Model: LaunchModelUniform},
		Tracing:      TracingConfig{Protocol: "grpc", SampleRate: 1.0, Propagate: true},
	}

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.InterviewKey = strings.TrimSpace(cfg.InterviewKey)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "baseurl", "base_url", "base-url"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("base_url", err)
		}
		cfg.BaseURL = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "interviewkey", "interview_key", "interview-key"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("interview_key", err)
		}
		cfg.InterviewKey = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "users"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("users", err)
		}
		cfg.Users = val
	}
	if raw, ok := lookupSetting(settings, "turns"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("turns", err)
		}
		cfg.Turns = val
	}
	if raw, ok := lookupSetting(settings, "mindelay", "min_delay", "min-delay"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return wrapSetting("min_delay", err)
		}
		cfg.MinDelay = dur
	}
	if raw, ok := lookupSetting(settings, "maxdelay", "max_delay", "max-delay"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return wrapSetting("max_delay", err)
		}
		cfg.MaxDelay = dur
	}
	if raw, ok := lookupSetting(settings, "workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("workers", err)
		}
		cfg.Workers = val
	}
	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return wrapSetting("timeout", err)
		}
		cfg.Timeout = dur
	}
	if raw, ok := lookupSetting(settings, "idlength", "id_length", "id-length"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("id_length", err)
		}
		cfg.IDLength = val
	}
	if raw, ok := lookupSetting(settings, "launchrate", "launch_rate", "launch-rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return wrapSetting("launch_rate", err)
		}
		cfg.LaunchRate = val
	}
	if raw, ok := lookupSetting(settings, "launch"); ok {
		nested, err := asSettingsMap(raw)
		if err != nil {
			return wrapSetting("launch", err)
		}
		if model, ok := lookupSetting(nested, "model"); ok {
			val, err := asString(model)
			if err != nil {
				return wrapSetting("launch.model", err)
			}
			cfg.Launch.Model = LaunchModel(strings.ToLower(strings.TrimSpace(val)))
		}
	}
	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("json_output", err)
		}
		cfg.JSONOutput = val
	}
	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("dashboard", err)
		}
		cfg.Dashboard = val
	}
	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("log_errors", err)
		}
		cfg.LogErrors = val
	}
	if raw, ok := lookupSetting(settings, "tracing"); ok {
		nested, err := asSettingsMap(raw)
		if err != nil {
			return wrapSetting("tracing", err)
		}
		if err := applyTracingSettings(&cfg.Tracing, nested); err != nil {
			return err
		}
	}

	return nil
}

func applyTracingSettings(tracing *TracingConfig, settings map[string]interface{}) error {
	if raw, ok := lookupSetting(settings, "enabled"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("tracing.enabled", err)
		}
		tracing.Enabled = val
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("tracing.endpoint", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("tracing.protocol", err)
		}
		tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return wrapSetting("tracing.service_name", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat(raw)
		if err != nil {
			return wrapSetting("tracing.sample_rate", err)
		}
		tracing.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("tracing.insecure", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return wrapSetting("tracing.propagate", err)
		}
		tracing.Propagate = val
	}
	return nil
}

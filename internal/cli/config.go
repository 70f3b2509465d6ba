package cli

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/apicontract/config"
	"github.com/kbukum/apicontract/contract"
	"github.com/kbukum/apicontract/httpclient"
	"github.com/kbukum/apicontract/observability"
	"github.com/kbukum/apicontract/version"
)

const serviceName = "contractctl"

// Config is read from contractctl.yaml, .env and CONTRACTCTL_* variables.
//
//	manifest: contracts.yaml
//	http:
//	  timeout: 10s
//	  retry: {max_attempts: 3}
//	contract:
//	  strict_path_parameters: true
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Manifest string                     `yaml:"manifest" mapstructure:"manifest"`
	HTTP     httpclient.Config          `yaml:"http" mapstructure:"http"`
	Contract contract.Config            `yaml:"contract" mapstructure:"contract"`
	Tracing  observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics  observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

func defaultConfig() Config {
	return Config{
		ServiceConfig: config.ServiceConfig{
			Name:        serviceName,
			Environment: "production",
		},
		Manifest: "contracts.yaml",
		Tracing:  observability.DefaultTracerConfig(serviceName),
		Metrics:  observability.DefaultMeterConfig(serviceName),
	}
}

// loadConfig merges defaults, config files, the environment and flags, in
// increasing priority.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	flags := cmd.Flags()
	var opts []config.LoaderOption
	if path, _ := flags.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path, _ := flags.GetString("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	if flags.Changed("manifest") {
		cfg.Manifest, _ = flags.GetString("manifest")
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	} else if cfg.Logging.Level == "" && !cfg.Debug {
		cfg.Logging.Level = "warn"
	}

	cfg.ApplyDefaults()
	if cfg.Contract.QueryParameterKey == "" {
		cfg.Contract.QueryParameterKey = cfg.HTTP.QueryKey
	}
	cfg.Contract.ApplyDefaults()
	if cfg.HTTP.QueryKey == "" {
		cfg.HTTP.QueryKey = cfg.Contract.QueryParameterKey
	}
	build := version.Get().Short()
	cfg.Tracing.ServiceVersion = firstNonEmpty(cfg.Version, build)
	cfg.Tracing.Environment = cfg.Environment
	cfg.Metrics.ServiceVersion = firstNonEmpty(cfg.Version, build)
	cfg.Metrics.Environment = cfg.Environment

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Contract.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

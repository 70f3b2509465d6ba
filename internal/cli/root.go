package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kbukum/apicontract/contract"
	"github.com/kbukum/apicontract/logger"
	"github.com/kbukum/apicontract/manifest"
	"github.com/kbukum/apicontract/observability"
	"github.com/kbukum/apicontract/version"
)

// Execute runs contractctl and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		PrintError(root.ErrOrStderr(), err)
	}
	return ExitCode(err)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Check, export and call API contracts declared in a manifest",
		Version:       version.Get().String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default: search for contractctl.yaml)")
	pf.String("env-file", "", "env file loaded before reading the environment")
	pf.StringP("manifest", "m", "contracts.yaml", "contract manifest")
	pf.BoolP("verbose", "v", false, "debug logging")

	for _, sub := range []*cobra.Command{newCheckCmd(), newOpenAPICmd(), newCallCmd()} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}
	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError("%v\n\n%s", err, c.UsageString())
}

// session is what every subcommand starts from: configuration, logging and
// the declared manifest.
type session struct {
	cfg       *Config
	log       *logger.Logger
	manifest  *manifest.Manifest
	api       *contract.API
	contracts []manifest.Contract
	shutdown  []func(context.Context) error
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging)
	log := logger.WithComponent("cli")

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	api := contract.NewAPI(contract.NewRegistry(contract.WithRegistryLogger(log)))
	contracts, err := m.Declare(api)
	if err != nil {
		return nil, err
	}
	log.Debug("manifest declared", logger.Fields("manifest", cfg.Manifest, "contracts", len(contracts)))

	return &session{cfg: cfg, log: log, manifest: m, api: api, contracts: contracts}, nil
}

// startTelemetry installs the OTLP exporters enabled in the configuration.
func (s *session) startTelemetry(ctx context.Context) (*observability.Metrics, error) {
	if s.cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &s.cfg.Tracing)
		if err != nil {
			return nil, err
		}
		s.shutdown = append(s.shutdown, tp.Shutdown)
	}
	if !s.cfg.Metrics.Enabled {
		return nil, nil
	}
	mp, err := observability.InitMeter(ctx, &s.cfg.Metrics)
	if err != nil {
		return nil, err
	}
	s.shutdown = append(s.shutdown, mp.Shutdown)
	return observability.NewMetrics(observability.Meter())
}

func (s *session) close(ctx context.Context) error {
	var errs []error
	for i := len(s.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, s.shutdown[i](ctx))
	}
	return errors.Join(errs...)
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/config"
	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/internal/logging"
	"github.com/wesleyorama2/booker/internal/output"
	"github.com/wesleyorama2/booker/internal/telemetry"
)

// runEnv is what every subcommand needs once flags are resolved.
type runEnv struct {
	cfg     *config.Config
	logger  *zap.Logger
	printer *output.Printer
	client  *booker.Client
}

// setup layers flags over the file and environment configuration and
// builds the shared client, logger and printer.
func setup(cmd *cobra.Command) (*runEnv, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate().Err(); err != nil {
		return nil, err
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	logger, err := logging.New(verbosity)
	if err != nil {
		return nil, err
	}

	client := booker.New(cfg.BaseURL,
		http.WithTimeout(cfg.Timeout.Std()),
		http.WithIdleConnsPerHost(cfg.Users),
	)

	return &runEnv{
		cfg:     cfg,
		logger:  logger,
		printer: output.NewPrinter(cmd.OutOrStdout(), format),
		client:  client,
	}, nil
}

// applyFlags copies every flag the user set onto cfg. Flags a command does
// not define are skipped.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.Timeout = config.Duration(d)
	}
	if changed("username") {
		cfg.Username, _ = flags.GetString("username")
	}
	if changed("password") {
		cfg.Password, _ = flags.GetString("password")
	}
	if changed("users") {
		cfg.Users, _ = flags.GetInt("users")
	}
	if changed("duration") {
		s, _ := flags.GetString("duration")
		d, err := config.ParseDurationString(s)
		if err != nil {
			return err
		}
		cfg.Duration = config.Duration(d)
		cfg.Attack.Duration = config.Duration(d)
	}
	if changed("pacing") {
		d, _ := flags.GetDuration("pacing")
		cfg.Pacing = config.Duration(d)
	}
	if changed("wait-min") {
		d, _ := flags.GetDuration("wait-min")
		cfg.Swarm.WaitMin = config.Duration(d)
	}
	if changed("wait-max") {
		d, _ := flags.GetDuration("wait-max")
		cfg.Swarm.WaitMax = config.Duration(d)
	}
	if changed("spawn-rate") {
		cfg.Swarm.SpawnRate, _ = flags.GetFloat64("spawn-rate")
	}
	if changed("weights") {
		cfg.Swarm.Weights, _ = flags.GetStringToInt("weights")
	}
	if changed("rate") {
		cfg.Attack.Rate, _ = flags.GetInt("rate")
	}
	return nil
}

// startMetrics serves /metrics on --metrics-addr. The exporter is nil and
// stop a no-op when the flag is empty.
func startMetrics(cmd *cobra.Command, logger *zap.Logger) (*telemetry.Exporter, func(), error) {
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		return nil, func() {}, nil
	}

	exporter := telemetry.NewExporter()
	if err := exporter.Start(addr); err != nil {
		return nil, nil, err
	}
	logger.Info("serving metrics", zap.String("addr", exporter.Addr()))

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	return exporter, stop, nil
}

func addMetricsFlag(cmd *cobra.Command) {
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oufit/oufit/pkg/config"
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/models"
	"github.com/oufit/oufit/pkg/stores"
	"github.com/oufit/oufit/pkg/telemetry"
)

func newFitCommand() *cobra.Command {
	opts := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an OU model to a time series",
		Long: `Fit one of the Ornstein-Uhlenbeck model variants to a CSV time series
with MCMC and print the posterior summary.

Prior hyperparameters have per-model defaults and can be overridden with
repeated --hyper flags. When a store is configured the run and its
marginal posteriors are persisted for later inspection with 'oufit runs'.`,
		Example: `  # Fit the damping/amplitude variant with default priors
  oufit fit --model ou_da --data series.csv --delta-t 0.1

  # Override a prior bound and persist the run
  oufit fit --model ou_ba --data series.csv --hyper a_bound=50 --store runs.db

  # Two-path variant sharing one damping rate
  oufit fit --model langevin_ig2 --data path1.csv --data2 path2.csv --delta-t 0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd.Context(), opts, os.Stdout)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runFit(ctx context.Context, opts *fitOptions, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig(cliVersion))
	if err != nil {
		return err
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()
	if cfg.Telemetry.MetricsEnabled {
		if err := tel.StartMetricsServer(); err != nil {
			return err
		}
	}
	ctx = tel.WithContext(ctx)

	builder, err := models.ByName(opts.model)
	if err != nil {
		return err
	}
	inputs, n, err := opts.buildInputs(builder.RequiredInputs())
	if err != nil {
		return err
	}

	eng := engine.New(builder, append(opts.samplerOptions(cfg),
		engine.WithLogger(tel.Logger.Zerolog()),
		engine.WithMetrics(tel.Metrics))...)

	// Build the graph up front so the build gets its own trace span;
	// Run then only rebinds the already-cached inputs.
	if err := telemetry.RecordBuildOperation(ctx, builder.Name(), func() error {
		return eng.CacheModel(inputs)
	}); err != nil {
		return err
	}

	store, err := opts.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	runID := uuid.New().String()
	started := time.Now()

	runCtx := telemetry.WithRunContext(ctx, runID, builder.Name())
	trace, runErr := eng.Run(runCtx, inputs)
	draws := 0
	if trace != nil {
		draws = trace.Len()
	}
	telemetry.EndRunContext(runCtx, runID, builder.Name(), draws, runErr)

	run := &stores.Run{
		ID:         runID,
		Model:      builder.Name(),
		DataPath:   opts.dataPath,
		DataPoints: n,
		Draws:      draws,
		Status:     stores.RunStatusRunning,
		StartedAt:  started,
		Metadata:   hyperJSON(inputs),
		CreatedAt:  started,
		UpdatedAt:  started,
	}

	if runErr != nil {
		if store != nil {
			msg := runErr.Error()
			now := time.Now()
			run.Status = stores.RunStatusFailed
			run.Error = &msg
			run.CompletedAt = &now
			if err := store.CreateRun(ctx, run); err != nil {
				tel.Logger.WithError(err).Warn("failed to record failed run")
			}
		}
		return runErr
	}

	run.Chains = len(trace.Chains)
	ic := telemetry.StartOperation(ctx, "trace.summarize", telemetry.AttrRunID.String(runID))
	posteriors, err := summarize(trace, opts.saveDraws)
	ic.End(err)
	if err != nil {
		return err
	}
	printSummary(out, posteriors, trace.Acceptance)

	if store != nil {
		if err := persistRun(ctx, store, run, trace, posteriors); err != nil {
			return err
		}
		tel.Logger.WithRunID(runID).WithModel(builder.Name()).Info("run persisted")
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oufit/oufit/pkg/config"
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/models"
	"github.com/oufit/oufit/pkg/stores"
	"github.com/oufit/oufit/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	opts := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refit a model whenever its data file changes",
		Long: `Watch the data file and refit the model on every change.

The model graph is compiled once on startup. Each change only rebinds
the new series into the existing graph before sampling again, so
successive fits skip the build step entirely.`,
		Example: `  # Refit on every save of series.csv
  oufit watch --model ou_da --data series.csv --delta-t 0.1

  # Keep the posteriors of every refit in a store
  oufit watch --model ou_ba --data series.csv --store runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, os.Stdout)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runWatch(ctx context.Context, opts *fitOptions, out io.Writer) error {
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

	eng := engine.New(builder, append(opts.samplerOptions(cfg),
		engine.WithLogger(tel.Logger.Zerolog()),
		engine.WithMetrics(tel.Metrics))...)

	store, err := opts.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	logger := tel.Logger.WithModel(builder.Name()).WithDataset(opts.dataPath)

	// First fit compiles the graph; refits reuse it.
	if err := fitOnce(ctx, eng, builder, opts, store, out); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.dataPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.dataPath, err)
	}
	if opts.data2Path != "" {
		if err := watcher.Add(opts.data2Path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", opts.data2Path, err)
		}
	}

	logger.Info("Watching data file for changes")

	return watchLoop(ctx, watcher.Events, watcher.Errors, refitDelay, logger,
		func(path string) {
			if tel.Events != nil {
				_ = tel.Events.PublishDataChanged(path)
			}
		},
		func() error {
			return fitOnce(ctx, eng, builder, opts, store, out)
		})
}

// refitDelay debounces refits. Editors often emit several writes per save.
const refitDelay = 500 * time.Millisecond

// watchLoop drives the debounced refit cycle. The timer fires back into
// the select, so refits run one at a time on the calling goroutine; the
// engine does not support concurrent Run. Writes arriving during a refit
// queue on the events channel and coalesce into the next one.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, delay time.Duration, logger *telemetry.Logger, changed func(string), refit func() error) error {
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.WithField("op", event.Op.String()).Debug("Data file changed")
			changed(event.Name)

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(delay)

		case <-timer.C:
			if err := refit(); err != nil {
				logger.WithError(err).Error("Refit failed")
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.WithError(err).Error("Watcher error")
		}
	}
}

// fitOnce rereads the series, runs the sampler on the shared engine and
// reports the posterior. Errors from a bad intermediate save, such as a
// truncated file or a shape mismatch, are returned for the caller to
// log so the watch loop survives them.
func fitOnce(ctx context.Context, eng *engine.Engine, builder engine.ModelBuilder, opts *fitOptions, store *stores.SQLiteStore, out io.Writer) error {
	inputs, n, err := opts.buildInputs(builder.RequiredInputs())
	if err != nil {
		return err
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
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(out, "\n%s  model=%s  n=%d\n", started.Format(time.RFC3339), builder.Name(), n)
	posteriors, err := summarize(trace, opts.saveDraws)
	if err != nil {
		return err
	}
	printSummary(out, posteriors, trace.Acceptance)

	if store != nil {
		run := &stores.Run{
			ID:         runID,
			Model:      builder.Name(),
			DataPath:   opts.dataPath,
			DataPoints: n,
			Draws:      draws,
			Chains:     len(trace.Chains),
			StartedAt:  started,
			Metadata:   hyperJSON(inputs),
			CreatedAt:  started,
			UpdatedAt:  started,
		}
		return persistRun(ctx, store, run, trace, posteriors)
	}
	return nil
}

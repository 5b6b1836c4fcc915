package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oufit/oufit/pkg/config"
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/sampler"
	"github.com/oufit/oufit/pkg/stores"
)

// fitOptions holds the flags shared by fit and watch.
type fitOptions struct {
	model        string
	dataPath     string
	data2Path    string
	deltaT       float64
	hyper        map[string]string
	draws        int
	warmUp       int
	chains       int
	targetAccept float64
	seed         uint64
	storePath    string
	saveDraws    bool
}

func (o *fitOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.model, "model", "m", "ou_da", "model variant to fit")
	cmd.Flags().StringVarP(&o.dataPath, "data", "d", "", "CSV file with the observed series (required)")
	cmd.Flags().StringVar(&o.data2Path, "data2", "", "CSV file with the second series (langevin_ig2 only)")
	cmd.Flags().Float64Var(&o.deltaT, "delta-t", 1.0, "sampling interval of the series")
	cmd.Flags().StringToStringVar(&o.hyper, "hyper", nil, "prior hyperparameter overrides (name=value)")
	cmd.Flags().IntVar(&o.draws, "draws", 0, "posterior draws per chain (default from config)")
	cmd.Flags().IntVar(&o.warmUp, "warm-up", 0, "warm-up iterations (default from config)")
	cmd.Flags().IntVar(&o.chains, "chains", 0, "number of chains (default from config)")
	cmd.Flags().Float64Var(&o.targetAccept, "target-accept", 0, "target acceptance rate (default from config)")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "random seed (default from clock)")
	cmd.Flags().StringVar(&o.storePath, "store", "", "sqlite file to persist the run to (default from config)")
	cmd.Flags().BoolVar(&o.saveDraws, "save-draws", false, "persist raw draws alongside summaries")
	_ = cmd.MarkFlagRequired("data")
}

// defaultHypers are the prior hyperparameters used when the flag does
// not override them.
var defaultHypers = map[string]map[string]float64{
	"ou_da": {"d_bound": 50, "a_bound": 20},
	"ou_ba": {"b_bound": 1, "a_bound": 20},
	"langevin_plus_noise_ig": {
		"aD": 3, "bD": 1, "aA": 2, "bA": 1, "aN": 3, "bN": 0.5,
	},
	"langevin_ig2": {
		"aD": 3, "bD": 1, "aA1": 2, "bA1": 1, "aA2": 2, "bA2": 1,
	},
}

// buildInputs assembles the engine inputs for one fit: the series under
// the variant's data input names, the sampling interval where required,
// and the prior hyperparameters with flag overrides applied.
func (o *fitOptions) buildInputs(required []string) (engine.Inputs, int, error) {
	x, err := readSeriesCSV(o.dataPath)
	if err != nil {
		return nil, 0, err
	}

	inputs := engine.Inputs{}
	for name, v := range defaultHypers[o.model] {
		inputs[name] = v
	}
	for name, raw := range o.hyper {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("bad hyperparameter %s=%q: %w", name, raw, err)
		}
		inputs[name] = v
	}

	for _, name := range required {
		switch name {
		case "x", "x1":
			inputs[name] = x
		case "x2":
			if o.data2Path == "" {
				return nil, 0, fmt.Errorf("model %s needs a second series: set --data2", o.model)
			}
			x2, err := readSeriesCSV(o.data2Path)
			if err != nil {
				return nil, 0, err
			}
			inputs[name] = x2
		case "delta_t":
			inputs[name] = o.deltaT
		case "N":
			inputs[name] = len(x)
		}
	}

	return inputs, len(x), nil
}

// samplerOptions maps the resolved settings onto engine options, with
// flags taking precedence over the config file.
func (o *fitOptions) samplerOptions(cfg *config.Config) []engine.Option {
	draws := cfg.Sampler.Draws
	if o.draws > 0 {
		draws = o.draws
	}
	warmUp := cfg.Sampler.WarmUp
	if o.warmUp > 0 {
		warmUp = o.warmUp
	}
	chains := cfg.Sampler.Chains
	if o.chains > 0 {
		chains = o.chains
	}
	target := cfg.Sampler.TargetAccept
	if o.targetAccept > 0 {
		target = o.targetAccept
	}
	seed := cfg.Sampler.Seed
	if o.seed != 0 {
		seed = o.seed
	}

	opts := []engine.Option{
		engine.WithDraws(draws),
		engine.WithWarmUp(warmUp),
		engine.WithChains(chains),
		engine.WithTargetAccept(target),
	}
	if seed != 0 {
		opts = append(opts, engine.WithSeed(seed))
	}
	return opts
}

// openStore opens and migrates the run store, or returns nil when no
// path is configured.
func (o *fitOptions) openStore(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	path := cfg.Store.Path
	if o.storePath != "" {
		path = o.storePath
	}
	if path == "" {
		return nil, nil
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// hyperJSON renders the scalar inputs as JSON for run metadata.
func hyperJSON(inputs engine.Inputs) string {
	scalars := map[string]float64{}
	for name, v := range inputs {
		switch t := v.(type) {
		case float64:
			scalars[name] = t
		case int:
			scalars[name] = float64(t)
		}
	}
	data, err := json.Marshal(scalars)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// summarize converts a trace into per-parameter posterior records.
func summarize(trace *sampler.Trace, withDraws bool) ([]*stores.Posterior, error) {
	posteriors := make([]*stores.Posterior, 0, len(trace.Names))
	for _, name := range trace.Names {
		mean, err := trace.Mean(name)
		if err != nil {
			return nil, err
		}
		std, err := trace.StdDev(name)
		if err != nil {
			return nil, err
		}
		q05, err := trace.Quantile(name, 0.05)
		if err != nil {
			return nil, err
		}
		q50, err := trace.Quantile(name, 0.50)
		if err != nil {
			return nil, err
		}
		q95, err := trace.Quantile(name, 0.95)
		if err != nil {
			return nil, err
		}

		p := &stores.Posterior{
			Param: name,
			Mean:  mean,
			Std:   std,
			Q05:   q05,
			Q50:   q50,
			Q95:   q95,
		}
		if withDraws {
			draws, err := trace.FlatColumn(name)
			if err != nil {
				return nil, err
			}
			p.Draws = stores.EncodeDraws(draws)
		}
		posteriors = append(posteriors, p)
	}
	return posteriors, nil
}

// printSummary writes the posterior summary table.
func printSummary(w io.Writer, posteriors []*stores.Posterior, acceptance float64) {
	fmt.Fprintf(w, "%-8s %12s %12s %12s %12s %12s\n",
		"param", "mean", "std", "q05", "q50", "q95")
	for _, p := range posteriors {
		fmt.Fprintf(w, "%-8s %12.5g %12.5g %12.5g %12.5g %12.5g\n",
			p.Param, p.Mean, p.Std, p.Q05, p.Q50, p.Q95)
	}
	fmt.Fprintf(w, "acceptance rate: %.3f\n", acceptance)
}

// persistRun writes a completed fit to the store: the run record, its
// result, and the marginal posteriors.
func persistRun(ctx context.Context, store *stores.SQLiteStore, run *stores.Run, trace *sampler.Trace, posteriors []*stores.Posterior) error {
	now := time.Now()
	run.Status = stores.RunStatusCompleted
	run.Acceptance = trace.Acceptance
	run.CompletedAt = &now
	run.UpdatedAt = now

	if err := store.CreateRun(ctx, run); err != nil {
		return err
	}
	return store.SavePosteriors(ctx, run.ID, posteriors)
}

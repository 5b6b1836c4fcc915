package sampler

import (
	"context"
	"fmt"
)

// Target is the posterior density a sampler draws from. The parameter
// vector is unconstrained; any support transforms are the target's
// concern. LogProb may return -Inf or NaN for parameters the target
// rejects outright.
type Target interface {
	// Dim is the length of the parameter vector.
	Dim() int

	// LogProb returns the (unnormalized) log-density at x.
	LogProb(x []float64) float64
}

// Recorder maps raw unconstrained draws to named columns for the trace.
// Targets that do not implement Recorder get identity recording with
// synthetic column names.
type Recorder interface {
	// ParamNames returns the column names of a recorded row.
	ParamNames() []string

	// Record maps an unconstrained draw to a recorded row. The returned
	// slice must have len(ParamNames()) elements and may be reused by the
	// caller only after copying.
	Record(x []float64) []float64
}

// Config carries the per-run tuning parameters for a sampler.
type Config struct {
	// Draws is the number of posterior draws to keep per chain.
	Draws int

	// WarmUp is the number of adaptation iterations run and discarded
	// before the kept draws.
	WarmUp int

	// Chains is the number of independent chains.
	Chains int

	// TargetAccept is the acceptance rate the warm-up adaptation steers
	// toward, in (0, 1).
	TargetAccept float64

	// Seed seeds the chain random sources deterministically. Chain i uses
	// Seed+i so chains differ but runs reproduce.
	Seed uint64

	// Reinit resets any adaptation state retained from a previous run on
	// the same sampler instance. When false, a compatible previous run's
	// tuned proposal scale and final positions carry over and warm-up is
	// skipped.
	Reinit bool

	// Initial is the starting point in unconstrained space. Empty means
	// the origin.
	Initial []float64
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Draws <= 0 {
		return fmt.Errorf("draws must be positive, got %d", c.Draws)
	}
	if c.Chains <= 0 {
		return fmt.Errorf("chains must be positive, got %d", c.Chains)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("target acceptance must be in (0,1), got %v", c.TargetAccept)
	}
	return nil
}

// Sampler draws from a posterior. Implementations block until sampling
// completes or ctx is cancelled; a cancelled run returns no trace.
type Sampler interface {
	Sample(ctx context.Context, target Target, cfg Config) (*Trace, error)
}

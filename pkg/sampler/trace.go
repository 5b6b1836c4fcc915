package sampler

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Trace holds posterior draws, one matrix per chain with a row per draw
// and a column per recorded parameter. It is produced by a Sampler and not
// retained anywhere else; callers own it after the run returns.
type Trace struct {
	// Names are the parameter column names, shared by all chains.
	Names []string

	// Chains holds one draws-by-parameters matrix per chain.
	Chains []*mat.Dense

	// Acceptance is the post-warm-up acceptance rate averaged over
	// chains. Diagnostic only.
	Acceptance float64
}

// Len returns the total number of draws across all chains.
func (t *Trace) Len() int {
	n := 0
	for _, c := range t.Chains {
		r, _ := c.Dims()
		n += r
	}
	return n
}

// column returns the index of the named parameter.
func (t *Trace) column(name string) (int, error) {
	for i, n := range t.Names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("trace has no parameter %q", name)
}

// Column returns the draws of one parameter from one chain.
func (t *Trace) Column(chain int, name string) ([]float64, error) {
	if chain < 0 || chain >= len(t.Chains) {
		return nil, fmt.Errorf("trace has no chain %d", chain)
	}
	j, err := t.column(name)
	if err != nil {
		return nil, err
	}
	m := t.Chains[chain]
	r, _ := m.Dims()
	out := make([]float64, r)
	mat.Col(out, j, m)
	return out, nil
}

// FlatColumn returns the draws of one parameter concatenated across
// chains.
func (t *Trace) FlatColumn(name string) ([]float64, error) {
	j, err := t.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, t.Len())
	for _, m := range t.Chains {
		r, _ := m.Dims()
		col := make([]float64, r)
		mat.Col(col, j, m)
		out = append(out, col...)
	}
	return out, nil
}

// Mean returns the posterior mean of the named parameter across all
// chains.
func (t *Trace) Mean(name string) (float64, error) {
	col, err := t.FlatColumn(name)
	if err != nil {
		return math.NaN(), err
	}
	return stat.Mean(col, nil), nil
}

// StdDev returns the posterior standard deviation of the named parameter
// across all chains.
func (t *Trace) StdDev(name string) (float64, error) {
	col, err := t.FlatColumn(name)
	if err != nil {
		return math.NaN(), err
	}
	return stat.StdDev(col, nil), nil
}

// Quantile returns the empirical posterior quantile of the named
// parameter across all chains, p in [0, 1].
func (t *Trace) Quantile(name string, p float64) (float64, error) {
	col, err := t.FlatColumn(name)
	if err != nil {
		return math.NaN(), err
	}
	sort.Float64s(col)
	return stat.Quantile(p, stat.Empirical, col, nil), nil
}

package engine

import (
	"fmt"
	"math"
)

// Param is a scalar hyperparameter of a prior: either a constant or a
// named input resolved through its data container at every evaluation.
// Input-backed params keep prior hyperparameters rebindable between runs
// the same way observed data is.
type Param struct {
	container *DataContainer
	constant  float64
}

// Const returns a constant-valued Param.
func Const(v float64) Param { return Param{constant: v} }

// Value resolves the parameter.
func (p Param) Value() float64 {
	if p.container != nil {
		return p.container.Scalar()
	}
	return p.constant
}

// freeVar is one free (prior-distributed) variable of the graph. size > 1
// means a latent vector, stored contiguously in the unconstrained
// parameter vector.
type freeVar struct {
	name      string
	size      int
	offset    int
	logPrior  func(x float64) float64 // nil for latent vectors
	transform func() Transform        // resolved per evaluation
}

// detNode is a named deterministic transform of earlier nodes, computed
// per draw and recorded in the trace.
type detNode struct {
	name string
	fn   func(*Env) float64
}

// likNode is one log-likelihood term.
type likNode struct {
	name string
	fn   func(*Env) float64
}

// Env gives deterministic and likelihood functions access to the current
// draw's constrained values and to the observed data containers.
type Env struct {
	graph  *Graph
	values map[string][]float64
}

// Value returns the current scalar value of a free or deterministic node.
func (e *Env) Value(name string) float64 {
	v, ok := e.values[name]
	if !ok || len(v) != 1 {
		panic(fmt.Sprintf("engine: no scalar node %q in graph", name))
	}
	return v[0]
}

// Vector returns the current value of a vector node (a latent path).
func (e *Env) Vector(name string) []float64 {
	v, ok := e.values[name]
	if !ok {
		panic(fmt.Sprintf("engine: no node %q in graph", name))
	}
	return v
}

// Data returns the observed data bound to the named input container.
func (e *Env) Data(name string) []float64 {
	c, err := e.graph.inputs.Get(name)
	if err != nil {
		panic(fmt.Sprintf("engine: likelihood references unbound input %q", name))
	}
	return c.Get()
}

// Graph is a built model: free variables with priors and support
// transforms, deterministic nodes, and likelihood terms, all bound to the
// engine's data containers. The structure is immutable after Build; only
// the containers' contents change between runs.
//
// Graph implements the sampler's Target and Recorder contracts: LogProb
// evaluates the unnormalized log-posterior over the unconstrained
// parameter vector, and Record maps a draw to the constrained values of
// all scalar free variables followed by all deterministic nodes. Latent
// vectors are sampled but not recorded.
type Graph struct {
	marker string
	inputs *InputSet
	free   []*freeVar
	dets   []*detNode
	liks   []*likNode
	dim    int
}

// Marker returns the identity sentinel assigned when the graph was built.
// Two runs reusing the same cached graph observe the same marker.
func (g *Graph) Marker() string { return g.marker }

// Dim returns the length of the unconstrained parameter vector.
func (g *Graph) Dim() int { return g.dim }

// ParamNames returns the recorded column names: scalar free variables in
// declaration order, then deterministic nodes in declaration order.
func (g *Graph) ParamNames() []string {
	names := make([]string, 0, len(g.free)+len(g.dets))
	for _, f := range g.free {
		if f.size == 1 {
			names = append(names, f.name)
		}
	}
	for _, d := range g.dets {
		names = append(names, d.name)
	}
	return names
}

// LogProb returns the unnormalized log-posterior at the unconstrained
// point z: prior log-densities plus change-of-variable terms plus all
// likelihood terms. Out-of-support draws yield -Inf.
func (g *Graph) LogProb(z []float64) float64 {
	env, lp := g.constrain(z)
	if math.IsInf(lp, -1) || math.IsNaN(lp) {
		return math.Inf(-1)
	}
	for _, d := range g.dets {
		env.values[d.name] = []float64{d.fn(env)}
	}
	for _, l := range g.liks {
		lp += l.fn(env)
	}
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// Record maps an unconstrained draw to the constrained trace row.
func (g *Graph) Record(z []float64) []float64 {
	env, _ := g.constrain(z)
	for _, d := range g.dets {
		env.values[d.name] = []float64{d.fn(env)}
	}
	row := make([]float64, 0, len(g.free)+len(g.dets))
	for _, f := range g.free {
		if f.size == 1 {
			row = append(row, env.values[f.name][0])
		}
	}
	for _, d := range g.dets {
		row = append(row, env.values[d.name][0])
	}
	return row
}

// constrain decodes z into constrained node values and accumulates the
// prior and Jacobian contributions.
func (g *Graph) constrain(z []float64) (*Env, float64) {
	env := &Env{graph: g, values: make(map[string][]float64, len(g.free)+len(g.dets))}
	lp := 0.0
	for _, f := range g.free {
		t := f.transform()
		vals := make([]float64, f.size)
		for j := 0; j < f.size; j++ {
			zj := z[f.offset+j]
			vals[j] = t.Constrain(zj)
			lp += t.LogJacobian(zj)
			if f.logPrior != nil {
				lp += f.logPrior(vals[j])
			}
		}
		env.values[f.name] = vals
	}
	return env, lp
}

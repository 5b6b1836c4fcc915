package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

// GraphBuilder constructs a Graph. It is only valid inside the function
// passed to Build; the graph is finalized when that function returns,
// whether or not construction succeeded. Builder methods record the first
// error and turn subsequent calls into no-ops, so variants can declare
// their nodes without per-call error plumbing.
type GraphBuilder struct {
	graph     *Graph
	inputs    *InputSet
	err       error
	finalized bool
}

// Build runs fn against a fresh builder bound to inputs and returns the
// finalized graph. Construction errors, including ones raised by fn
// itself, surface as build-failed errors; the builder is unusable
// afterwards either way.
func Build(inputs *InputSet, fn func(b *GraphBuilder) error) (*Graph, error) {
	b := &GraphBuilder{
		graph:  &Graph{marker: uuid.NewString(), inputs: inputs},
		inputs: inputs,
	}
	defer func() { b.finalized = true }()

	if err := fn(b); err != nil {
		if b.err == nil {
			b.err = err
		}
	}
	if b.err != nil {
		var ie *InferenceError
		if errors.As(b.err, &ie) {
			return nil, b.err
		}
		return nil, NewBuildFailedError("model construction failed", b.err)
	}
	if b.graph.dim == 0 {
		return nil, NewBuildFailedError("model has no free parameters", nil)
	}
	return b.graph, nil
}

// Input returns a Param backed by the named input's container, resolved
// at every density evaluation. Rebinding the input between runs therefore
// changes the prior without a graph rebuild.
func (b *GraphBuilder) Input(name string) Param {
	if b.guard("Input") {
		return Param{}
	}
	c, err := b.inputs.Get(name)
	if err != nil {
		b.err = err
		return Param{}
	}
	return Param{container: c}
}

// Uniform declares a free scalar with a Uniform(lo, hi) prior, sampled
// through an interval transform.
func (b *GraphBuilder) Uniform(name string, lo, hi Param) {
	if b.guard("Uniform") {
		return
	}
	b.addFree(&freeVar{
		name: name,
		size: 1,
		logPrior: func(x float64) float64 {
			return distuv.Uniform{Min: lo.Value(), Max: hi.Value()}.LogProb(x)
		},
		transform: func() Transform {
			return intervalTransform{lo: lo.Value(), hi: hi.Value()}
		},
	})
}

// Gamma declares a free scalar with a Gamma(alpha, beta) prior, sampled
// through a log transform.
func (b *GraphBuilder) Gamma(name string, alpha, beta Param) {
	if b.guard("Gamma") {
		return
	}
	b.addFree(&freeVar{
		name: name,
		size: 1,
		logPrior: func(x float64) float64 {
			return distuv.Gamma{Alpha: alpha.Value(), Beta: beta.Value()}.LogProb(x)
		},
		transform: func() Transform { return logTransform{} },
	})
}

// InverseGamma declares a free scalar with an InverseGamma(alpha, beta)
// prior, sampled through a log transform.
func (b *GraphBuilder) InverseGamma(name string, alpha, beta Param) {
	if b.guard("InverseGamma") {
		return
	}
	b.addFree(&freeVar{
		name: name,
		size: 1,
		logPrior: func(x float64) float64 {
			return distuv.InverseGamma{Alpha: alpha.Value(), Beta: beta.Value()}.LogProb(x)
		},
		transform: func() Transform { return logTransform{} },
	})
}

// Latent declares a free vector of length n with no prior of its own; its
// density comes from the likelihood terms that reference it. Latent
// vectors are sampled but not recorded in the trace.
func (b *GraphBuilder) Latent(name string, n int) {
	if b.guard("Latent") {
		return
	}
	if n <= 0 {
		b.err = NewInvalidParameterError(
			fmt.Sprintf("latent vector %q must have positive length, got %d", name, n), nil)
		return
	}
	b.addFree(&freeVar{
		name:      name,
		size:      n,
		transform: func() Transform { return identityTransform{} },
	})
}

// Deterministic declares a named scalar computed from earlier nodes on
// every draw and recorded in the trace.
func (b *GraphBuilder) Deterministic(name string, fn func(e *Env) float64) {
	if b.guard("Deterministic") {
		return
	}
	if b.taken(name) {
		return
	}
	b.graph.dets = append(b.graph.dets, &detNode{name: name, fn: fn})
}

// Likelihood attaches a named log-likelihood term. The function reads
// parameter values and observed data through the Env, so rebound data is
// picked up without rebuilding.
func (b *GraphBuilder) Likelihood(name string, fn func(e *Env) float64) {
	if b.guard("Likelihood") {
		return
	}
	b.graph.liks = append(b.graph.liks, &likNode{name: name, fn: fn})
}

// NormalObserved attaches a Gaussian observation term: every element of
// the named data input is observed as Normal(mean[i], sigma), where mean
// is a vector node and sigma a scalar node.
func (b *GraphBuilder) NormalObserved(name, dataInput, meanNode, sigmaNode string) {
	if b.guard("NormalObserved") {
		return
	}
	if _, err := b.inputs.Get(dataInput); err != nil {
		b.err = err
		return
	}
	b.Likelihood(name, func(e *Env) float64 {
		data := e.Data(dataInput)
		mean := e.Vector(meanNode)
		sigma := e.Value(sigmaNode)
		if len(mean) != len(data) {
			return math.Inf(-1)
		}
		norm := distuv.Normal{Mu: 0, Sigma: sigma}
		ll := 0.0
		for i := range data {
			ll += norm.LogProb(data[i] - mean[i])
		}
		return ll
	})
}

// guard records misuse of a finalized builder.
func (b *GraphBuilder) guard(op string) bool {
	if b.finalized {
		panic(fmt.Sprintf("engine: GraphBuilder.%s called outside Build", op))
	}
	return b.err != nil
}

// taken records a duplicate node name as a build error.
func (b *GraphBuilder) taken(name string) bool {
	for _, f := range b.graph.free {
		if f.name == name {
			b.err = NewBuildFailedError(fmt.Sprintf("duplicate node name %q", name), nil)
			return true
		}
	}
	for _, d := range b.graph.dets {
		if d.name == name {
			b.err = NewBuildFailedError(fmt.Sprintf("duplicate node name %q", name), nil)
			return true
		}
	}
	return false
}

// addFree appends a free variable and assigns its offset.
func (b *GraphBuilder) addFree(f *freeVar) {
	if b.taken(f.name) {
		return
	}
	f.offset = b.graph.dim
	b.graph.free = append(b.graph.free, f)
	b.graph.dim += f.size
}

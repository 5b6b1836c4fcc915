package ou

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Simulate draws a stationary OU path of length n with stationary variance
// a and lag-1 correlation b. The first point is drawn from the stationary
// marginal, so the whole path is a sample from the joint density that
// LogLikelihood evaluates. A nil src falls back to the global generator.
func Simulate(n int, a, b float64, src rand.Source) []float64 {
	if n <= 0 {
		return nil
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	x := make([]float64, n)
	x[0] = math.Sqrt(a) * norm.Rand()
	sd := math.Sqrt(a * (1 - b*b))
	for i := 1; i < n; i++ {
		x[i] = b*x[i-1] + sd*norm.Rand()
	}
	return x
}

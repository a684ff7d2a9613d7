package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RandomStream is the only source of randomness of a run. Every draw of a
// run goes through it in a fixed order, so a seed reproduces a table exactly.
type RandomStream struct {
	src rand.Source
	rng *rand.Rand
}

// NewRandomStream creates a stream keyed by seed. A nil seed draws the key
// from the runtime's entropy source and the run is not reproducible.
func NewRandomStream(seed *int64) *RandomStream {
	var hi, lo uint64
	if seed != nil {
		hi = uint64(*seed)
		lo = hi ^ 0x9e3779b97f4a7c15
	} else {
		hi, lo = rand.Uint64(), rand.Uint64()
	}
	src := rand.NewPCG(hi, lo)
	return &RandomStream{src: src, rng: rand.New(src)}
}

// Float64 returns a uniform draw in [0, 1).
func (r *RandomStream) Float64() float64 {
	return r.rng.Float64()
}

// IntRange returns a uniform integer in [lo, hi).
func (r *RandomStream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.IntN(hi-lo)
}

// Poisson draws a Poisson variate with mean lambda.
func (r *RandomStream) Poisson(lambda float64) int {
	if !(lambda > 0) {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: r.src}.Rand())
}

// Binomial draws the number of successes in n trials of probability p.
func (r *RandomStream) Binomial(n int, p float64) int {
	switch {
	case n <= 0 || !(p > 0):
		return 0
	case p >= 1:
		return n
	}
	return int(distuv.Binomial{N: float64(n), P: p, Src: r.src}.Rand())
}

// Normal draws zero-mean Gaussian noise with standard deviation sigma.
func (r *RandomStream) Normal(sigma float64) float64 {
	if !(sigma > 0) {
		return 0
	}
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: r.src}.Rand()
}

// Choice returns an index drawn proportionally to weights, or -1 when all
// weights are zero. No draw is consumed in that case.
func (r *RandomStream) Choice(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if !(total > 0) {
		return -1
	}

	u := r.rng.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if u < acc {
			return i
		}
	}
	return last
}

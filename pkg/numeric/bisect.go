package numeric

import "math"

// DefaultBisectIterations matches the fixed-step solver used by the valuation engine.
const DefaultBisectIterations = 30

// BisectOptions bounds the bisection search.
type BisectOptions struct {
	// Iterations caps the number of halvings. Zero means DefaultBisectIterations.
	Iterations int
	// Tolerance stops early once the bracket is narrower than this width.
	// Zero runs every iteration.
	Tolerance float64
}

// Func is evaluated by Bisect. ok=false marks x as outside the function's domain.
type Func func(x float64) (value float64, ok bool)

// Bisect searches [lo, hi] for x where f(x) equals target.
//
// Precondition: f is monotonically increasing and finite on [lo, hi]. Monotonicity
// is not checked: a target outside [f(lo), f(hi)] converges onto the nearest bound.
// The search aborts with ok=false if f is undefined, non-finite or non-positive
// at either bound or at any visited midpoint.
//
// After n iterations the returned midpoint lies within (hi-lo)/2^(n+1) of the root.
func Bisect(f Func, target, lo, hi float64, opts BisectOptions) (float64, bool) {
	if lo > hi {
		lo, hi = hi, lo
	}
	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = DefaultBisectIterations
	}

	if !positive(f(lo)) || !positive(f(hi)) {
		return 0, false
	}

	for i := 0; i < iterations; i++ {
		mid := (lo + hi) / 2
		v, ok := f(mid)
		if !positive(v, ok) {
			return 0, false
		}
		if v > target {
			hi = mid
		} else {
			lo = mid
		}
		if opts.Tolerance > 0 && hi-lo <= opts.Tolerance {
			break
		}
	}
	return (lo + hi) / 2, true
}

func positive(v float64, ok bool) bool {
	return ok && Finite(v) && v > 0
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

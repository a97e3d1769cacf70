package wrappers

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// runningMeanStd tracks the element-wise mean and variance of a stream of vectors
type runningMeanStd struct {
	mean     []float64
	variance []float64
	count    float64
}

func newRunningMeanStd(n int) *runningMeanStd {
	variance := make([]float64, n)
	for i := range variance {
		variance[i] = 1
	}
	return &runningMeanStd{
		mean:     make([]float64, n),
		variance: variance,
		count:    1e-4,
	}
}

func (r *runningMeanStd) update(x []float64) {
	total := r.count + 1
	delta := make([]float64, len(x))
	floats.SubTo(delta, x, r.mean)
	for i, d := range delta {
		m2 := r.variance[i]*r.count + d*d*r.count/total
		r.mean[i] += d / total
		r.variance[i] = m2 / total
	}
	r.count = total
}

// normalize writes (x - mean) / sqrt(var + epsilon) into dst
func (r *runningMeanStd) normalize(dst, x []float64, epsilon float64) {
	floats.SubTo(dst, x, r.mean)
	for i := range dst {
		dst[i] /= math.Sqrt(r.variance[i] + epsilon)
	}
}

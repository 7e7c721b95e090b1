// Package stats keeps running statistics for benchmark runs.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford's algorithm) that also
// keeps its samples for quantiles.
type Statistic struct {
	n       int
	mean    float64
	m2      float64
	min     float64
	max     float64
	samples []float64
}

func (s *Statistic) Push(val float64) {
	s.n++
	if s.n == 1 {
		s.min, s.max = val, val
	} else {
		s.min = math.Min(s.min, val)
		s.max = math.Max(s.max, val)
	}
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
	s.samples = append(s.samples, val)
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Min() float64 {
	return s.min
}

func (s *Statistic) Max() float64 {
	return s.max
}

func (s *Statistic) Iterations() int {
	return s.n
}

// Quantile returns the empirical p-quantile, p in [0, 1].
func (s *Statistic) Quantile(p float64) float64 {
	if s.n == 0 {
		return 0.0
	}
	sorted := slices.Clone(s.samples)
	slices.Sort(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ConfidenceInterval returns the half-width of the confidence interval of
// the mean at the given percentage, e.g. 95.
func (s *Statistic) ConfidenceInterval(pct float64) float64 {
	return ZVal(pct) * s.StandardError()
}

// Summary is a snapshot of a Statistic for reporting.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Stdev  float64 `json:"stdev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
	CI95   float64 `json:"ci95"`
}

func (s *Statistic) Summary() Summary {
	return Summary{
		N:      s.n,
		Mean:   s.mean,
		Stdev:  s.Stdev(),
		Min:    s.min,
		Median: s.Quantile(0.5),
		P95:    s.Quantile(0.95),
		Max:    s.max,
		CI95:   s.ConfidenceInterval(95),
	}
}

// Package distribution wraps a caller-supplied probability distribution over
// real vectors. It is intentionally opaque: the engine never inspects a
// Distribution's shape, only samples from it and compares relative densities.
package distribution

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrMissingDimension is returned by Sample when neither SetDimension nor
// SetSeedDimension has been called.
var ErrMissingDimension = errors.New("distribution: dimension not set")

// ErrInvalidBounds is returned by Uniform when the bounds slice has odd length.
var ErrInvalidBounds = errors.New("distribution: bounds must be a flat sequence of (lo, hi) pairs")

// SampleFunc maps a uniform seed vector to a point drawn from the distribution.
type SampleFunc func(seed []float64) []float64

// DensityFunc returns the relative likelihood of a point under the distribution.
// Only ratios between outputs are meaningful; this is not a normalized PDF.
type DensityFunc func(point []float64) float64

// Distribution is a pair of closures (sample, density) plus the dimension
// metadata needed to draw a seed vector. Obtain one with New and configure it
// via the Set* methods: in the zero value both dimensions are 0 rather than
// unset, so the seed dimension 0 takes precedence over SetDimension.
type Distribution struct {
	dimension     int
	seedDimension int
	sampleFn      SampleFunc
	densityFn     DensityFunc
}

// New returns an empty Distribution to be configured via the Set* methods.
func New() *Distribution {
	return &Distribution{dimension: -1, seedDimension: -1}
}

// SetDimension sets the dimension used as a fallback seed dimension when
// SetSeedDimension has not been called.
func (d *Distribution) SetDimension(dimension int) *Distribution {
	d.dimension = dimension
	return d
}

// SetSeedDimension sets the length of the uniform seed vector passed to the
// sample function, taking precedence over the dimension set by SetDimension.
func (d *Distribution) SetSeedDimension(seedDimension int) *Distribution {
	d.seedDimension = seedDimension
	return d
}

// SetSampleFn sets the function mapping a uniform[0,1) seed to a sample.
func (d *Distribution) SetSampleFn(fn SampleFunc) *Distribution {
	d.sampleFn = fn
	return d
}

// SetDensityFn sets the relative-density function.
func (d *Distribution) SetDensityFn(fn DensityFunc) *Distribution {
	d.densityFn = fn
	return d
}

// Sample draws a seed vector of independent uniform[0,1) coordinates — whose
// length is the seed dimension if set, else the dimension — and returns
// sampleFn(seed).
func (d *Distribution) Sample(rng *rand.Rand) ([]float64, error) {
	n := d.seedDimension
	if n < 0 {
		n = d.dimension
	}
	if n < 0 {
		return nil, ErrMissingDimension
	}

	seed := make([]float64, n)
	for i := range seed {
		seed[i] = rng.Float64()
	}
	return d.sampleFn(seed), nil
}

// Density returns the relative density of this distribution at point.
func (d *Distribution) Density(point []float64) float64 {
	return d.densityFn(point)
}

// Uniform builds a Distribution uniform over a box described by bounds, a
// flat sequence of (lo, hi) pairs — one pair per dimension. Sampling linearly
// maps the seed into the box; density is 1 inside the box, 0 outside.
func Uniform(bounds []float64) (*Distribution, error) {
	if len(bounds)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d values", ErrInvalidBounds, len(bounds))
	}

	dim := len(bounds) / 2
	los := make([]float64, dim)
	his := make([]float64, dim)
	for i := 0; i < dim; i++ {
		los[i] = bounds[2*i]
		his[i] = bounds[2*i+1]
	}

	d := New().SetDimension(dim)
	d.SetSampleFn(func(seed []float64) []float64 {
		point := make([]float64, dim)
		for i := 0; i < dim; i++ {
			point[i] = los[i] + seed[i]*(his[i]-los[i])
		}
		return point
	})
	d.SetDensityFn(func(point []float64) float64 {
		for i := 0; i < dim; i++ {
			if point[i] < los[i] || point[i] >= his[i] {
				return 0
			}
		}
		return 1
	})
	return d, nil
}

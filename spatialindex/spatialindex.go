// Package spatialindex maps integer ids to points in R^d and answers nearest
// neighbor queries by exact linear scan. The engine's scale never warrants
// anything fancier; a flat slice and squared Euclidean distance are
// sufficient.
package spatialindex

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmpty is returned by Closest/ClosestDistance when the index holds no points.
var ErrEmpty = errors.New("spatialindex: index is empty")

// ErrDimensionMismatch is returned when a point's length does not match the
// dimension pinned by the first Add, or when Distance is given unequal-length vectors.
var ErrDimensionMismatch = errors.New("spatialindex: dimension mismatch")

type entry struct {
	id    int
	point []float64
}

// SpatialIndex is a flat, append-only collection of (id, point) pairs.
type SpatialIndex struct {
	dimension int
	entries   []entry
}

// New returns an empty SpatialIndex whose dimension is pinned by the first Add.
func New() *SpatialIndex {
	return &SpatialIndex{dimension: -1}
}

// Add appends id/point to the index. The first call pins the dimension; later
// calls with a differently-sized point fail with ErrDimensionMismatch.
func (s *SpatialIndex) Add(id int, point []float64) error {
	if s.dimension < 0 {
		s.dimension = len(point)
	} else if len(point) != s.dimension {
		return fmt.Errorf("%w: index is dimension %d, got %d", ErrDimensionMismatch, s.dimension, len(point))
	}
	s.entries = append(s.entries, entry{id: id, point: point})
	return nil
}

// Len returns the number of points in the index.
func (s *SpatialIndex) Len() int {
	return len(s.entries)
}

// Closest returns the id and point of the nearest-neighbor entry by squared
// Euclidean distance, breaking ties by insertion order (lowest index wins).
func (s *SpatialIndex) Closest(query []float64) (id int, point []float64, err error) {
	if len(s.entries) == 0 {
		return 0, nil, ErrEmpty
	}
	if len(query) != s.dimension {
		return 0, nil, fmt.Errorf("%w: index is dimension %d, got %d", ErrDimensionMismatch, s.dimension, len(query))
	}

	bestIdx := 0
	bestDist := squaredDistance(query, s.entries[0].point)
	for i := 1; i < len(s.entries); i++ {
		d := squaredDistance(query, s.entries[i].point)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return s.entries[bestIdx].id, s.entries[bestIdx].point, nil
}

// ClosestDistance returns the Euclidean distance from query to its nearest
// neighbor in the index.
func (s *SpatialIndex) ClosestDistance(query []float64) (float64, error) {
	_, point, err := s.Closest(query)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(squaredDistance(query, point)), nil
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// Distance returns the Euclidean distance between two equal-length vectors.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return math.Sqrt(squaredDistance(a, b)), nil
}

// Package graph builds adjacency matrices and their normalized Laplacian
// operators over the kept-node set. Every adjacency is square with 0/1
// entries before Laplacian conversion.
package graph

import (
	"math"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

const earthRadiusMeters = 6371000.0

// GreatCircleMeters returns the great-circle distance between two
// lat/lng points in meters.
func GreatCircleMeters(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}

// LatLng is a node coordinate pair in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// DistanceAdjacent connects two nodes when their great-circle distance is
// at most threshold meters. Nearby means connected; the matrix is
// symmetric with a unit diagonal (a node is within any non-negative
// threshold of itself).
func DistanceAdjacent(coords []LatLng, threshold float64) *mat.Dense {
	n := len(coords)
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := GreatCircleMeters(coords[i].Lat, coords[i].Lng, coords[j].Lat, coords[j].Lng)
			if d <= threshold {
				a.Set(i, j, 1)
				a.Set(j, i, 1)
			}
		}
	}
	return a
}

// CorrelationAdjacent connects two nodes when the Pearson correlation of
// their series over the given window exceeds threshold. The input is a
// time-major [T, nodes] tensor; a constant series correlates with nothing.
func CorrelationAdjacent(series *tensor.Tensor, threshold float64) (*mat.Dense, error) {
	if series.NDim() != 2 {
		return nil, errs.Shape("correlation series", []int{-1, -1}, series.Shape())
	}
	T := series.Dim(0)
	n := series.Dim(1)
	if T < 2 {
		return nil, errs.Data("correlation series", "need at least 2 slots, have %d", T)
	}

	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = make([]float64, T)
		for t := 0; t < T; t++ {
			cols[j][t] = series.At(t, j)
		}
	}

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := stat.Correlation(cols[i], cols[j], nil)
			if !math.IsNaN(r) && r > threshold {
				a.Set(i, j, 1)
				a.Set(j, i, 1)
			}
		}
	}
	return a, nil
}

// InteractionAdjacent symmetrizes a directed interaction-count matrix as
// counts + countsᵀ and connects node pairs whose total exceeds threshold.
func InteractionAdjacent(counts *mat.Dense, threshold float64) (*mat.Dense, error) {
	r, c := counts.Dims()
	if r != c {
		return nil, errs.Shape("interaction counts", []int{r, r}, []int{r, c})
	}
	a := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			if counts.At(i, j)+counts.At(j, i) > threshold {
				a.Set(i, j, 1)
			}
		}
	}
	return a, nil
}

// AdjacentToLaplacian converts an adjacency matrix into the normalized
// graph operator L = I - D^{-1/2} A D^{-1/2}, where D is the degree
// matrix. Isolated nodes get a zero inverse-root degree instead of an
// infinity, leaving their row equal to the identity row.
func AdjacentToLaplacian(a *mat.Dense) (*mat.Dense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, errs.Shape("adjacency", []int{r, r}, []int{r, c})
	}
	invRoot := make([]float64, r)
	for i := 0; i < r; i++ {
		deg := 0.0
		for j := 0; j < c; j++ {
			deg += a.At(j, i)
		}
		if deg > 0 {
			invRoot[i] = 1 / math.Sqrt(deg)
		}
	}

	l := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			v := -invRoot[i] * a.At(i, j) * invRoot[j]
			if i == j {
				v += 1
			}
			l.Set(i, j, v)
		}
	}
	return l, nil
}

// Reindex keeps only the given rows and columns of a square matrix, in
// order, as used when restricting a static graph to the active node set.
func Reindex(m *mat.Dense, index []int) *mat.Dense {
	out := mat.NewDense(len(index), len(index), nil)
	for i, oi := range index {
		for j, oj := range index {
			out.Set(i, j, m.At(oi, oj))
		}
	}
	return out
}

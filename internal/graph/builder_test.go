package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

func TestGreatCircleMeters(t *testing.T) {
	// one degree of latitude is close to 111.2 km
	d := GreatCircleMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
	assert.Equal(t, 0.0, GreatCircleMeters(40, -74, 40, -74))
}

// Nearby means connected: distance at most the threshold sets the edge.
func TestDistanceAdjacentDirection(t *testing.T) {
	coords := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0.005, Lng: 0}, // ~556 m from node 0
		{Lat: 0.02, Lng: 0},  // ~2.2 km from node 0
	}
	a := DistanceAdjacent(coords, 1000)

	assert.Equal(t, 1.0, a.At(0, 1))
	assert.Equal(t, 1.0, a.At(1, 0))
	assert.Equal(t, 0.0, a.At(0, 2))
	assert.Equal(t, 0.0, a.At(2, 0))
	assert.Equal(t, 1.0, a.At(0, 0), "a node is within any threshold of itself")
}

func TestCorrelationAdjacent(t *testing.T) {
	T := 48
	series := tensor.New(T, 3)
	for i := 0; i < T; i++ {
		v := math.Sin(float64(i) / 4)
		series.Set(v, i, 0)
		series.Set(v*2+1, i, 1) // perfectly correlated with node 0
		series.Set(-v, i, 2)    // anti-correlated
	}

	a, err := CorrelationAdjacent(series, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.At(0, 1))
	assert.Equal(t, 0.0, a.At(0, 2))
	assert.Equal(t, 1.0, a.At(2, 2))
}

// Building the correlation graph from a permuted node order and
// un-permuting the result must reproduce the original adjacency.
func TestCorrelationAdjacentPermutationConsistency(t *testing.T) {
	T, n := 60, 4
	series := tensor.New(T, n)
	for i := 0; i < T; i++ {
		for j := 0; j < n; j++ {
			series.Set(math.Sin(float64(i)/float64(j+1))+float64(j), i, j)
		}
	}
	perm := []int{2, 0, 3, 1}

	permuted := tensor.New(T, n)
	for i := 0; i < T; i++ {
		for j := 0; j < n; j++ {
			permuted.Set(series.At(i, perm[j]), i, j)
		}
	}

	base, err := CorrelationAdjacent(series, 0)
	require.NoError(t, err)
	shuffled, err := CorrelationAdjacent(permuted, 0)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, base.At(perm[i], perm[j]), shuffled.At(i, j),
				"adjacency must be permutation-consistent at (%d,%d)", i, j)
		}
	}
}

func TestInteractionAdjacentSymmetrizes(t *testing.T) {
	counts := mat.NewDense(2, 2, []float64{
		0, 300,
		250, 0,
	})
	a, err := InteractionAdjacent(counts, 500)
	require.NoError(t, err)
	// 300+250 = 550 > 500 in both directions
	assert.Equal(t, 1.0, a.At(0, 1))
	assert.Equal(t, 1.0, a.At(1, 0))
	assert.Equal(t, 0.0, a.At(0, 0))
}

func TestAdjacentToLaplacian(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{
		0, 1,
		1, 0,
	})
	l, err := AdjacentToLaplacian(a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l.At(0, 0), 1e-9)
	assert.InDelta(t, -1.0, l.At(0, 1), 1e-9)

	// an isolated node keeps its identity row instead of dividing by zero
	iso := mat.NewDense(2, 2, nil)
	l, err = AdjacentToLaplacian(iso)
	require.NoError(t, err)
	assert.Equal(t, 1.0, l.At(0, 0))
	assert.Equal(t, 0.0, l.At(0, 1))
}

func TestReindex(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	r := Reindex(m, []int{2, 0})
	assert.Equal(t, 9.0, r.At(0, 0))
	assert.Equal(t, 7.0, r.At(0, 1))
	assert.Equal(t, 3.0, r.At(1, 0))
	assert.Equal(t, 1.0, r.At(1, 1))
}

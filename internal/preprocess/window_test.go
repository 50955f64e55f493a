package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// indexSeries builds a [T, nodes] series where every slot holds its own
// slot index, so window contents can be checked by value.
func indexSeries(T, nodes int) *tensor.Tensor {
	out := tensor.New(T, nodes)
	for t := 0; t < T; t++ {
		for n := 0; n < nodes; n++ {
			out.Set(float64(t), t, n)
		}
	}
	return out
}

func TestMoveSampleCountAndAlignment(t *testing.T) {
	const T, daily = 400, 24
	s, err := NewSTMoveSample(3, 2, 1, 1, daily)
	require.NoError(t, err)
	require.Equal(t, 168, s.MaxLookback())

	closeness, period, trend, target, err := s.MoveSample(indexSeries(T, 2))
	require.NoError(t, err)

	n := T - 168
	require.Equal(t, []int{n, 2, 3, 1}, closeness.Shape())
	require.Equal(t, []int{n, 2, 2, 1}, period.Shape())
	require.Equal(t, []int{n, 2, 1, 1}, trend.Shape())
	require.Equal(t, []int{n, 2, 1}, target.Shape())

	for _, sample := range []int{0, 1, 100, n - 1} {
		current := 168 + sample
		// closeness: the immediately preceding slots, earliest first
		assert.Equal(t, float64(current-3), closeness.At(sample, 0, 0, 0))
		assert.Equal(t, float64(current-1), closeness.At(sample, 1, 2, 0))
		// period: exactly one day apart, earliest first
		assert.Equal(t, float64(current-2*daily), period.At(sample, 0, 0, 0))
		assert.Equal(t, float64(current-daily), period.At(sample, 0, 1, 0))
		// trend: exactly seven days apart
		assert.Equal(t, float64(current-7*daily), trend.At(sample, 0, 0, 0))
		// target is the current slot
		assert.Equal(t, float64(current), target.At(sample, 0, 0))
	}
}

func TestMoveSampleZeroLengthWindow(t *testing.T) {
	s, err := NewSTMoveSample(4, 0, 0, 1, 24)
	require.NoError(t, err)
	assert.Equal(t, 4, s.MaxLookback(), "zero windows must not affect lookback")

	closeness, period, trend, target, err := s.MoveSample(indexSeries(10, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, closeness.Len())
	assert.True(t, period.IsEmpty())
	assert.True(t, trend.IsEmpty())
	assert.Equal(t, 6, target.Len())
}

func TestMoveSampleNoTarget(t *testing.T) {
	s, err := NewSTMoveSample(2, 0, 0, 0, 24)
	require.NoError(t, err)

	closeness, _, _, target, err := s.MoveSample(indexSeries(10, 1))
	require.NoError(t, err)
	// without a target the current index may sit one past the series end
	assert.Equal(t, 9, closeness.Len())
	assert.True(t, target.IsEmpty())
}

func TestMoveSampleDeterministic(t *testing.T) {
	s, err := NewSTMoveSample(3, 1, 0, 1, 4)
	require.NoError(t, err)

	data := indexSeries(40, 3)
	c1, p1, _, y1, err := s.MoveSample(data)
	require.NoError(t, err)
	c2, p2, _, y2, err := s.MoveSample(data)
	require.NoError(t, err)

	assert.Equal(t, c1.Data(), c2.Data())
	assert.Equal(t, p1.Data(), p2.Data())
	assert.Equal(t, y1.Data(), y2.Data())
}

func TestMoveSampleAllZeroLengthsRejected(t *testing.T) {
	var cfgErr *errs.ConfigError
	_, err := NewSTMoveSample(0, 0, 0, 1, 24)
	require.ErrorAs(t, err, &cfgErr)
}

func TestMoveSampleShortSeries(t *testing.T) {
	s, err := NewSTMoveSample(5, 0, 0, 1, 24)
	require.NoError(t, err)

	closeness, _, _, target, err := s.MoveSample(indexSeries(4, 1))
	require.NoError(t, err)
	assert.True(t, closeness.IsEmpty())
	assert.True(t, target.IsEmpty())
}

package preprocess

import (
	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// STMoveSample builds aligned closeness/period/trend/target windows from a
// time-major tensor. Closeness covers the immediately preceding slots,
// period the same slot-of-day on preceding days, trend the same slot on the
// same weekday of preceding weeks.
//
// A sample exists at index i only when enough history precedes it to fill
// all three windows at once, so the output is shorter than the input by
// MaxLookback leading slots (plus TargetLength-1 trailing slots).
type STMoveSample struct {
	ClosenessLen int
	PeriodLen    int
	TrendLen     int
	TargetLength int
	DailySlots   int
}

// NewSTMoveSample validates the window configuration.
func NewSTMoveSample(closenessLen, periodLen, trendLen, targetLength, dailySlots int) (*STMoveSample, error) {
	if closenessLen < 0 {
		return nil, errs.Config("closeness_len", "must be non-negative, got %d", closenessLen)
	}
	if periodLen < 0 {
		return nil, errs.Config("period_len", "must be non-negative, got %d", periodLen)
	}
	if trendLen < 0 {
		return nil, errs.Config("trend_len", "must be non-negative, got %d", trendLen)
	}
	if targetLength < 0 {
		return nil, errs.Config("target_length", "must be non-negative, got %d", targetLength)
	}
	if dailySlots <= 0 {
		return nil, errs.Config("daily_slots", "must be positive, got %d", dailySlots)
	}
	if closenessLen == 0 && periodLen == 0 && trendLen == 0 {
		return nil, errs.Config("closeness_len/period_len/trend_len", "all window lengths are zero, nothing to sample")
	}
	return &STMoveSample{
		ClosenessLen: closenessLen,
		PeriodLen:    periodLen,
		TrendLen:     trendLen,
		TargetLength: targetLength,
		DailySlots:   dailySlots,
	}, nil
}

// MaxLookback returns the number of leading slots that cannot produce a
// sample. A zero window length does not contribute.
func (s *STMoveSample) MaxLookback() int {
	lookback := s.ClosenessLen
	if p := s.PeriodLen * s.DailySlots; p > lookback {
		lookback = p
	}
	if t := s.TrendLen * 7 * s.DailySlots; t > lookback {
		lookback = t
	}
	return lookback
}

// MoveSample slices data into closeness, period, trend and target arrays.
// For an input of shape [T, d...] the windows have shape
// [n, d..., windowLen, 1] and the target [n, d..., TargetLength], where
// n = T - MaxLookback - TargetLength + 1. Window entries are ordered from
// earlier slots to later slots. A zero-length window yields an empty
// tensor. The function is pure; identical inputs give identical outputs.
func (s *STMoveSample) MoveSample(data *tensor.Tensor) (closeness, period, trend, target *tensor.Tensor, err error) {
	if data.NDim() < 2 {
		return nil, nil, nil, nil, errs.Shape("move_sample input", []int{-1, -1}, data.Shape())
	}
	T := data.Len()
	lookback := s.MaxLookback()
	n := T - lookback - s.TargetLength + 1
	if n < 0 {
		n = 0
	}

	closeness = s.gatherWindow(data, n, lookback, s.ClosenessLen, 1)
	period = s.gatherWindow(data, n, lookback, s.PeriodLen, s.DailySlots)
	trend = s.gatherWindow(data, n, lookback, s.TrendLen, 7*s.DailySlots)
	target = s.gatherTarget(data, n, lookback)
	return closeness, period, trend, target, nil
}

// gatherWindow extracts, for every sample, windowLen slots spaced stride
// apart ending immediately before the current index, earliest first. The
// window axis is appended after the preserved data dimensions, followed by
// a feature axis of size 1.
func (s *STMoveSample) gatherWindow(data *tensor.Tensor, n, lookback, windowLen, stride int) *tensor.Tensor {
	if windowLen == 0 || n == 0 {
		return tensor.Empty()
	}
	inShape := data.Shape()
	rowSize := 1
	for _, d := range inShape[1:] {
		rowSize *= d
	}
	raw := data.Data()

	out := make([]float64, n*rowSize*windowLen)
	for sample := 0; sample < n; sample++ {
		current := lookback + sample
		for w := 0; w < windowLen; w++ {
			// k runs windowLen..1 so entries are earliest first.
			k := windowLen - w
			src := (current - k*stride) * rowSize
			for p := 0; p < rowSize; p++ {
				out[(sample*rowSize+p)*windowLen+w] = raw[src+p]
			}
		}
	}
	shape := append([]int{n}, inShape[1:]...)
	shape = append(shape, windowLen, 1)
	return tensor.FromData(out, shape...)
}

// gatherTarget extracts TargetLength slots starting at the current index.
func (s *STMoveSample) gatherTarget(data *tensor.Tensor, n, lookback int) *tensor.Tensor {
	if s.TargetLength == 0 || n == 0 {
		return tensor.Empty()
	}
	inShape := data.Shape()
	rowSize := 1
	for _, d := range inShape[1:] {
		rowSize *= d
	}
	raw := data.Data()

	out := make([]float64, n*rowSize*s.TargetLength)
	for sample := 0; sample < n; sample++ {
		current := lookback + sample
		for j := 0; j < s.TargetLength; j++ {
			src := (current + j) * rowSize
			for p := 0; p < rowSize; p++ {
				out[(sample*rowSize+p)*s.TargetLength+j] = raw[src+p]
			}
		}
	}
	shape := append([]int{n}, inShape[1:]...)
	shape = append(shape, s.TargetLength)
	return tensor.FromData(out, shape...)
}

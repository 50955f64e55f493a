package preprocess

import (
	"math"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// SplitData cuts a time-ordered tensor into contiguous, chronologically
// ordered partitions along the leading axis. Partition i receives
// round(len*ratios[i]) rows; the last partition absorbs any rounding
// remainder so the partitions always reconstruct the input exactly.
func SplitData(data *tensor.Tensor, ratios []float64) ([]*tensor.Tensor, error) {
	if len(ratios) == 0 {
		return nil, errs.Config("ratios", "at least one ratio required")
	}
	sum := 0.0
	for _, r := range ratios {
		if r < 0 {
			return nil, errs.Config("ratios", "negative ratio %v", r)
		}
		sum += r
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, errs.Config("ratios", "ratios sum to %v, want 1", sum)
	}
	n := data.Len()
	if n < len(ratios) {
		return nil, errs.Config("ratios", "array length %d shorter than %d partitions", n, len(ratios))
	}

	parts := make([]*tensor.Tensor, len(ratios))
	start := 0
	for i, r := range ratios {
		end := start + int(math.Round(float64(n)*r))
		if i == len(ratios)-1 || end > n {
			end = n
		}
		parts[i] = data.SliceRows(start, end)
		start = end
	}
	return parts, nil
}

// SplitTrainTest is a convenience wrapper for the common two-way split.
func SplitTrainTest(data *tensor.Tensor, testRatio float64) (train, test *tensor.Tensor, err error) {
	parts, err := SplitData(data, []float64{1 - testRatio, testRatio})
	if err != nil {
		return nil, nil, err
	}
	return parts[0], parts[1], nil
}

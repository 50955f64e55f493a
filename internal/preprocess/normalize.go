package preprocess

import (
	"math"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// normalizeEps keeps min-max scaling finite when a channel is constant.
const normalizeEps = 1e-5

// Normalizer performs min-max scaling with statistics recorded per channel
// (the trailing axis), reduced over all other axes. Statistics must be
// fitted on the train partition only and reused verbatim for any other
// partition, otherwise test information leaks into training.
type Normalizer struct {
	min []float64
	max []float64
}

// FitNormalizer records per-channel min and max from the given tensor.
func FitNormalizer(train *tensor.Tensor) (*Normalizer, error) {
	if train.IsEmpty() {
		return nil, errs.Data("normalizer", "cannot fit on an empty array")
	}
	width := train.Dim(train.NDim() - 1)
	n := &Normalizer{
		min: make([]float64, width),
		max: make([]float64, width),
	}
	for c := 0; c < width; c++ {
		n.min[c] = math.Inf(1)
		n.max[c] = math.Inf(-1)
	}
	data := train.Data()
	for i, v := range data {
		c := i % width
		if v < n.min[c] {
			n.min[c] = v
		}
		if v > n.max[c] {
			n.max[c] = v
		}
	}
	return n, nil
}

// MinMaxNormal scales the tensor into [0,1] using the fitted statistics,
// broadcasting them over the trailing axis.
func (n *Normalizer) MinMaxNormal(t *tensor.Tensor) (*tensor.Tensor, error) {
	width := t.Dim(t.NDim() - 1)
	if width != len(n.min) {
		return nil, errs.Shape("normalizer", []int{len(n.min)}, []int{width})
	}
	out := t.Clone()
	data := out.Data()
	for i := range data {
		c := i % width
		data[i] = (data[i] - n.min[c]) / (n.max[c] - n.min[c] + normalizeEps)
	}
	return out, nil
}

// MinMaxDenormal is the exact algebraic inverse of MinMaxNormal.
func (n *Normalizer) MinMaxDenormal(t *tensor.Tensor) (*tensor.Tensor, error) {
	width := t.Dim(t.NDim() - 1)
	if width != len(n.min) {
		return nil, errs.Shape("normalizer", []int{len(n.min)}, []int{width})
	}
	out := t.Clone()
	data := out.Data()
	for i := range data {
		c := i % width
		data[i] = data[i]*(n.max[c]-n.min[c]+normalizeEps) + n.min[c]
	}
	return out, nil
}

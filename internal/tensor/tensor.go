package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense row-major n-dimensional array of float64.
// The leading axis is always the time/sample axis in this codebase.
type Tensor struct {
	shape   []int
	strides []int
	data    []float64
}

// New creates a zero-filled tensor with the given shape.
// A zero-length shape list produces an empty tensor.
func New(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("tensor: negative dimension %d", s))
		}
		size *= s
	}
	if len(shape) == 0 {
		size = 0
	}
	t := &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size),
	}
	t.computeStrides()
	return t
}

// FromData wraps an existing flat slice. The slice is not copied;
// callers must not alias it afterwards.
func FromData(data []float64, shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		size *= s
	}
	if len(shape) == 0 {
		size = 0
	}
	if size != len(data) {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	t := &Tensor{
		shape: append([]int(nil), shape...),
		data:  data,
	}
	t.computeStrides()
	return t
}

// Empty returns a tensor with no elements and no dimensions.
func Empty() *Tensor {
	return New()
}

func (t *Tensor) computeStrides() {
	t.strides = make([]int, len(t.shape))
	stride := 1
	for i := len(t.shape) - 1; i >= 0; i-- {
		t.strides[i] = stride
		stride *= t.shape[i]
	}
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// NDim returns the number of dimensions.
func (t *Tensor) NDim() int { return len(t.shape) }

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Len returns the size of the leading axis, or 0 for an empty tensor.
func (t *Tensor) Len() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.data) }

// IsEmpty reports whether the tensor holds no elements.
func (t *Tensor) IsEmpty() bool { return len(t.data) == 0 }

// Data returns the underlying flat slice.
func (t *Tensor) Data() []float64 { return t.data }

func (t *Tensor) offset(idx ...int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d dimensions", len(idx), len(t.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d (size %d)", x, i, t.shape[i]))
		}
		off += x * t.strides[i]
	}
	return off
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx...)]
}

// Set stores v at the given multi-index.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx...)] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		shape: append([]int(nil), t.shape...),
		data:  append([]float64(nil), t.data...),
	}
	c.computeStrides()
	return c
}

// Row returns the sub-tensor at index i along the leading axis (copied).
func (t *Tensor) Row(i int) *Tensor {
	if len(t.shape) == 0 {
		panic("tensor: Row on empty tensor")
	}
	stride := t.strides[0]
	out := make([]float64, stride)
	copy(out, t.data[i*stride:(i+1)*stride])
	return FromData(out, t.shape[1:]...)
}

// SliceRows returns rows [lo, hi) along the leading axis (copied).
func (t *Tensor) SliceRows(lo, hi int) *Tensor {
	if len(t.shape) == 0 {
		panic("tensor: SliceRows on empty tensor")
	}
	if lo < 0 || hi > t.shape[0] || lo > hi {
		panic(fmt.Sprintf("tensor: slice [%d:%d) out of range for axis of size %d", lo, hi, t.shape[0]))
	}
	stride := t.strides[0]
	out := make([]float64, (hi-lo)*stride)
	copy(out, t.data[lo*stride:hi*stride])
	shape := append([]int{hi - lo}, t.shape[1:]...)
	return FromData(out, shape...)
}

// Reshape returns a view-copy of the tensor with a new shape of equal size.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	size := 1
	for _, s := range shape {
		size *= s
	}
	if size != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape size %d into %v", len(t.data), shape))
	}
	return FromData(append([]float64(nil), t.data...), shape...)
}

// VStack concatenates tensors along the leading axis. All trailing
// dimensions must agree.
func VStack(ts ...*Tensor) *Tensor {
	var parts []*Tensor
	for _, t := range ts {
		if t != nil && !t.IsEmpty() {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return Empty()
	}
	first := parts[0]
	rows := 0
	for _, p := range parts {
		if len(p.shape) != len(first.shape) {
			panic("tensor: VStack rank mismatch")
		}
		for i := 1; i < len(first.shape); i++ {
			if p.shape[i] != first.shape[i] {
				panic("tensor: VStack trailing dimension mismatch")
			}
		}
		rows += p.shape[0]
	}
	data := make([]float64, 0, rows*first.strides[0])
	for _, p := range parts {
		data = append(data, p.data...)
	}
	shape := append([]int{rows}, first.shape[1:]...)
	return FromData(data, shape...)
}

// Stack stacks equally-shaped tensors along a new leading axis.
func Stack(ts []*Tensor) *Tensor {
	if len(ts) == 0 {
		return Empty()
	}
	first := ts[0]
	data := make([]float64, 0, len(ts)*first.Size())
	for _, t := range ts {
		if t.Size() != first.Size() {
			panic("tensor: Stack shape mismatch")
		}
		data = append(data, t.data...)
	}
	shape := append([]int{len(ts)}, first.shape...)
	return FromData(data, shape...)
}

// ConcatLast concatenates two tensors along the last axis. All leading
// dimensions must agree.
func ConcatLast(a, b *Tensor) *Tensor {
	if a.IsEmpty() {
		return b.Clone()
	}
	if b.IsEmpty() {
		return a.Clone()
	}
	if len(a.shape) != len(b.shape) {
		panic("tensor: ConcatLast rank mismatch")
	}
	last := len(a.shape) - 1
	outer := 1
	for i := 0; i < last; i++ {
		if a.shape[i] != b.shape[i] {
			panic("tensor: ConcatLast leading dimension mismatch")
		}
		outer *= a.shape[i]
	}
	wa, wb := a.shape[last], b.shape[last]
	data := make([]float64, 0, outer*(wa+wb))
	for i := 0; i < outer; i++ {
		data = append(data, a.data[i*wa:(i+1)*wa]...)
		data = append(data, b.data[i*wb:(i+1)*wb]...)
	}
	shape := append([]int(nil), a.shape[:last]...)
	shape = append(shape, wa+wb)
	return FromData(data, shape...)
}

// TileLeading repeats the tensor n times along a new leading axis.
func TileLeading(t *Tensor, n int) *Tensor {
	data := make([]float64, 0, n*t.Size())
	for i := 0; i < n; i++ {
		data = append(data, t.data...)
	}
	shape := append([]int{n}, t.shape...)
	return FromData(data, shape...)
}

// ToDense converts a 2-D tensor into a gonum matrix.
func (t *Tensor) ToDense() *mat.Dense {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: ToDense requires 2 dimensions, have %d", len(t.shape)))
	}
	return mat.NewDense(t.shape[0], t.shape[1], append([]float64(nil), t.data...))
}

// FromDense wraps a gonum matrix as a 2-D tensor.
func FromDense(m *mat.Dense) *Tensor {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return FromData(data, r, c)
}

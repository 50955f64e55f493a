// Package feature assembles external feature streams (weather, holiday,
// temporal position) into one time-aligned matrix. Blocks are kept as an
// explicit ordered registry of (name, width, data) records so downstream
// consumers can slice the concatenated matrix back apart without relying
// on a separately tracked width list.
package feature

import (
	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// Block is one named slice of the external feature matrix.
type Block struct {
	Name  string
	Width int
	Data  *tensor.Tensor // [T, Width]
}

// Registry accumulates feature blocks in a fixed order.
type Registry struct {
	blocks []Block
	slots  int
}

// NewRegistry creates a registry for feature streams of the given slot count.
func NewRegistry(slots int) *Registry {
	return &Registry{slots: slots}
}

// Append adds a block. The block must be a 2-D [slots, width] tensor
// aligned with every block already registered.
func (r *Registry) Append(name string, data *tensor.Tensor) error {
	if data.NDim() != 2 {
		return errs.Shape("feature block "+name, []int{r.slots, -1}, data.Shape())
	}
	if data.Len() != r.slots {
		return errs.Shape("feature block "+name, []int{r.slots, data.Dim(1)}, data.Shape())
	}
	r.blocks = append(r.blocks, Block{Name: name, Width: data.Dim(1), Data: data})
	return nil
}

// Blocks returns the registered blocks in registration order.
func (r *Registry) Blocks() []Block {
	return append([]Block(nil), r.blocks...)
}

// Dim returns the total width of the concatenated matrix.
func (r *Registry) Dim() int {
	total := 0
	for _, b := range r.blocks {
		total += b.Width
	}
	return total
}

// Empty reports whether no blocks were registered.
func (r *Registry) Empty() bool { return len(r.blocks) == 0 }

// Concat folds the registered blocks into a single [slots, Dim] matrix,
// preserving registration order.
func (r *Registry) Concat() *tensor.Tensor {
	if len(r.blocks) == 0 {
		return tensor.Empty()
	}
	out := r.blocks[0].Data
	for _, b := range r.blocks[1:] {
		out = tensor.ConcatLast(out, b.Data)
	}
	return out
}

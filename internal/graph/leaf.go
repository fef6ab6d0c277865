package graph

import (
	"fmt"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// Placeholder is an input slot filled per batch through Session.Bind.
// Copies of a Placeholder share the bound tensor.
type Placeholder[T tensor.Float] struct {
	id int
	st *placeholderState[T]
}

type placeholderState[T tensor.Float] struct {
	data      *tensor.Tensor[T]
	shapeHint tensor.Shape

	// Session that bound data last.
	owner any
}

// NewPlaceholder creates an unbound placeholder. A non-empty shapeHint
// lists the trailing extents every bound tensor must have, usually the
// shape of one sample without the batch axis.
func NewPlaceholder[T tensor.Float](shapeHint ...int) Placeholder[T] {
	return Placeholder[T]{
		id: tensor.NewID(),
		st: &placeholderState[T]{shapeHint: append(tensor.Shape(nil), shapeHint...)},
	}
}

func (p Placeholder[T]) ID() int             { return p.id }
func (p Placeholder[T]) Kind() Kind          { return KindPlaceholder }
func (p Placeholder[T]) Name() string        { return fmt.Sprintf("placeholder#%d", p.id) }
func (p Placeholder[T]) operands() []Node[T] { return nil }

// ShapeHint returns the trailing extents given at construction.
func (p Placeholder[T]) ShapeHint() tensor.Shape { return p.st.shapeHint }

// Bound reports whether a tensor is attached.
func (p Placeholder[T]) Bound() bool { return p.st.data != nil }

// Output returns the bound tensor, or nil.
func (p Placeholder[T]) Output() *tensor.Tensor[T] { return p.st.data }

// Forward returns the bound tensor. Forwarding an unbound placeholder panics.
func (p Placeholder[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	if p.st.data == nil {
		exceptions.Panicf("%s: forward before a tensor was bound", p.Name())
	}
	return p.st.data
}

// Backward is a no-op.
func (p Placeholder[T]) Backward(*Session[T], *tensor.Tensor[T]) {}

func (p Placeholder[T]) bind(owner any, t *tensor.Tensor[T]) {
	if t.IsEmpty() {
		exceptions.Panicf("%s: cannot bind an empty tensor", p.Name())
	}
	if hint := p.st.shapeHint; len(hint) > 0 {
		shape := t.Shape()
		if len(shape) < len(hint) || !shape[len(shape)-len(hint):].Equal(hint) {
			exceptions.Panicf("%s: bound tensor shape %v does not end with %v", p.Name(), shape, hint)
		}
	}
	p.st.data = t
	p.st.owner = owner
}

// release unbinds p if owner made the current binding.
func (p Placeholder[T]) release(owner any) bool {
	if p.st.owner != owner {
		return false
	}
	p.st.data = nil
	p.st.owner = nil
	return true
}

// Variable is a trainable parameter: a data tensor with its gradient
// accumulator, the gradient of the previous step, and per-optimizer state
// buffers. Copies of a Variable share all of these.
type Variable[T tensor.Float] struct {
	id int
	st *variableState[T]
}

type variableState[T tensor.Float] struct {
	name      string
	data      *tensor.Tensor[T]
	grad      *tensor.Tensor[T]
	prevGrad  *tensor.Tensor[T]
	contexts  []*tensor.Tensor[T]
	trainable bool

	// Session and step of the last gradient swap.
	lastSession any
	lastStep    int
}

// VariableOption configures NewVariable.
type VariableOption func(*variableConfig)

type variableConfig struct {
	name      string
	trainable bool
}

// WithName sets the name used in logs.
func WithName(name string) VariableOption {
	return func(c *variableConfig) { c.name = name }
}

// Frozen marks the variable as not trainable: optimizers skip it, though
// its gradient is still accumulated.
func Frozen() VariableOption {
	return func(c *variableConfig) { c.trainable = false }
}

// NewVariable creates a trainable variable holding data. The variable takes
// ownership of data.
func NewVariable[T tensor.Float](data *tensor.Tensor[T], opts ...VariableOption) Variable[T] {
	if data.IsEmpty() {
		exceptions.Panicf("NewVariable: empty tensor")
	}
	cfg := variableConfig{trainable: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	id := tensor.NewID()
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("variable#%d", id)
	}
	return Variable[T]{
		id: id,
		st: &variableState[T]{
			name:      cfg.name,
			data:      data,
			grad:      tensor.ZerosLike(data),
			prevGrad:  tensor.ZerosLike(data),
			trainable: cfg.trainable,
		},
	}
}

func (v Variable[T]) ID() int             { return v.id }
func (v Variable[T]) Kind() Kind          { return KindVariable }
func (v Variable[T]) Name() string        { return v.st.name }
func (v Variable[T]) operands() []Node[T] { return nil }

// Output returns the data tensor.
func (v Variable[T]) Output() *tensor.Tensor[T] { return v.st.data }

// Data returns the parameter values. Writes through it update the variable.
func (v Variable[T]) Data() *tensor.Tensor[T] { return v.st.data }

// Gradient returns the gradient accumulated in the current step.
func (v Variable[T]) Gradient() *tensor.Tensor[T] { return v.st.grad }

// PreviousGradient returns the gradient of the previous step.
func (v Variable[T]) PreviousGradient() *tensor.Tensor[T] { return v.st.prevGrad }

// Trainable reports whether optimizers update the variable.
func (v Variable[T]) Trainable() bool { return v.st.trainable }

// SetTrainable freezes or unfreezes the variable.
func (v Variable[T]) SetTrainable(trainable bool) { v.st.trainable = trainable }

// Contexts returns n state buffers shaped like the data, creating zeroed
// ones on first use. Optimizers keep their moments here.
func (v Variable[T]) Contexts(n int) []*tensor.Tensor[T] {
	for len(v.st.contexts) < n {
		v.st.contexts = append(v.st.contexts, tensor.ZerosLike(v.st.data))
	}
	return v.st.contexts[:n]
}

// ZeroGradient clears the accumulated gradient.
func (v Variable[T]) ZeroGradient() { v.st.grad.Fill(0) }

// Forward registers the variable with s and returns its data. In training
// mode, the first Forward of each session step moves the accumulated
// gradient to PreviousGradient and starts a fresh, zeroed one.
func (v Variable[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	s.Remember(v)
	st := v.st
	if s.Training() && (st.lastSession != any(s) || st.lastStep != s.step) {
		st.grad, st.prevGrad = st.prevGrad, st.grad
		st.grad.Fill(0)
		st.lastSession, st.lastStep = s, s.step
	}
	return st.data
}

// Backward accumulates grad, which must have the shape of the data.
func (v Variable[T]) Backward(s *Session[T], grad *tensor.Tensor[T]) {
	s.mustOpen("Backward")
	if !grad.Shape().Equal(v.st.data.Shape()) {
		exceptions.Panicf("%s: gradient shape %v does not match data shape %v",
			v.Name(), grad.Shape(), v.st.data.Shape())
	}
	v.st.grad.AddInPlace(grad)
	s.Remember(v)
}

// Constant is an immutable tensor leaf.
type Constant[T tensor.Float] struct {
	id   int
	data *tensor.Tensor[T]
}

// NewConstant wraps data as a constant node.
func NewConstant[T tensor.Float](data *tensor.Tensor[T]) Constant[T] {
	if data.IsEmpty() {
		exceptions.Panicf("NewConstant: empty tensor")
	}
	return Constant[T]{id: tensor.NewID(), data: data}
}

func (c Constant[T]) ID() int                                  { return c.id }
func (c Constant[T]) Kind() Kind                               { return KindConstant }
func (c Constant[T]) Name() string                             { return fmt.Sprintf("constant#%d", c.id) }
func (c Constant[T]) operands() []Node[T]                      { return nil }
func (c Constant[T]) Output() *tensor.Tensor[T]                { return c.data }
func (c Constant[T]) Backward(*Session[T], *tensor.Tensor[T]) {}

// Forward returns the wrapped tensor.
func (c Constant[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	return c.data
}

// Scalar is an immutable scalar leaf. It evaluates to a shape {1} tensor,
// which broadcasts against any operand.
type Scalar[T tensor.Float] struct {
	id    int
	value *tensor.Tensor[T]
}

// NewScalar creates a scalar node.
func NewScalar[T tensor.Float](v T) Scalar[T] {
	return Scalar[T]{id: tensor.NewID(), value: tensor.Scalar(v)}
}

func (c Scalar[T]) ID() int                                  { return c.id }
func (c Scalar[T]) Kind() Kind                               { return KindScalar }
func (c Scalar[T]) Name() string                             { return fmt.Sprintf("scalar#%d(%g)", c.id, c.value.Item()) }
func (c Scalar[T]) operands() []Node[T]                      { return nil }
func (c Scalar[T]) Output() *tensor.Tensor[T]                { return c.value }
func (c Scalar[T]) Backward(*Session[T], *tensor.Tensor[T]) {}

// Value returns the scalar.
func (c Scalar[T]) Value() T { return c.value.Item() }

// Forward returns the value as a shape {1} tensor.
func (c Scalar[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	return c.value
}

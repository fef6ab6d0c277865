package graph

import (
	"fmt"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// UnaryForward computes the output of a unary operator from its input.
// The session gives access to the training flag; most operators ignore it.
type UnaryForward[T tensor.Float] func(s *Session[T], x *tensor.Tensor[T]) *tensor.Tensor[T]

// UnaryBackward returns the gradient with respect to the input, given the
// cached input x, the cached output y and the gradient of the output.
// It must not modify any of its arguments.
type UnaryBackward[T tensor.Float] func(x, y, grad *tensor.Tensor[T]) *tensor.Tensor[T]

// BinaryForward computes the output of a binary operator.
type BinaryForward[T tensor.Float] func(s *Session[T], lhs, rhs *tensor.Tensor[T]) *tensor.Tensor[T]

// BinaryBackward returns the gradients with respect to both inputs. It must
// not modify any of its arguments.
type BinaryBackward[T tensor.Float] func(lhs, rhs, y, grad *tensor.Tensor[T]) (gradLHS, gradRHS *tensor.Tensor[T])

// pure adapts a session-independent function to UnaryForward.
func pure[T tensor.Float](f func(x *tensor.Tensor[T]) *tensor.Tensor[T]) UnaryForward[T] {
	return func(_ *Session[T], x *tensor.Tensor[T]) *tensor.Tensor[T] { return f(x) }
}

// pure2 adapts a session-independent function to BinaryForward.
func pure2[T tensor.Float](f func(lhs, rhs *tensor.Tensor[T]) *tensor.Tensor[T]) BinaryForward[T] {
	return func(_ *Session[T], lhs, rhs *tensor.Tensor[T]) *tensor.Tensor[T] { return f(lhs, rhs) }
}

// evaluation holds what is common to both operator arities.
type evaluation[T tensor.Float] struct {
	id     int
	name   string
	output *tensor.Tensor[T]
	state  State

	// Session and step of the cached output.
	session any
	step    int
}

func (e *evaluation[T]) ID() int                   { return e.id }
func (e *evaluation[T]) Name() string              { return e.name }
func (e *evaluation[T]) Output() *tensor.Tensor[T] { return e.output }

// State returns the evaluation state.
func (e *evaluation[T]) State() State { return e.state }

// cached reports whether the output was computed earlier in the current
// step of s, in which case Forward returns it as is.
func (e *evaluation[T]) cached(s *Session[T]) bool {
	return e.state != Unevaluated && e.session == any(s) && e.step == s.step
}

func (e *evaluation[T]) store(s *Session[T], out *tensor.Tensor[T]) *tensor.Tensor[T] {
	if out.IsEmpty() {
		exceptions.Panicf("%s: forward produced an empty tensor", e.name)
	}
	e.output = out
	e.state = Forwarded
	e.session, e.step = s, s.step
	return out
}

func (e *evaluation[T]) checkBackward(s *Session[T], grad *tensor.Tensor[T]) {
	s.mustOpen("Backward")
	if e.state == Unevaluated {
		exceptions.Panicf("%s: backward before forward", e.name)
	}
	if grad.IsEmpty() || !grad.Shape().Equal(e.output.Shape()) {
		exceptions.Panicf("%s: gradient shape %v does not match output shape %v",
			e.name, grad.Shape(), e.output.Shape())
	}
}

// UnaryOp is an operator node with one operand.
type UnaryOp[T tensor.Float] struct {
	evaluation[T]
	operand  Node[T]
	forward  UnaryForward[T]
	backward UnaryBackward[T]
	input    *tensor.Tensor[T]
}

// NewUnary creates a unary operator node. Custom operators are built this
// way; the ones in this package are thin wrappers around it.
func NewUnary[T tensor.Float](name string, operand Node[T], forward UnaryForward[T], backward UnaryBackward[T]) *UnaryOp[T] {
	id := tensor.NewID()
	return &UnaryOp[T]{
		evaluation: evaluation[T]{id: id, name: fmt.Sprintf("%s#%d", name, id)},
		operand:    operand,
		forward:    forward,
		backward:   backward,
	}
}

func (*UnaryOp[T]) Kind() Kind             { return KindUnary }
func (op *UnaryOp[T]) operands() []Node[T] { return []Node[T]{op.operand} }

// Operand returns the input node.
func (op *UnaryOp[T]) Operand() Node[T] { return op.operand }

// Forward evaluates the operand, caches input and output and returns the
// output. Within one session step the cached output is reused, even if a
// placeholder below was re-bound; Session.Run starts a new step.
func (op *UnaryOp[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	if op.cached(s) {
		return op.output
	}
	op.input = op.operand.Forward(s)
	return op.store(s, op.forward(s, op.input))
}

// Backward applies the operator's backward rule and propagates the result
// to the operand.
func (op *UnaryOp[T]) Backward(s *Session[T], grad *tensor.Tensor[T]) {
	op.checkBackward(s, grad)
	g := op.backward(op.input, op.output, grad)
	op.state = Backpropagated
	op.operand.Backward(s, g)
}

// BinaryOp is an operator node with two operands.
type BinaryOp[T tensor.Float] struct {
	evaluation[T]
	lhs, rhs     Node[T]
	forward      BinaryForward[T]
	backward     BinaryBackward[T]
	lhsIn, rhsIn *tensor.Tensor[T]
}

// NewBinary creates a binary operator node.
func NewBinary[T tensor.Float](name string, lhs, rhs Node[T], forward BinaryForward[T], backward BinaryBackward[T]) *BinaryOp[T] {
	id := tensor.NewID()
	return &BinaryOp[T]{
		evaluation: evaluation[T]{id: id, name: fmt.Sprintf("%s#%d", name, id)},
		lhs:        lhs,
		rhs:        rhs,
		forward:    forward,
		backward:   backward,
	}
}

func (*BinaryOp[T]) Kind() Kind             { return KindBinary }
func (op *BinaryOp[T]) operands() []Node[T] { return []Node[T]{op.lhs, op.rhs} }

// Operands returns the input nodes.
func (op *BinaryOp[T]) Operands() (lhs, rhs Node[T]) { return op.lhs, op.rhs }

// Forward evaluates both operands, caches inputs and output and returns the
// output. Like UnaryOp.Forward it is memoized per session step, so a
// re-bound placeholder is only seen after the next Session.Run.
func (op *BinaryOp[T]) Forward(s *Session[T]) *tensor.Tensor[T] {
	s.mustOpen("Forward")
	if op.cached(s) {
		return op.output
	}
	op.lhsIn = op.lhs.Forward(s)
	op.rhsIn = op.rhs.Forward(s)
	return op.store(s, op.forward(s, op.lhsIn, op.rhsIn))
}

// Backward applies the operator's backward rule and propagates to both
// operands, lhs first.
func (op *BinaryOp[T]) Backward(s *Session[T], grad *tensor.Tensor[T]) {
	op.checkBackward(s, grad)
	gl, gr := op.backward(op.lhsIn, op.rhsIn, op.output, grad)
	op.state = Backpropagated
	op.lhs.Backward(s, gl)
	op.rhs.Backward(s, gr)
}

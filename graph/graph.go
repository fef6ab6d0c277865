// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
)

// Float is the element type constraint: float32 or float64.
type Float = tensor.Float

// Node is a vertex of the expression graph.
type Node[T Float] = graph.Node[T]

// Kind tags the concrete type behind a Node.
type Kind = graph.Kind

// Node kinds.
const (
	KindPlaceholder = graph.KindPlaceholder
	KindVariable    = graph.KindVariable
	KindConstant    = graph.KindConstant
	KindScalar      = graph.KindScalar
	KindUnary       = graph.KindUnary
	KindBinary      = graph.KindBinary
)

// State is the evaluation state of an operator node.
type State = graph.State

// Operator states.
const (
	Unevaluated    = graph.Unevaluated
	Forwarded      = graph.Forwarded
	Backpropagated = graph.Backpropagated
)

// Walk visits every node reachable from root once, operands first.
func Walk[T Float](root Node[T], visit func(Node[T])) { graph.Walk(root, visit) }

// CollectVariables returns the distinct variables reachable from root, in
// visiting order.
func CollectVariables[T Float](root Node[T]) []Variable[T] { return graph.CollectVariables(root) }

// Leaves

// Placeholder is an input node bound to a tensor per session.
type Placeholder[T Float] = graph.Placeholder[T]

// NewPlaceholder creates a placeholder. A non-empty shapeHint must be a
// suffix of every bound tensor's shape; the leading axis is usually the
// batch.
//
// Example:
//
//	images := graph.NewPlaceholder[float32](28, 28, 1)
func NewPlaceholder[T Float](shapeHint ...int) Placeholder[T] {
	return graph.NewPlaceholder[T](shapeHint...)
}

// Variable is a trainable tensor with its gradient buffers.
type Variable[T Float] = graph.Variable[T]

// VariableOption configures NewVariable.
type VariableOption = graph.VariableOption

// WithName names a variable.
func WithName(name string) VariableOption { return graph.WithName(name) }

// Frozen creates the variable with training disabled.
func Frozen() VariableOption { return graph.Frozen() }

// NewVariable wraps data in a variable. The variable takes ownership of
// data.
func NewVariable[T Float](data *tensor.Tensor[T], opts ...VariableOption) Variable[T] {
	return graph.NewVariable(data, opts...)
}

// Constant is a fixed tensor.
type Constant[T Float] = graph.Constant[T]

// NewConstant wraps data in a constant node.
func NewConstant[T Float](data *tensor.Tensor[T]) Constant[T] { return graph.NewConstant(data) }

// Scalar is a fixed single value that broadcasts against any operand.
type Scalar[T Float] = graph.Scalar[T]

// NewScalar creates a scalar node.
func NewScalar[T Float](v T) Scalar[T] { return graph.NewScalar(v) }

// Session

// Session evaluates graphs: it owns placeholder bindings, the variable
// registry and the evaluation step.
type Session[T Float] = graph.Session[T]

// SessionOption configures NewSession.
type SessionOption = graph.SessionOption

// WithTraining sets the initial training mode (default: true).
func WithTraining(training bool) SessionOption { return graph.WithTraining(training) }

// NewSession creates an open session.
func NewSession[T Float](opts ...SessionOption) *Session[T] { return graph.NewSession[T](opts...) }

// Custom operators

// UnaryForward computes the output of a unary operator.
type UnaryForward[T Float] = graph.UnaryForward[T]

// UnaryBackward returns the gradient of a unary operator's operand.
type UnaryBackward[T Float] = graph.UnaryBackward[T]

// BinaryForward computes the output of a binary operator.
type BinaryForward[T Float] = graph.BinaryForward[T]

// BinaryBackward returns the gradients of a binary operator's operands.
type BinaryBackward[T Float] = graph.BinaryBackward[T]

// UnaryOp is an operator node with one operand.
type UnaryOp[T Float] = graph.UnaryOp[T]

// BinaryOp is an operator node with two operands.
type BinaryOp[T Float] = graph.BinaryOp[T]

// NewUnary creates a custom unary operator.
func NewUnary[T Float](name string, operand Node[T], forward UnaryForward[T], backward UnaryBackward[T]) *UnaryOp[T] {
	return graph.NewUnary(name, operand, forward, backward)
}

// NewBinary creates a custom binary operator.
func NewBinary[T Float](name string, lhs, rhs Node[T], forward BinaryForward[T], backward BinaryBackward[T]) *BinaryOp[T] {
	return graph.NewBinary(name, lhs, rhs, forward, backward)
}

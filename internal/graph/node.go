// Package graph implements the static expression graph and its reverse-mode
// differentiation.
//
// Graphs are built from leaves (Placeholder, Variable, Constant, Scalar)
// combined by operator functions (Plus, Multiply, Relu, ...). Nothing is
// computed while building. A Session drives evaluation:
//
//	s := graph.NewSession[float32]()
//	defer s.Close()
//	x := graph.NewPlaceholder[float32]()
//	w := graph.NewVariable(tensor.Randn[float32](rng, 0, 0.1, 3, 2))
//	y := graph.Relu(graph.Multiply[float32](x, w))
//	s.Bind(x, input)
//	out := s.Run(y)                      // forward, caching every intermediate
//	y.Backward(s, tensor.OnesLike(out))  // accumulates into w's gradient
//
// Every operator caches its inputs and output during Forward, so Backward
// must follow a Forward in the same session. A node reached through several
// paths receives one Backward call per path and the variables it leads to
// accumulate the sum.
package graph

import (
	"github.com/born-ml/ember/internal/tensor"
)

// Kind tags the concrete type behind a Node.
type Kind int

// Node kinds.
const (
	KindPlaceholder Kind = iota
	KindVariable
	KindConstant
	KindScalar
	KindUnary
	KindBinary
)

var kindNames = [...]string{"placeholder", "variable", "constant", "scalar", "unary", "binary"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// State is the evaluation state of an operator node.
type State int

// Operator states. A node moves Unevaluated → Forwarded → Backpropagated
// and back to Forwarded on the next Forward.
const (
	Unevaluated State = iota
	Forwarded
	Backpropagated
)

// Node is a vertex of the expression graph. The set of implementations is
// closed: Placeholder, Variable, Constant, Scalar, *UnaryOp and *BinaryOp.
type Node[T tensor.Float] interface {
	// ID is unique across all nodes of the process.
	ID() int

	// Kind tags the concrete node type.
	Kind() Kind

	// Name is a short description for logs and error messages.
	Name() string

	// Forward evaluates the node in s and returns its value. Operators
	// memoize their output per session step: after Bind or Rebind changes
	// an input, call Session.Run to start a new step before expecting
	// fresh values.
	Forward(s *Session[T]) *tensor.Tensor[T]

	// Backward propagates grad, the gradient of the loss with respect to
	// the value of this node, to the node's operands.
	Backward(s *Session[T], grad *tensor.Tensor[T])

	// Output returns the value of the last Forward, or nil.
	Output() *tensor.Tensor[T]

	// operands lists the direct inputs of the node.
	operands() []Node[T]
}

// Walk visits every node reachable from root exactly once, operands before
// the nodes that use them.
func Walk[T tensor.Float](root Node[T], visit func(Node[T])) {
	seen := make(map[int]bool)
	var rec func(n Node[T])
	rec = func(n Node[T]) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		for _, op := range n.operands() {
			rec(op)
		}
		visit(n)
	}
	rec(root)
}

// CollectVariables returns the distinct variables reachable from root, in
// visiting order.
func CollectVariables[T tensor.Float](root Node[T]) []Variable[T] {
	var vars []Variable[T]
	Walk(root, func(n Node[T]) {
		if v, ok := n.(Variable[T]); ok {
			vars = append(vars, v)
		}
	})
	return vars
}

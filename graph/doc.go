// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph builds expression graphs and differentiates them in
// reverse mode.
//
// # Overview
//
// A graph is made of leaves and operators:
//   - Placeholder: an input bound per session with Session.Bind
//   - Variable: a trainable tensor with a gradient accumulator
//   - Constant and Scalar: fixed values
//   - unary and binary operators built by the functions of this package
//
// Graphs are immutable once built and are evaluated through a Session,
// which holds the placeholder bindings and the registry of variables.
//
// Example:
//
//	x := graph.NewPlaceholder[float32](784)
//	w := graph.NewVariable(tensor.GlorotUniform[float32](rng, 784, 10))
//	b := graph.NewVariable(tensor.Zeros[float32](10))
//	logits := graph.Plus(graph.Multiply[float32](x, w), graph.Node[float32](b))
//	loss := graph.CrossEntropyLoss(graph.Node[float32](labels), logits)
//
//	s := graph.NewSession[float32]()
//	defer s.Close()
//	s.Bind(x, batch)
//	s.Run(loss)
//	loss.Backward(s, tensor.Ones[float32](1))
//
// # Evaluation
//
// Session.Run starts a new step and evaluates a node. Within a step every
// operator computes its output at most once, so a node shared by several
// consumers is evaluated once. In training mode each variable moves its
// gradient aside on its first evaluation of a step and starts accumulating
// from zero.
//
// Backward propagates a gradient of the node's output shape down to the
// variables, summing contributions of shared operands. Broadcast operands
// receive gradients reduced back to their own shape.
//
// # Errors
//
// Shape mismatches and protocol violations (backward before forward, an
// unbound placeholder, a closed session) panic. They are programming
// errors; use exceptions.TryCatch to turn them into errors at a boundary.
package graph

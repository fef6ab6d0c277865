// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training graphs.
//
// # Overview
//
// This package contains:
//   - GradientDescent: gradient descent blending the previous gradient
//   - SGD: stochastic gradient descent with momentum, Nesterov and decay
//   - Adagrad, RMSprop and Adadelta: per-element adaptive rates
//   - Adam: adaptive moment estimation with bias correction and AMSGrad
//
// An optimizer is bound to a session and a loss node. Step backpropagates
// a gradient of ones from the loss and updates every trainable variable
// the session has registered. The learning rate is divided by the batch
// size at construction, since losses sum over the batch.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ember/graph"
//	    "github.com/born-ml/ember/optim"
//	)
//
//	func main() {
//	    s := graph.NewSession[float32]()
//	    defer s.Close()
//
//	    loss := buildModel()
//	    optimizer := optim.NewAdam(s, loss, batchSize, optim.AdamConfig{LR: 0.001})
//
//	    for _, batch := range batches {
//	        s.Bind(inputs, batch.X)
//	        s.Bind(labels, batch.Y)
//	        s.Run(loss)
//	        optimizer.Step()
//	    }
//	}
//
// Optimizer state (velocities, running averages) is kept in the context
// buffers of each variable, so it survives across sessions.
package optim

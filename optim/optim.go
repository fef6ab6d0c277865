// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/ember/graph"
	"github.com/born-ml/ember/internal/optim"
	"github.com/born-ml/ember/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Names lists the optimizer names accepted by New.
var Names = optim.Names

// New creates an optimizer by name with its default hyper-parameters and
// learning rate lr (0 for the optimizer's default).
//
// Example:
//
//	opt, err := optim.New[float32]("adam", s, loss, 32, 0)
func New[T tensor.Float](name string, s *graph.Session[T], loss graph.Node[T], batchSize int, lr float64) (Optimizer, error) {
	return optim.New(name, s, loss, batchSize, lr)
}

// Gradient descent

// GradientDescent represents gradient descent with gradient momentum.
type GradientDescent[T tensor.Float] = optim.GradientDescent[T]

// GradientDescentConfig contains configuration for GradientDescent.
type GradientDescentConfig = optim.GradientDescentConfig

// NewGradientDescent creates a new GradientDescent optimizer.
func NewGradientDescent[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config GradientDescentConfig) *GradientDescent[T] {
	return optim.NewGradientDescent(s, loss, batchSize, config)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[T tensor.Float] = optim.SGD[T]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(s, loss, 64, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	    Nesterov: true,
//	})
func NewSGD[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config SGDConfig) *SGD[T] {
	return optim.NewSGD(s, loss, batchSize, config)
}

// Adaptive learning rates

// Adagrad represents the Adagrad optimizer.
type Adagrad[T tensor.Float] = optim.Adagrad[T]

// AdagradConfig contains configuration for Adagrad.
type AdagradConfig = optim.AdagradConfig

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdagradConfig) *Adagrad[T] {
	return optim.NewAdagrad(s, loss, batchSize, config)
}

// RMSprop represents the RMSprop optimizer.
type RMSprop[T tensor.Float] = optim.RMSprop[T]

// RMSpropConfig contains configuration for RMSprop.
type RMSpropConfig = optim.RMSpropConfig

// NewRMSprop creates a new RMSprop optimizer.
func NewRMSprop[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config RMSpropConfig) *RMSprop[T] {
	return optim.NewRMSprop(s, loss, batchSize, config)
}

// Adadelta represents the Adadelta optimizer.
type Adadelta[T tensor.Float] = optim.Adadelta[T]

// AdadeltaConfig contains configuration for Adadelta.
type AdadeltaConfig = optim.AdadeltaConfig

// NewAdadelta creates a new Adadelta optimizer.
func NewAdadelta[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdadeltaConfig) *Adadelta[T] {
	return optim.NewAdadelta(s, loss, batchSize, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[T tensor.Float] = optim.Adam[T]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(s, loss, 32, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
func NewAdam[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdamConfig) *Adam[T] {
	return optim.NewAdam(s, loss, batchSize, config)
}

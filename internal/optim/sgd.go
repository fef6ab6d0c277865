package optim

import (
	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// GradientDescent blends the current and the previous gradient:
//
//	data -= lr * ((1-momentum)*gradient + momentum*previousGradient)
//
// With zero momentum it is plain gradient descent. The previous gradient is
// the one the variable moved aside at the start of the current step.
type GradientDescent[T tensor.Float] struct {
	base[T]
	momentum float64
}

// GradientDescentConfig configures GradientDescent.
type GradientDescentConfig struct {
	LR       float64 // Learning rate (default: 1e-3)
	Momentum float64 // Weight of the previous gradient, in [0, 1] (default: 0)
}

// NewGradientDescent creates a GradientDescent optimizer for loss.
func NewGradientDescent[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config GradientDescentConfig) *GradientDescent[T] {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	if config.Momentum < 0 || config.Momentum > 1 {
		exceptions.Panicf("gradient_descent: momentum %g must be in [0, 1]", config.Momentum)
	}
	return &GradientDescent[T]{
		base:     newBase("gradient_descent", s, loss, batchSize, config.LR),
		momentum: config.Momentum,
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *GradientDescent[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients. A NaN in a
// gradient panics.
func (o *GradientDescent[T]) Apply() {
	lr, m := T(o.lr), T(o.momentum)
	o.update(func(v graph.Variable[T]) {
		if tensor.HasNaN(v.Gradient()) {
			exceptions.Panicf("%s: gradient of %s has a NaN value", o.name, v.Name())
		}
		data, grad, prev := v.Data().Data(), v.Gradient().Data(), v.PreviousGradient().Data()
		for i := range data {
			data[i] -= lr * ((1-m)*grad[i] + m*prev[i])
		}
	})
}

// SGD is stochastic gradient descent with momentum, optional Nesterov
// momentum and time-based learning-rate decay.
//
// Update rule:
//
//	lr       = lr / (1 + decay*iterations)
//	velocity = momentum*velocity - lr*gradient
//	data    += velocity                          (classic)
//	data    += momentum*velocity - lr*gradient   (Nesterov)
//
// The velocity is kept in the variable's first context buffer.
type SGD[T tensor.Float] struct {
	base[T]
	momentum float64
	decay    float64
	nesterov bool
}

// SGDConfig configures SGD.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor, negative values are clamped to 0 (default: 0)
	Decay    float64 // Learning-rate decay per iteration, should be very small (default: 0)
	Nesterov bool    // Use Nesterov momentum
}

// NewSGD creates an SGD optimizer for loss.
func NewSGD[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config SGDConfig) *SGD[T] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[T]{
		base:     newBase("sgd", s, loss, batchSize, config.LR),
		momentum: max(config.Momentum, 0),
		decay:    max(config.Decay, 0),
		nesterov: config.Nesterov,
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *SGD[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients.
func (o *SGD[T]) Apply() {
	lr, m := T(o.decayed(o.decay)), T(o.momentum)
	o.update(func(v graph.Variable[T]) {
		velocity := v.Contexts(1)[0].Data()
		data, grad := v.Data().Data(), v.Gradient().Data()
		for i := range data {
			velocity[i] = m*velocity[i] - lr*grad[i]
			if o.nesterov {
				data[i] += m*velocity[i] - lr*grad[i]
			} else {
				data[i] += velocity[i]
			}
		}
	})
}

package optim

import (
	"math"

	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
)

// Adagrad scales every step by the inverse root of the sum of all squared
// gradients seen so far:
//
//	accumulator += gradient²
//	data        -= lr * gradient / (ε + √accumulator)
type Adagrad[T tensor.Float] struct {
	base[T]
	decay float64
}

// AdagradConfig configures Adagrad.
type AdagradConfig struct {
	LR    float64 // Learning rate (default: 0.01)
	Decay float64 // Learning-rate decay per iteration (default: 0)
}

// NewAdagrad creates an Adagrad optimizer for loss.
func NewAdagrad[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdagradConfig) *Adagrad[T] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &Adagrad[T]{
		base:  newBase("adagrad", s, loss, batchSize, config.LR),
		decay: max(config.Decay, 0),
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *Adagrad[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients.
func (o *Adagrad[T]) Apply() {
	lr := o.decayed(o.decay)
	o.update(func(v graph.Variable[T]) {
		acc := v.Contexts(1)[0].Data()
		data, grad := v.Data().Data(), v.Gradient().Data()
		for i, g := range grad {
			acc[i] += g * g
			data[i] -= T(lr * float64(g) / (epsilon + math.Sqrt(float64(acc[i]))))
		}
	})
}

// RMSprop keeps an exponential moving average of squared gradients:
//
//	mean  = ρ*mean + (1-ρ)*gradient²   (gradient² on the first iteration)
//	data -= lr * gradient / (ε + √mean)
type RMSprop[T tensor.Float] struct {
	base[T]
	rho, decay float64
}

// RMSpropConfig configures RMSprop.
type RMSpropConfig struct {
	LR    float64 // Learning rate (default: 0.001)
	Rho   float64 // Decay of the moving average (default: 0.9)
	Decay float64 // Learning-rate decay per iteration (default: 0)
}

// NewRMSprop creates an RMSprop optimizer for loss.
func NewRMSprop[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config RMSpropConfig) *RMSprop[T] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	return &RMSprop[T]{
		base:  newBase("rmsprop", s, loss, batchSize, config.LR),
		rho:   config.Rho,
		decay: max(config.Decay, 0),
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *RMSprop[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients.
func (o *RMSprop[T]) Apply() {
	lr, rho, first := o.decayed(o.decay), T(o.rho), o.iterations == 0
	o.update(func(v graph.Variable[T]) {
		mean := v.Contexts(1)[0].Data()
		data, grad := v.Data().Data(), v.Gradient().Data()
		for i, g := range grad {
			if first {
				mean[i] = g * g
			} else {
				mean[i] = rho*mean[i] + (1-rho)*g*g
			}
			data[i] -= T(lr * float64(g) / (epsilon + math.Sqrt(float64(mean[i]))))
		}
	})
}

// Adadelta adapts the step size from moving averages of both the squared
// gradients and the squared updates, so it needs no tuned learning rate:
//
//	mean   = ρ*mean + (1-ρ)*gradient²
//	delta  = lr * gradient * √((deltas+ε) / (mean+ε))
//	data  -= delta
//	deltas = ρ*deltas + (1-ρ)*delta²
//
// mean and deltas are the first two context buffers of each variable.
type Adadelta[T tensor.Float] struct {
	base[T]
	rho float64
}

// AdadeltaConfig configures Adadelta.
type AdadeltaConfig struct {
	LR  float64 // Scale of the update (default: 1)
	Rho float64 // Decay of the moving averages (default: 0.9)
}

// NewAdadelta creates an Adadelta optimizer for loss.
func NewAdadelta[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdadeltaConfig) *Adadelta[T] {
	if config.LR == 0 {
		config.LR = 1
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	return &Adadelta[T]{
		base: newBase("adadelta", s, loss, batchSize, config.LR),
		rho:  config.Rho,
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *Adadelta[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients.
func (o *Adadelta[T]) Apply() {
	lr, rho := o.lr, o.rho
	o.update(func(v graph.Variable[T]) {
		ctx := v.Contexts(2)
		mean, deltas := ctx[0].Data(), ctx[1].Data()
		data, grad := v.Data().Data(), v.Gradient().Data()
		for i, g := range grad {
			g64 := float64(g)
			m := rho*float64(mean[i]) + (1-rho)*g64*g64
			delta := lr * g64 * math.Sqrt((float64(deltas[i])+epsilon)/(m+epsilon))
			data[i] -= T(delta)
			mean[i] = T(m)
			deltas[i] = T(rho*float64(deltas[i]) + (1-rho)*delta*delta)
		}
	})
}

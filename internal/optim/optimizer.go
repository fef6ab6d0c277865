// Package optim implements the optimizers that update the variables of a
// graph.Session after a backward pass.
//
// An optimizer is built around a loss node and the session it runs in.
// The learning rate given in the config is divided by the batch size once,
// at construction, so that losses summed over a batch behave like averaged
// ones. A training step is:
//
//	for _, batch := range batches {
//	    s.Bind(x, batch.Inputs)
//	    s.Bind(y, batch.Labels)
//	    s.Run(loss)  // forward
//	    opt.Step()   // loss.Backward(ones) and update
//	}
//
// Only trainable variables registered with the session are updated.
// Optimizer state (momentum, squared-gradient accumulators) lives in each
// variable's context buffers, so copies of a variable share it.
package optim

import (
	"strings"

	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// epsilon keeps adaptive denominators away from zero.
const epsilon = 1e-8

// Optimizer updates the trainable variables of a session.
type Optimizer interface {
	// Step backpropagates a unit gradient from the loss and applies one
	// update. The loss must have been evaluated in the current session
	// step.
	Step()

	// Apply updates the variables from the gradients already accumulated,
	// for callers that run the backward pass themselves.
	Apply()

	// ZeroGrad clears the gradients of the trainable variables.
	ZeroGrad()

	// LearningRate returns the current, batch-adjusted learning rate.
	LearningRate() float64
}

// base holds what every optimizer shares.
type base[T tensor.Float] struct {
	name       string
	session    *graph.Session[T]
	loss       graph.Node[T]
	lr         float64
	iterations int
}

func newBase[T tensor.Float](name string, s *graph.Session[T], loss graph.Node[T], batchSize int, lr float64) base[T] {
	if s == nil || loss == nil {
		exceptions.Panicf("%s: session and loss are required", name)
	}
	if batchSize < 1 {
		exceptions.Panicf("%s: batch size must be positive, got %d", name, batchSize)
	}
	return base[T]{name: name, session: s, loss: loss, lr: lr / float64(batchSize)}
}

func (b *base[T]) backward() {
	b.loss.Backward(b.session, tensor.Ones[T](1))
}

// update applies rule to every trainable variable of the session and counts
// the iteration.
func (b *base[T]) update(rule func(v graph.Variable[T])) {
	n := 0
	for _, v := range b.session.Variables() {
		if !v.Trainable() {
			continue
		}
		rule(v)
		n++
	}
	b.iterations++
	klog.V(2).Infof("%s: iteration %d updated %d variables (lr=%g)", b.name, b.iterations, n, b.lr)
}

// ZeroGrad clears the gradients of the trainable variables.
func (b *base[T]) ZeroGrad() {
	for _, v := range b.session.Variables() {
		if v.Trainable() {
			v.ZeroGradient()
		}
	}
}

// LearningRate returns the batch-adjusted learning rate.
func (b *base[T]) LearningRate() float64 { return b.lr }

// SetLearningRate replaces the learning rate. The value is used as is, it
// is not divided by the batch size.
func (b *base[T]) SetLearningRate(lr float64) { b.lr = lr }

// Iterations returns the number of updates applied so far.
func (b *base[T]) Iterations() int { return b.iterations }

// decayed divides the learning rate by 1 + decay*iterations, compounding
// over iterations.
func (b *base[T]) decayed(decay float64) float64 {
	if decay > 0 {
		b.lr /= 1 + decay*float64(b.iterations)
	}
	return b.lr
}

// Names lists the optimizers accepted by New.
var Names = []string{"gd", "sgd", "adagrad", "rmsprop", "adadelta", "adam"}

// New builds an optimizer by name with default settings and the given
// learning rate (zero keeps the optimizer's default). Names are case
// insensitive.
func New[T tensor.Float](name string, s *graph.Session[T], loss graph.Node[T], batchSize int, lr float64) (Optimizer, error) {
	switch strings.ToLower(name) {
	case "gd", "gradient_descent":
		return NewGradientDescent(s, loss, batchSize, GradientDescentConfig{LR: lr}), nil
	case "sgd":
		return NewSGD(s, loss, batchSize, SGDConfig{LR: lr}), nil
	case "adagrad":
		return NewAdagrad(s, loss, batchSize, AdagradConfig{LR: lr}), nil
	case "rmsprop":
		return NewRMSprop(s, loss, batchSize, RMSpropConfig{LR: lr}), nil
	case "adadelta":
		return NewAdadelta(s, loss, batchSize, AdadeltaConfig{LR: lr}), nil
	case "adam":
		return NewAdam(s, loss, batchSize, AdamConfig{LR: lr}), nil
	}
	return nil, errors.Errorf("unknown optimizer %q, valid names are %s", name, strings.Join(Names, ", "))
}

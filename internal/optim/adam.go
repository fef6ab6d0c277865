package optim

import (
	"math"

	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule, with t the 1-based iteration:
//
//	m     = β1*m + (1-β1)*gradient
//	v     = β2*v + (1-β2)*gradient²
//	m̂     = m / (1 - β1^t)
//	v̂     = v / (1 - β2^t)
//	data -= lr * m̂ / (√v̂ + ε)
//
// With AMSGrad the running maximum of v̂ replaces v̂ in the denominator.
// m, v and the maximum are the first three context buffers of a variable.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014).
type Adam[T tensor.Float] struct {
	base[T]
	beta1, beta2, eps float64
	amsgrad           bool
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR      float64    // Learning rate (default: 0.001)
	Betas   [2]float64 // Coefficients of the running averages (default: [0.9, 0.999])
	Eps     float64    // Term for numerical stability (default: 1e-8)
	AMSGrad bool       // Use the AMSGrad variant
}

// NewAdam creates an Adam optimizer for loss.
func NewAdam[T tensor.Float](s *graph.Session[T], loss graph.Node[T], batchSize int, config AdamConfig) *Adam[T] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = epsilon
	}
	return &Adam[T]{
		base:    newBase("adam", s, loss, batchSize, config.LR),
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		amsgrad: config.AMSGrad,
	}
}

// Step backpropagates from the loss and updates the variables.
func (o *Adam[T]) Step() {
	o.backward()
	o.Apply()
}

// Apply updates the variables from their accumulated gradients.
func (o *Adam[T]) Apply() {
	t := float64(o.iterations + 1)
	biasCorrection1 := 1 - math.Pow(o.beta1, t)
	biasCorrection2 := 1 - math.Pow(o.beta2, t)
	b1, b2 := o.beta1, o.beta2

	o.update(func(v graph.Variable[T]) {
		n := 2
		if o.amsgrad {
			n = 3
		}
		ctx := v.Contexts(n)
		m, sq := ctx[0].Data(), ctx[1].Data()
		data, grad := v.Data().Data(), v.Gradient().Data()
		for i, g := range grad {
			g64 := float64(g)
			mi := b1*float64(m[i]) + (1-b1)*g64
			vi := b2*float64(sq[i]) + (1-b2)*g64*g64
			m[i], sq[i] = T(mi), T(vi)

			vHat := vi / biasCorrection2
			if o.amsgrad {
				peak := ctx[2].Data()
				vHat = max(vHat, float64(peak[i]))
				peak[i] = T(vHat)
			}
			data[i] -= T(o.lr * (mi / biasCorrection1) / (math.Sqrt(vHat) + o.eps))
		}
	})
}

// Timestep returns the number of updates applied so far.
func (o *Adam[T]) Timestep() int { return o.iterations }

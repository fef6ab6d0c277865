package graph

import (
	"math"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// normEpsilon is added to the variance before taking its square root.
const normEpsilon = 1e-8

// normalizer standardizes an input viewed as (batch, features, last): every
// feature is normalized over the batch and last axes. While training it
// uses the statistics of the current batch and folds them into running
// averages; in prediction mode it uses the running averages.
type normalizer[T tensor.Float] struct {
	name     string
	minRank  int
	momentum float64

	// layout splits a shape into (batch, features, last).
	layout func(shape tensor.Shape) (batch, features, last int)

	runningMean, runningVar []float64

	// Last forward.
	training bool
	invStd   []float64
	xhat     []float64
}

func (n *normalizer[T]) dims(shape tensor.Shape) (batch, features, last int) {
	if len(shape) < n.minRank {
		exceptions.Panicf("%s: input rank must be at least %d, got shape %v", n.name, n.minRank, shape)
	}
	batch, features, last = n.layout(shape)
	if n.runningMean != nil && len(n.runningMean) != features {
		exceptions.Panicf("%s: input %v has %d features, running statistics have %d",
			n.name, shape, features, len(n.runningMean))
	}
	return
}

func (n *normalizer[T]) forward(s *Session[T], x *tensor.Tensor[T]) *tensor.Tensor[T] {
	batch, features, last := n.dims(x.Shape())
	in := x.Data()
	at := func(b, c, l int) int { return (b*features+c)*last + l }

	n.training = s.Training()
	n.invStd = make([]float64, features)
	if !n.training {
		if n.runningMean == nil {
			exceptions.Panicf("%s: prediction before any training step", n.name)
		}
		out := tensor.ZerosLike(x)
		od := out.Data()
		for c := range features {
			n.invStd[c] = 1 / math.Sqrt(n.runningVar[c]+normEpsilon)
			for b := range batch {
				for l := range last {
					i := at(b, c, l)
					od[i] = T((float64(in[i]) - n.runningMean[c]) * n.invStd[c])
				}
			}
		}
		n.xhat = nil
		return out
	}

	if n.runningMean == nil {
		n.runningMean = make([]float64, features)
		n.runningVar = make([]float64, features)
	}
	count := float64(batch * last)
	out := tensor.ZerosLike(x)
	od := out.Data()
	n.xhat = make([]float64, len(in))
	for c := range features {
		var mean, variance float64
		for b := range batch {
			for l := range last {
				mean += float64(in[at(b, c, l)])
			}
		}
		mean /= count
		for b := range batch {
			for l := range last {
				d := float64(in[at(b, c, l)]) - mean
				variance += d * d
			}
		}
		variance /= count
		n.invStd[c] = 1 / math.Sqrt(variance+normEpsilon)
		for b := range batch {
			for l := range last {
				i := at(b, c, l)
				n.xhat[i] = (float64(in[i]) - mean) * n.invStd[c]
				od[i] = T(n.xhat[i])
			}
		}
		n.runningMean[c] = n.runningMean[c]*n.momentum + mean*(1-n.momentum)
		n.runningVar[c] = n.runningVar[c]*n.momentum + variance*(1-n.momentum)
	}
	return out
}

// backward differentiates through the batch statistics while training:
//
//	dx = invStd/N * (N*g - Σg - xhat*Σ(g*xhat))
//
// In prediction mode the statistics are constants and dx = g*invStd.
func (n *normalizer[T]) backward(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
	batch, features, last := n.layout(x.Shape())
	at := func(b, c, l int) int { return (b*features+c)*last + l }
	out := tensor.ZerosLike(x)
	od, gd := out.Data(), grad.Data()
	count := float64(batch * last)
	for c := range features {
		if !n.training {
			for b := range batch {
				for l := range last {
					i := at(b, c, l)
					od[i] = T(float64(gd[i]) * n.invStd[c])
				}
			}
			continue
		}
		var sumG, sumGX float64
		for b := range batch {
			for l := range last {
				i := at(b, c, l)
				sumG += float64(gd[i])
				sumGX += float64(gd[i]) * n.xhat[i]
			}
		}
		for b := range batch {
			for l := range last {
				i := at(b, c, l)
				od[i] = T(n.invStd[c] / count * (count*float64(gd[i]) - sumG - n.xhat[i]*sumGX))
			}
		}
	}
	return out
}

func newNormalizer[T tensor.Float](name string, x Node[T], momentum float64, minRank int,
	layout func(tensor.Shape) (int, int, int)) *UnaryOp[T] {
	if momentum < 0 || momentum >= 1 {
		exceptions.Panicf("%s: momentum %g must be in [0, 1)", name, momentum)
	}
	n := &normalizer[T]{name: name, minRank: minRank, momentum: momentum, layout: layout}
	return NewUnary(name, x, n.forward, n.backward)
}

// NormalizationBatch standardizes every feature of x over the batch axis.
// Features are all axes after the first. While the session trains, batch
// statistics are used and folded into running averages with the given
// momentum (typically 0.98); in prediction mode the running averages are
// used, so at least one training forward must come first.
func NormalizationBatch[T tensor.Float](x Node[T], momentum float64) Node[T] {
	return newNormalizer("normalization_batch", x, momentum, 2, func(s tensor.Shape) (int, int, int) {
		return s[0], s.NumElements() / s[0], 1
	})
}

// NormalizationInstance standardizes x over its batch and last (channel)
// axes, one statistic per position of the axes in between. x must have
// rank 3 or more.
func NormalizationInstance[T tensor.Float](x Node[T], momentum float64) Node[T] {
	return newNormalizer("normalization_instance", x, momentum, 3, func(s tensor.Shape) (int, int, int) {
		last := s[len(s)-1]
		return s[0], s.NumElements() / (s[0] * last), last
	})
}

// BatchNormalization is NormalizationBatch followed by the learned affine
// map gamma*x + beta, where gamma and beta have the shape of one sample.
func BatchNormalization[T tensor.Float](x, gamma, beta Node[T], momentum float64) Node[T] {
	return Plus(ElementwiseMultiply(NormalizationBatch(x, momentum), gamma), beta)
}

// InstanceNormalization is NormalizationInstance followed by gamma*x + beta.
func InstanceNormalization[T tensor.Float](x, gamma, beta Node[T], momentum float64) Node[T] {
	return Plus(ElementwiseMultiply(NormalizationInstance(x, momentum), gamma), beta)
}

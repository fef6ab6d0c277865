package graph

import (
	"math"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// crossEntropyEpsilon bounds the probabilities fed to the logarithm.
const crossEntropyEpsilon = 1e-8

// SquaredLoss is the sum of squared differences.
func SquaredLoss[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return SumReduce(Square(Minus(groundTruth, prediction)))
}

// MeanSquaredError is the mean of squared differences.
func MeanSquaredError[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return MeanReduce(Square(Minus(groundTruth, prediction)))
}

// MSE is MeanSquaredError.
func MSE[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return MeanSquaredError(groundTruth, prediction)
}

// AbsLoss is the sum of absolute differences.
func AbsLoss[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return SumReduce(Abs(Minus(groundTruth, prediction)))
}

// MeanAbsoluteError is the mean of absolute differences.
func MeanAbsoluteError[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return MeanReduce(Abs(Minus(groundTruth, prediction)))
}

// MAE is MeanAbsoluteError.
func MAE[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return MeanAbsoluteError(groundTruth, prediction)
}

// CrossEntropy is -Σ groundTruth ⊙ log(prediction), for predictions that
// already are probabilities.
func CrossEntropy[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return Negative(SumReduce(ElementwiseMultiply(groundTruth, Log(prediction))))
}

// CrossEntropyLoss fuses a softmax over the last axis of the prediction
// logits with the cross entropy against groundTruth, averaged over the
// batch (first axis):
//
//	-Σ groundTruth ⊙ log(max(ε, softmax(prediction))) / batch
//
// The gradient with respect to the logits is softmax(prediction) −
// groundTruth, scaled by the incoming gradient; the ground truth receives
// itself.
func CrossEntropyLoss[T tensor.Float](groundTruth, prediction Node[T]) Node[T] {
	return NewBinary("cross_entropy_loss", groundTruth, prediction,
		pure2(func(gt, pred *tensor.Tensor[T]) *tensor.Tensor[T] {
			sm := tensor.Softmax(pred)
			gd, sd := gt.Data(), sm.Data()
			if len(gd) != len(sd) {
				exceptions.Panicf("cross_entropy_loss: ground truth %v and prediction %v differ in size", gt.Shape(), pred.Shape())
			}
			var acc float64
			for i, g := range gd {
				acc -= float64(g) * math.Log(max(crossEntropyEpsilon, float64(sd[i])))
			}
			return tensor.Scalar(T(acc / float64(gt.Shape()[0])))
		}),
		func(gt, pred, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			g := grad.Item()
			gp := tensor.Sub(tensor.Softmax(pred), gt)
			if g != 1 {
				gp.ScaleInPlace(g)
			}
			return gt, gp
		})
}

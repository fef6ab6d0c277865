// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/born-ml/ember/internal/graph"

// Arithmetic

// Plus adds two nodes with cyclic broadcasting.
func Plus[T Float](lhs, rhs Node[T]) Node[T] { return graph.Plus(lhs, rhs) }

// Minus subtracts rhs from lhs with cyclic broadcasting.
func Minus[T Float](lhs, rhs Node[T]) Node[T] { return graph.Minus(lhs, rhs) }

// Negative negates x.
func Negative[T Float](x Node[T]) Node[T] { return graph.Negative(x) }

// Multiply is the matrix product of a [m, n] and a [n, k] node.
func Multiply[T Float](lhs, rhs Node[T]) Node[T] { return graph.Multiply(lhs, rhs) }

// ElementwiseMultiply multiplies element by element with broadcasting.
func ElementwiseMultiply[T Float](lhs, rhs Node[T]) Node[T] {
	return graph.ElementwiseMultiply(lhs, rhs)
}

// HadamardProduct is ElementwiseMultiply.
func HadamardProduct[T Float](lhs, rhs Node[T]) Node[T] { return graph.HadamardProduct(lhs, rhs) }

// ElementwiseDivide divides element by element with broadcasting.
func ElementwiseDivide[T Float](lhs, rhs Node[T]) Node[T] { return graph.ElementwiseDivide(lhs, rhs) }

func Log[T Float](x Node[T]) Node[T]            { return graph.Log(x) }
func Exp[T Float](x Node[T]) Node[T]            { return graph.Exp(x) }
func Square[T Float](x Node[T]) Node[T]         { return graph.Square(x) }
func Abs[T Float](x Node[T]) Node[T]            { return graph.Abs(x) }
func Clip[T Float](x Node[T], lo, hi T) Node[T] { return graph.Clip(x, lo, hi) }

// Reductions and shape

// SumReduce sums every element into a {1} tensor.
func SumReduce[T Float](x Node[T]) Node[T] { return graph.SumReduce(x) }

// MeanReduce averages every element into a {1} tensor.
func MeanReduce[T Float](x Node[T]) Node[T] { return graph.MeanReduce(x) }

// Reshape changes the shape of x. With includeBatch, shape describes a
// single sample and the leading batch extent is inferred.
func Reshape[T Float](x Node[T], shape []int, includeBatch bool) Node[T] {
	return graph.Reshape(x, shape, includeBatch)
}

// Flatten keeps the leading axis and flattens the others.
func Flatten[T Float](x Node[T]) Node[T] { return graph.Flatten(x) }

// Identity passes x through.
func Identity[T Float](x Node[T]) Node[T] { return graph.Identity(x) }

// Transpose swaps the two axes of a matrix.
func Transpose[T Float](x Node[T]) Node[T] { return graph.Transpose(x) }

// Concatenate joins two nodes along their last axis.
func Concatenate[T Float](lhs, rhs Node[T]) Node[T] { return graph.Concatenate(lhs, rhs) }

// Activations

func Relu[T Float](x Node[T]) Node[T]                { return graph.Relu(x) }
func LeakyRelu[T Float](x Node[T], factor T) Node[T] { return graph.LeakyRelu(x, factor) }
func Sigmoid[T Float](x Node[T]) Node[T]             { return graph.Sigmoid(x) }
func Tanh[T Float](x Node[T]) Node[T]                { return graph.Tanh(x) }

// Softmax normalizes the last axis of x.
func Softmax[T Float](x Node[T]) Node[T] { return graph.Softmax(x) }

// Dropout zeroes each element with probability rate while training and
// scales the rest by 1/(1-rate). Outside training it passes x through.
func Dropout[T Float](x Node[T], rate float64, seed int64) Node[T] {
	return graph.Dropout(x, rate, seed)
}

// Normalization

// NormalizationBatch standardizes every feature over the batch axis, with
// batch statistics while training and running averages in prediction.
func NormalizationBatch[T Float](x Node[T], momentum float64) Node[T] {
	return graph.NormalizationBatch(x, momentum)
}

// NormalizationInstance standardizes x over its batch and last axes.
func NormalizationInstance[T Float](x Node[T], momentum float64) Node[T] {
	return graph.NormalizationInstance(x, momentum)
}

// BatchNormalization is NormalizationBatch followed by gamma*x + beta.
func BatchNormalization[T Float](x, gamma, beta Node[T], momentum float64) Node[T] {
	return graph.BatchNormalization(x, gamma, beta, momentum)
}

// InstanceNormalization is NormalizationInstance followed by gamma*x + beta.
func InstanceNormalization[T Float](x, gamma, beta Node[T], momentum float64) Node[T] {
	return graph.InstanceNormalization(x, gamma, beta, momentum)
}

// Losses

func SquaredLoss[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.SquaredLoss(groundTruth, prediction)
}

func MeanSquaredError[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.MeanSquaredError(groundTruth, prediction)
}

// MSE is MeanSquaredError.
func MSE[T Float](groundTruth, prediction Node[T]) Node[T] { return graph.MSE(groundTruth, prediction) }

func AbsLoss[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.AbsLoss(groundTruth, prediction)
}

func MeanAbsoluteError[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.MeanAbsoluteError(groundTruth, prediction)
}

// MAE is MeanAbsoluteError.
func MAE[T Float](groundTruth, prediction Node[T]) Node[T] { return graph.MAE(groundTruth, prediction) }

// CrossEntropy is -Σ groundTruth·log(prediction) averaged over the batch.
func CrossEntropy[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.CrossEntropy(groundTruth, prediction)
}

// CrossEntropyLoss applies softmax to the prediction logits and computes
// the cross entropy in one node.
func CrossEntropyLoss[T Float](groundTruth, prediction Node[T]) Node[T] {
	return graph.CrossEntropyLoss(groundTruth, prediction)
}

// Convolutions

// Padding selects how convolutions treat borders.
type Padding = graph.Padding

// Padding modes.
const (
	Valid = graph.Valid
	Same  = graph.Same // the dilated kernel minus the stride must be even
)

// ConvConfig describes a 2D convolution window.
type ConvConfig = graph.ConvConfig

// Img2Col unrolls the windows of an NHWC input into the columns of a
// matrix.
func Img2Col[T Float](x Node[T], cfg ConvConfig) Node[T] { return graph.Img2Col(x, cfg) }

// Conv2D convolves an NHWC input with a [filters, rows, cols, channels]
// filter.
func Conv2D[T Float](x, filter Node[T], cfg ConvConfig) Node[T] { return graph.Conv2D(x, filter, cfg) }

// MaxPooling2D takes the maximum of each stride×stride window.
func MaxPooling2D[T Float](x Node[T], stride int) Node[T] { return graph.MaxPooling2D(x, stride) }

// AveragePooling2D averages each stride×stride window.
func AveragePooling2D[T Float](x Node[T], stride int) Node[T] {
	return graph.AveragePooling2D(x, stride)
}

// UpSampling2D repeats each pixel factor×factor times.
func UpSampling2D[T Float](x Node[T], factor int) Node[T] { return graph.UpSampling2D(x, factor) }

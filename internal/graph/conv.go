package graph

import (
	"math"
	"math/rand"

	"github.com/born-ml/ember/internal/parallel"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// Image tensors are NHWC: (batch, rows, cols, channels). Filters are
// (outChannels, kernelRows, kernelCols, inChannels).

// Padding selects how convolutions treat borders.
type Padding int

const (
	// Valid keeps only windows fully inside the image.
	Valid Padding = iota
	// Same zero-pads so that a stride-1 convolution keeps rows and cols.
	// The padding is split evenly between both sides, so the dilated
	// kernel extent minus the stride must be even on each axis.
	Same
)

// ConvConfig describes a 2D convolution window.
type ConvConfig struct {
	// KernelRows and KernelCols default to the filter extents when the
	// filter is a Variable or Constant.
	KernelRows, KernelCols int

	// Stride and Dilation default to 1 on both axes.
	Stride   [2]int
	Dilation [2]int

	Padding Padding
}

func (c ConvConfig) withDefaults() ConvConfig {
	for i := range 2 {
		if c.Stride[i] <= 0 {
			c.Stride[i] = 1
		}
		if c.Dilation[i] <= 0 {
			c.Dilation[i] = 1
		}
	}
	return c
}

// convGeometry is a ConvConfig resolved against an input shape.
type convGeometry struct {
	batch, rows, cols, channels int
	kr, kc, sr, sc, dr, dc      int
	pr, pc                      int
	outRows, outCols            int
}

func newGeometry(op string, shape tensor.Shape, cfg ConvConfig) convGeometry {
	if len(shape) != 4 {
		exceptions.Panicf("%s: expected an NHWC input, got shape %v", op, shape)
	}
	g := convGeometry{
		batch: shape[0], rows: shape[1], cols: shape[2], channels: shape[3],
		kr: cfg.KernelRows, kc: cfg.KernelCols,
		sr: cfg.Stride[0], sc: cfg.Stride[1],
		dr: cfg.Dilation[0], dc: cfg.Dilation[1],
	}
	if g.kr <= 0 || g.kc <= 0 {
		exceptions.Panicf("%s: kernel size %dx%d must be positive", op, g.kr, g.kc)
	}
	if cfg.Padding == Same {
		g.pr = samePadding(op, "row", g.kr, g.sr, g.dr)
		g.pc = samePadding(op, "col", g.kc, g.sc, g.dc)
	}
	g.outRows = (g.rows+2*g.pr-(g.dr*(g.kr-1)+1))/g.sr + 1
	g.outCols = (g.cols+2*g.pc-(g.dc*(g.kc-1)+1))/g.sc + 1
	if g.outRows <= 0 || g.outCols <= 0 {
		exceptions.Panicf("%s: kernel %dx%d (dilation %dx%d) does not fit input %v",
			op, g.kr, g.kc, g.dr, g.dc, shape)
	}
	return g
}

// samePadding returns the zero padding on each side of one axis. The total
// padding, the dilated kernel extent minus the stride, must split evenly.
func samePadding(op, axis string, kernel, stride, dilation int) int {
	total := kernel + (kernel-1)*(dilation-1) - stride
	if total <= 0 {
		return 0
	}
	if total%2 != 0 {
		exceptions.Panicf("%s: Same padding needs an even total %s padding, got %d (kernel %d, stride %d, dilation %d)",
			op, axis, total, kernel, stride, dilation)
	}
	return total / 2
}

func (g convGeometry) patchRows() int { return g.kr * g.kc * g.channels }
func (g convGeometry) patchCols() int { return g.batch * g.outRows * g.outCols }

// source returns the flat input index feeding img2col cell (row, col), or
// -1 for a padding cell.
func (g convGeometry) source(row, col int) int {
	ch := row % g.channels
	j := (row / g.channels) % g.kc
	i := row / (g.channels * g.kc)
	w := col % g.outCols
	h := (col / g.outCols) % g.outRows
	b := col / (g.outCols * g.outRows)
	r := h*g.sr - g.pr + i*g.dr
	c := w*g.sc - g.pc + j*g.dc
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return -1
	}
	return ((b*g.rows+r)*g.cols+c)*g.channels + ch
}

// img2col lays every receptive field of x out as a column. The geometry of
// the last forward is written to *geom.
func img2col[T tensor.Float](x Node[T], cfg ConvConfig, geom *convGeometry) Node[T] {
	return NewUnary("img2col", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			g := newGeometry("img2col", x.Shape(), cfg)
			*geom = g
			rows, cols := g.patchRows(), g.patchCols()
			out := tensor.Zeros[T](rows, cols)
			in, od := x.Data(), out.Data()
			parallel.For(rows, func(row int) {
				dst := od[row*cols : (row+1)*cols]
				for col := range dst {
					if src := g.source(row, col); src >= 0 {
						dst[col] = in[src]
					}
				}
			}, parallel.Config{Enabled: true, NumWorkers: parallel.Default().NumWorkers, MinChunkSize: 4})
			return out
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			g := *geom
			out := tensor.ZerosLike(x)
			od, gd := out.Data(), grad.Data()
			cols := g.patchCols()
			for row := 0; row < g.patchRows(); row++ {
				for col := 0; col < cols; col++ {
					if src := g.source(row, col); src >= 0 {
						od[src] += gd[row*cols+col]
					}
				}
			}
			return out
		})
}

// Img2Col rearranges the receptive fields of an NHWC input into the columns
// of a (kernelRows*kernelCols*channels, batch*outRows*outCols) matrix, with
// zeros for padding. Rows are ordered (kernelRow, kernelCol, channel), which
// matches a filter of shape (outChannels, kernelRows, kernelCols, channels)
// flattened to (outChannels, -1).
func Img2Col[T tensor.Float](x Node[T], cfg ConvConfig) Node[T] {
	return img2col(x, cfg.withDefaults(), new(convGeometry))
}

// Conv2D convolves the NHWC input x with filter, producing
// (batch, outRows, outCols, outChannels).
func Conv2D[T tensor.Float](x, filter Node[T], cfg ConvConfig) Node[T] {
	cfg = cfg.withDefaults()
	if cfg.KernelRows == 0 || cfg.KernelCols == 0 {
		w := filter.Output()
		if w == nil || w.Rank() != 4 {
			exceptions.Panicf("Conv2D: kernel size not set and filter %s has no 4D value", filter.Name())
		}
		cfg.KernelRows, cfg.KernelCols = w.Shape()[1], w.Shape()[2]
	}
	geom := new(convGeometry)
	cols := img2col(x, cfg, geom)
	product := Transpose(Multiply(Flatten(filter), cols))
	return NewUnary("conv2d", product,
		pure(func(p *tensor.Tensor[T]) *tensor.Tensor[T] {
			return p.Reshape(geom.batch, geom.outRows, geom.outCols, -1)
		}),
		func(p, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return grad.Reshape(p.Shape()...)
		})
}

// poolShape checks x and returns the output shape of a stride×stride pool.
func poolShape(op string, shape tensor.Shape, stride int) (batch, rows, cols, channels, outRows, outCols int) {
	if len(shape) != 4 {
		exceptions.Panicf("%s: expected an NHWC input, got shape %v", op, shape)
	}
	if stride <= 0 || shape[1] < stride || shape[2] < stride {
		exceptions.Panicf("%s: stride %d invalid for input %v", op, stride, shape)
	}
	return shape[0], shape[1], shape[2], shape[3], shape[1] / stride, shape[2] / stride
}

// forEachWindow calls f(o, first) for every output index o of a
// stride×stride pool over an NHWC input, first being the input index of the
// top-left element of the window. Distinct (batch, channel) pairs run in
// parallel and touch disjoint elements.
func forEachWindow(op string, shape tensor.Shape, stride int, f func(o, first int)) {
	bs, rows, cols, chs, outR, outC := poolShape(op, shape, stride)
	parallel.ForBatch(bs, chs, func(b, ch int) {
		for r := range outR {
			for c := range outC {
				f(((b*outR+r)*outC+c)*chs+ch, ((b*rows+r*stride)*cols+c*stride)*chs+ch)
			}
		}
	}, parallel.Default())
}

// MaxPooling2D takes the maximum of every stride×stride window. Trailing
// rows and cols that do not fill a window are dropped.
func MaxPooling2D[T tensor.Float](x Node[T], stride int) Node[T] {
	var argmax []int
	return NewUnary("max_pooling_2d", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			bs, _, cols, chs, outR, outC := poolShape("max_pooling_2d", x.Shape(), stride)
			out := tensor.Zeros[T](bs, outR, outC, chs)
			in, od := x.Data(), out.Data()
			argmax = make([]int, len(od))
			forEachWindow("max_pooling_2d", x.Shape(), stride, func(o, first int) {
				best, bestIdx := T(math.Inf(-1)), -1
				for i := range stride {
					for j := range stride {
						idx := first + (i*cols+j)*chs
						if in[idx] > best || bestIdx < 0 {
							best, bestIdx = in[idx], idx
						}
					}
				}
				od[o], argmax[o] = best, bestIdx
			})
			return out
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			out := tensor.ZerosLike(x)
			od, gd := out.Data(), grad.Data()
			forEachWindow("max_pooling_2d", x.Shape(), stride, func(o, _ int) {
				od[argmax[o]] += gd[o]
			})
			return out
		})
}

// AveragePooling2D averages every stride×stride window.
func AveragePooling2D[T tensor.Float](x Node[T], stride int) Node[T] {
	// window calls visit(o, idx) for every input element idx of window o.
	window := func(shape tensor.Shape, visit func(o, idx int)) {
		_, _, cols, chs, _, _ := poolShape("average_pooling_2d", shape, stride)
		forEachWindow("average_pooling_2d", shape, stride, func(o, first int) {
			for i := range stride {
				for j := range stride {
					visit(o, first+(i*cols+j)*chs)
				}
			}
		})
	}
	area := T(stride * stride)
	return NewUnary("average_pooling_2d", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			bs, _, _, chs, outR, outC := poolShape("average_pooling_2d", x.Shape(), stride)
			out := tensor.Zeros[T](bs, outR, outC, chs)
			in, od := x.Data(), out.Data()
			window(x.Shape(), func(o, idx int) { od[o] += in[idx] })
			return out.ScaleInPlace(1 / area)
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			out := tensor.ZerosLike(x)
			od, gd := out.Data(), grad.Data()
			window(x.Shape(), func(o, idx int) { od[idx] += gd[o] / area })
			return out
		})
}

// UpSampling2D repeats every pixel factor times along rows and cols.
func UpSampling2D[T tensor.Float](x Node[T], factor int) Node[T] {
	if factor <= 0 {
		exceptions.Panicf("UpSampling2D: factor %d must be positive", factor)
	}
	// visit calls f(input index, output index) for every output pixel, one
	// (batch, channel) pair per task.
	visit := func(shape tensor.Shape, f func(in, out int)) {
		if len(shape) != 4 {
			exceptions.Panicf("up_sampling_2d: expected an NHWC input, got shape %v", shape)
		}
		bs, rows, cols, chs := shape[0], shape[1], shape[2], shape[3]
		parallel.ForBatch(bs, chs, func(b, ch int) {
			for r := range rows * factor {
				for c := range cols * factor {
					f(((b*rows+r/factor)*cols+c/factor)*chs+ch, ((b*rows*factor+r)*cols*factor+c)*chs+ch)
				}
			}
		}, parallel.Default())
	}
	return NewUnary("up_sampling_2d", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			s := x.Shape()
			if len(s) != 4 {
				exceptions.Panicf("up_sampling_2d: expected an NHWC input, got shape %v", s)
			}
			out := tensor.Zeros[T](s[0], s[1]*factor, s[2]*factor, s[3])
			in, od := x.Data(), out.Data()
			visit(s, func(i, o int) { od[o] = in[i] })
			return out
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			out := tensor.ZerosLike(x)
			od, gd := out.Data(), grad.Data()
			visit(x.Shape(), func(i, o int) { od[i] += gd[o] })
			return out
		})
}

// Dropout zeroes each element with probability rate while the session is
// training, scaling the survivors by 1/(1-rate). In prediction mode it is
// the identity.
func Dropout[T tensor.Float](x Node[T], rate float64, seed int64) Node[T] {
	if rate < 0 || rate >= 1 {
		exceptions.Panicf("Dropout: rate %g must be in [0, 1)", rate)
	}
	rng := rand.New(rand.NewSource(seed))
	var mask *tensor.Tensor[T]
	return NewUnary("dropout", x,
		func(s *Session[T], x *tensor.Tensor[T]) *tensor.Tensor[T] {
			if !s.Training() || rate == 0 {
				mask = nil
				return x
			}
			mask = tensor.ZerosLike(x)
			keep := T(1 / (1 - rate))
			md := mask.Data()
			for i := range md {
				if rng.Float64() >= rate {
					md[i] = keep
				}
			}
			return tensor.ElementwiseMultiply(x, mask)
		},
		func(_, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			if mask == nil {
				return grad
			}
			return tensor.ElementwiseMultiply(grad, mask)
		})
}

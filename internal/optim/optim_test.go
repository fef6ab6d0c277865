package optim_test

import (
	"math"
	"testing"

	"github.com/born-ml/ember/internal/gemm"
	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/optim"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gemm.SetDefault(gemm.New(gemm.Config{Threshold: gemm.Never}))
}

// sumOf returns a variable holding x and the loss Σx, whose gradient is
// always one.
func sumOf(x ...float64) (graph.Variable[float64], graph.Node[float64]) {
	data, err := tensor.FromSlice(x, len(x))
	if err != nil {
		panic(err)
	}
	v := graph.NewVariable(data)
	return v, graph.SumReduce[float64](v)
}

// steps runs n forward passes each followed by an optimizer step.
func steps(s *graph.Session[float64], loss graph.Node[float64], opt optim.Optimizer, n int) {
	for range n {
		s.Run(loss)
		opt.Step()
	}
}

func TestGradientDescent(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{LR: 0.1})
		steps(s, loss, opt, 1)
		assert.InDelta(t, 1.9, x.Data().Item(), 1e-12)
	})

	t.Run("batch_size_scales_rate", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewGradientDescent(s, loss, 2, optim.GradientDescentConfig{LR: 0.1})
		assert.InDelta(t, 0.05, opt.LearningRate(), 1e-12)
		steps(s, loss, opt, 1)
		assert.InDelta(t, 1.95, x.Data().Item(), 1e-12)
	})

	t.Run("momentum_uses_previous_gradient", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{LR: 0.1, Momentum: 0.5})

		// No previous gradient yet: half a step.
		steps(s, loss, opt, 1)
		assert.InDelta(t, 1.95, x.Data().Item(), 1e-12)
		steps(s, loss, opt, 1)
		assert.InDelta(t, 1.85, x.Data().Item(), 1e-12)
	})

	t.Run("nan_gradient_panics", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(1)
		opt := optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{})
		s.Run(loss)
		x.Gradient().Set(math.NaN(), 0)
		err := exceptions.TryCatch[error](opt.Apply)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NaN")
	})
}

func TestSGD(t *testing.T) {
	for _, tc := range []struct {
		name   string
		config optim.SGDConfig
		want   []float64
	}{
		{"plain", optim.SGDConfig{LR: 0.1}, []float64{1.9, 1.8}},
		{"momentum", optim.SGDConfig{LR: 0.1, Momentum: 0.9}, []float64{1.9, 1.71}},
		{"nesterov", optim.SGDConfig{LR: 0.1, Momentum: 0.9, Nesterov: true}, []float64{1.81, 1.539}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := graph.NewSession[float64]()
			defer s.Close()
			x, loss := sumOf(2)
			opt := optim.NewSGD(s, loss, 1, tc.config)
			for _, want := range tc.want {
				steps(s, loss, opt, 1)
				assert.InDelta(t, want, x.Data().Item(), 1e-12)
			}
			assert.Equal(t, len(tc.want), opt.Iterations())
		})
	}

	t.Run("decay", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		_, loss := sumOf(2)
		opt := optim.NewSGD(s, loss, 1, optim.SGDConfig{LR: 0.1, Decay: 0.5})
		steps(s, loss, opt, 2)
		assert.InDelta(t, 0.1/1.5, opt.LearningRate(), 1e-12)
	})
}

func TestAdaptive(t *testing.T) {
	t.Run("adagrad", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewAdagrad(s, loss, 1, optim.AdagradConfig{LR: 0.1})
		steps(s, loss, opt, 2)
		assert.InDelta(t, 2-0.1-0.1/math.Sqrt2, x.Data().Item(), 1e-6)
		assert.Equal(t, []float64{2}, x.Contexts(1)[0].Data())
	})

	t.Run("rmsprop", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewRMSprop(s, loss, 1, optim.RMSpropConfig{LR: 0.1})
		steps(s, loss, opt, 1)
		assert.InDelta(t, 1.9, x.Data().Item(), 1e-6)
		assert.Equal(t, []float64{1}, x.Contexts(1)[0].Data())
	})

	t.Run("adadelta", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewAdadelta(s, loss, 1, optim.AdadeltaConfig{})
		steps(s, loss, opt, 1)
		delta := math.Sqrt(1e-8 / (0.1 + 1e-8))
		assert.InDelta(t, 2-delta, x.Data().Item(), 1e-12)
		ctx := x.Contexts(2)
		assert.InDelta(t, 0.1, ctx[0].Item(), 1e-12)
		assert.InDelta(t, 0.1*delta*delta, ctx[1].Item(), 1e-18)
	})

	t.Run("adam", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewAdam(s, loss, 1, optim.AdamConfig{LR: 0.01})
		// A constant gradient gives m̂ = v̂ = 1: every step moves by lr.
		steps(s, loss, opt, 3)
		assert.InDelta(t, 2-0.03, x.Data().Item(), 1e-6)
		assert.Equal(t, 3, opt.Timestep())
	})

	t.Run("amsgrad", func(t *testing.T) {
		s := graph.NewSession[float64]()
		defer s.Close()
		x, loss := sumOf(2)
		opt := optim.NewAdam(s, loss, 1, optim.AdamConfig{LR: 0.01, AMSGrad: true})
		steps(s, loss, opt, 2)
		assert.InDelta(t, 2-0.02, x.Data().Item(), 1e-6)
		assert.Len(t, x.Contexts(3), 3)
		assert.InDelta(t, 1, x.Contexts(3)[2].Item(), 1e-9)
	})
}

func TestFrozenVariablesAreSkipped(t *testing.T) {
	s := graph.NewSession[float64]()
	defer s.Close()

	trained := graph.NewVariable(tensor.Full(2.0, 1))
	frozen := graph.NewVariable(tensor.Full(2.0, 1), graph.Frozen())
	loss := graph.SumReduce(graph.Plus[float64](trained, frozen))
	opt := optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{LR: 0.5})

	steps(s, loss, opt, 1)
	assert.InDelta(t, 1.5, trained.Data().Item(), 1e-12)
	assert.Equal(t, 2.0, frozen.Data().Item())
	assert.Equal(t, 1.0, frozen.Gradient().Item(), "frozen variables still accumulate")

	opt.ZeroGrad()
	assert.Equal(t, 0.0, trained.Gradient().Item())
	assert.Equal(t, 1.0, frozen.Gradient().Item())
}

func TestInvalidConstruction(t *testing.T) {
	s := graph.NewSession[float64]()
	defer s.Close()
	_, loss := sumOf(1)

	err := exceptions.TryCatch[error](func() { optim.NewSGD(s, loss, 0, optim.SGDConfig{}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch size must be positive")

	_, err = optim.New("lbfgs", s, loss, 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown optimizer")

	for _, name := range optim.Names {
		opt, err := optim.New(name, s, loss, 4, 0.4)
		require.NoError(t, err, name)
		assert.InDelta(t, 0.1, opt.LearningRate(), 1e-12, name)
	}
}

// TestFitLine trains y = 3x + 1 with every optimizer and checks that the
// mean squared error drops well below its starting value.
func TestFitLine(t *testing.T) {
	const n = 8
	xs, ys := make([]float64, n), make([]float64, n)
	for i := range n {
		xs[i] = -1 + 2*float64(i)/(n-1)
		ys[i] = 3*xs[i] + 1
	}
	inputs, err := tensor.FromSlice(xs, n, 1)
	require.NoError(t, err)
	labels, err := tensor.FromSlice(ys, n, 1)
	require.NoError(t, err)

	for name, build := range map[string]func(*graph.Session[float64], graph.Node[float64]) optim.Optimizer{
		"gradient_descent": func(s *graph.Session[float64], loss graph.Node[float64]) optim.Optimizer {
			return optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{LR: 0.1})
		},
		"sgd_momentum": func(s *graph.Session[float64], loss graph.Node[float64]) optim.Optimizer {
			return optim.NewSGD(s, loss, 1, optim.SGDConfig{LR: 0.05, Momentum: 0.9})
		},
		"adagrad": func(s *graph.Session[float64], loss graph.Node[float64]) optim.Optimizer {
			return optim.NewAdagrad(s, loss, 1, optim.AdagradConfig{LR: 0.5})
		},
		"rmsprop": func(s *graph.Session[float64], loss graph.Node[float64]) optim.Optimizer {
			return optim.NewRMSprop(s, loss, 1, optim.RMSpropConfig{LR: 0.05})
		},
		"adam": func(s *graph.Session[float64], loss graph.Node[float64]) optim.Optimizer {
			return optim.NewAdam(s, loss, 1, optim.AdamConfig{LR: 0.05})
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := graph.NewSession[float64]()
			defer s.Close()

			x := graph.NewPlaceholder[float64](1)
			w := graph.NewVariable(tensor.Zeros[float64](1, 1))
			b := graph.NewVariable(tensor.Zeros[float64](1))
			pred := graph.Plus[float64](graph.Multiply[float64](x, w), b)
			loss := graph.MeanSquaredError[float64](graph.NewConstant(labels), pred)
			s.Bind(x, inputs)

			opt := build(s, loss)
			initial := s.Run(loss).Item()
			opt.Step()
			steps(s, loss, opt, 199)
			final := s.Run(loss).Item()
			assert.Less(t, final, initial/2, "loss %g -> %g", initial, final)
		})
	}
}

// TestDenseLayerStep runs one gradient descent step on relu(x·W + b) and
// checks that the next forward starts a fresh gradient.
func TestDenseLayerStep(t *testing.T) {
	s := graph.NewSession[float64]()
	defer s.Close()

	x := graph.NewPlaceholder[float64](3)
	wData, err := tensor.FromSlice([]float64{1, 0, 0, 1, 1, -1}, 3, 2)
	require.NoError(t, err)
	w := graph.NewVariable(wData)
	b := graph.NewVariable(tensor.Zeros[float64](2))
	y := graph.Relu(graph.Plus(graph.Multiply[float64](x, w), graph.Node[float64](b)))
	loss := graph.SumReduce(y)

	input, err := tensor.FromSlice([]float64{1, 2, 3, -1, 0, 1}, 2, 3)
	require.NoError(t, err)
	s.Bind(x, input)
	assert.Equal(t, tensor.Shape{2, 2}, s.Run(y).Shape())

	before := w.Data().DeepCopy()
	opt := optim.NewGradientDescent(s, loss, 1, optim.GradientDescentConfig{LR: 0.1})
	s.Run(loss)
	opt.Step()
	assert.False(t, tensor.Equal(before, w.Data()), "W must change")

	s.Run(loss)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, w.Gradient().Data())
}

package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/born-ml/ember/backend"
	"github.com/born-ml/ember/checkpoint"
	"github.com/born-ml/ember/graph"
	"github.com/born-ml/ember/optim"
	"github.com/born-ml/ember/tensor"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// trainOptions configures a training run on a synthetic dataset of
// Gaussian blobs.
type trainOptions struct {
	Epochs    int
	BatchSize int
	Optimizer string
	LR        float64
	Hidden    int
	Classes   int
	Features  int
	Samples   int
	Noise     float64
	Seed      int64

	Checkpoint string
	Resume     string
}

// trainResult summarizes a finished run.
type trainResult struct {
	Loss     float32
	Accuracy float64
	Params   int
}

func newTrainCmd() *cobra.Command {
	opts := trainOptions{}
	var flags gemmFlags
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a two-layer perceptron on synthetic clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, release := flags.dispatcher()
			defer release()
			backend.SetDefault(d)

			res, err := train(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "final loss %.4f, accuracy %.1f%%\n", res.Loss, 100*res.Accuracy)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Epochs, "epochs", 10, "Number of training epochs")
	f.IntVar(&opts.BatchSize, "batch", 32, "Batch size")
	f.StringVar(&opts.Optimizer, "optimizer", "sgd", fmt.Sprintf("Optimizer, one of %v", optim.Names))
	f.Float64Var(&opts.LR, "lr", 0.1, "Learning rate (0 = optimizer default)")
	f.IntVar(&opts.Hidden, "hidden", 32, "Hidden layer width")
	f.IntVar(&opts.Classes, "classes", 3, "Number of clusters to separate")
	f.IntVar(&opts.Features, "features", 4, "Input dimension")
	f.IntVar(&opts.Samples, "samples", 1200, "Number of generated samples")
	f.Float64Var(&opts.Noise, "noise", 0.5, "Standard deviation of each cluster")
	f.Int64Var(&opts.Seed, "seed", 1, "Random seed")
	f.StringVar(&opts.Checkpoint, "checkpoint", "", "Save the trained variables to this file")
	f.StringVar(&opts.Resume, "resume", "", "Restore variables from this checkpoint before training")
	flags.register(cmd)
	return cmd
}

// blobs places one cluster per class around ±4 on a distinct axis and
// returns the samples with their one-hot labels.
func blobs(rng *rand.Rand, samples, features, classes int, noise float64) (x, y *tensor.Tensor[float32], labels []int) {
	xs := make([]float32, samples*features)
	ys := make([]float32, samples*classes)
	labels = make([]int, samples)
	for i := range samples {
		c := rng.Intn(classes)
		labels[i] = c
		ys[i*classes+c] = 1
		center := float32(4)
		if (c/features)%2 == 1 {
			center = -4
		}
		for j := range features {
			v := float32(rng.NormFloat64() * noise)
			if j == c%features {
				v += center
			}
			xs[i*features+j] = v
		}
	}
	x = must.M1(tensor.FromSlice(xs, samples, features))
	y = must.M1(tensor.FromSlice(ys, samples, classes))
	return x, y, labels
}

// rows copies the rows idx of a matrix into a new matrix.
func rows(t *tensor.Tensor[float32], idx []int) *tensor.Tensor[float32] {
	width := t.Shape()[1]
	out := tensor.Zeros[float32](len(idx), width)
	src, dst := t.Data(), out.Data()
	for i, r := range idx {
		copy(dst[i*width:(i+1)*width], src[r*width:(r+1)*width])
	}
	return out
}

func train(opts trainOptions, out, progress io.Writer) (trainResult, error) {
	if opts.BatchSize < 1 || opts.BatchSize > opts.Samples {
		return trainResult{}, errors.Errorf("batch size %d must be in [1, %d]", opts.BatchSize, opts.Samples)
	}
	if opts.Classes > 2*opts.Features {
		return trainResult{}, errors.Errorf("%d classes need at least %d features", opts.Classes, (opts.Classes+1)/2)
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	inputs, onehot, labels := blobs(rng, opts.Samples, opts.Features, opts.Classes, opts.Noise)

	x := graph.NewPlaceholder[float32](opts.Features)
	gt := graph.NewPlaceholder[float32](opts.Classes)
	w1 := graph.NewVariable(tensor.GlorotUniform[float32](rng, opts.Features, opts.Hidden), graph.WithName("dense_1/w"))
	b1 := graph.NewVariable(tensor.Zeros[float32](opts.Hidden), graph.WithName("dense_1/b"))
	w2 := graph.NewVariable(tensor.GlorotUniform[float32](rng, opts.Hidden, opts.Classes), graph.WithName("dense_2/w"))
	b2 := graph.NewVariable(tensor.Zeros[float32](opts.Classes), graph.WithName("dense_2/b"))

	hidden := graph.Relu(graph.Plus(graph.Multiply[float32](x, w1), graph.Node[float32](b1)))
	logits := graph.Plus(graph.Multiply(hidden, graph.Node[float32](w2)), graph.Node[float32](b2))
	loss := graph.CrossEntropyLoss(graph.Node[float32](gt), logits)

	s := graph.NewSession[float32]()
	defer s.Close()
	s.Tap(loss)

	params := 0
	for _, v := range s.Variables() {
		params += v.Data().Size()
	}
	fmt.Fprintf(out, "model: %d parameters (%s)\n", params, humanize.Bytes(uint64(params*4)))

	if opts.Resume != "" {
		if err := checkpoint.RestoreFile(opts.Resume, s); err != nil {
			return trainResult{}, err
		}
		fmt.Fprintf(out, "resumed from %s\n", opts.Resume)
	}

	opt, err := optim.New(opts.Optimizer, s, loss, opts.BatchSize, opts.LR)
	if err != nil {
		return trainResult{}, err
	}

	batches := opts.Samples / opts.BatchSize
	bar := progressbar.NewOptions(opts.Epochs*batches,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("batches"),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)
	start := time.Now()
	var last float32
	for epoch := range opts.Epochs {
		perm := rng.Perm(opts.Samples)
		var total float32
		for b := range batches {
			idx := perm[b*opts.BatchSize : (b+1)*opts.BatchSize]
			s.Bind(x, rows(inputs, idx))
			s.Bind(gt, rows(onehot, idx))
			total += s.Run(loss).Item()
			opt.Step()
			_ = bar.Add(1)
		}
		last = total / float32(batches)
		bar.Describe(fmt.Sprintf("epoch %d/%d loss %.4f", epoch+1, opts.Epochs, last))
		klog.V(1).Infof("epoch %d: loss %g", epoch+1, last)
	}
	_ = bar.Finish()
	fmt.Fprintln(progress)

	s.SetTraining(false)
	s.Bind(x, inputs)
	predicted := tensor.ArgMax(s.Run(logits))
	correct := 0
	for i, p := range predicted {
		if p == labels[i] {
			correct++
		}
	}
	fmt.Fprintf(out, "trained %d epochs in %s\n", opts.Epochs, time.Since(start).Round(time.Millisecond))

	if opts.Checkpoint != "" {
		if err := checkpoint.SaveFile(opts.Checkpoint, s); err != nil {
			return trainResult{}, errors.WithMessage(err, "saving checkpoint")
		}
		fmt.Fprintf(out, "saved checkpoint to %s\n", opts.Checkpoint)
	}
	return trainResult{Loss: last, Accuracy: float64(correct) / float64(opts.Samples), Params: params}, nil
}

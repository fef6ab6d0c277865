package graph

import (
	"sort"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// Session is the evaluation context of a graph: it binds data to
// placeholders, keeps the registry of variables met during evaluation and
// carries the training flag.
//
// Sessions are independent of each other and explicit: every Forward and
// Backward takes the session it runs in. A Session is not safe for
// concurrent use.
type Session[T tensor.Float] struct {
	placeholders []Placeholder[T]
	bound        map[int]bool
	variables    map[int]Variable[T]
	training     bool
	closed       bool

	// step counts calls to Run; a variable swaps its gradient buffers on
	// the first Forward of each step.
	step int
}

// SessionOption configures NewSession.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	training bool
}

// WithTraining sets the initial learning phase. Sessions start in training
// mode by default.
func WithTraining(training bool) SessionOption {
	return func(c *sessionConfig) { c.training = training }
}

// NewSession creates an open session.
func NewSession[T tensor.Float](opts ...SessionOption) *Session[T] {
	cfg := sessionConfig{training: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session[T]{
		bound:     make(map[int]bool),
		variables: make(map[int]Variable[T]),
		training:  cfg.training,
	}
}

func (s *Session[T]) mustOpen(op string) {
	if s == nil {
		exceptions.Panicf("%s: nil session", op)
	}
	if s.closed {
		exceptions.Panicf("%s: session is closed", op)
	}
}

// Bind attaches t to p and records p so Close can reset it.
//
// A placeholder holds one binding shared by every session; the last Bind
// or Rebind wins. Nodes already evaluated in the current step keep their
// memoized outputs, so the new data is seen from the next Run on.
func (s *Session[T]) Bind(p Placeholder[T], t *tensor.Tensor[T]) {
	s.mustOpen("Bind")
	p.bind(s, t)
	if !s.bound[p.id] {
		s.bound[p.id] = true
		s.placeholders = append(s.placeholders, p)
	}
}

// Rebind replaces the tensor of an already bound placeholder without
// recording it again. Like Bind, it takes effect at the next Run: a Forward
// within the current step still returns the memoized outputs.
func (s *Session[T]) Rebind(p Placeholder[T], t *tensor.Tensor[T]) {
	s.mustOpen("Rebind")
	p.bind(s, t)
}

// Remember registers v. Registering the same variable again is a no-op.
func (s *Session[T]) Remember(v Variable[T]) {
	s.mustOpen("Remember")
	if _, found := s.variables[v.id]; !found {
		s.variables[v.id] = v
	}
}

// Run starts a new step and evaluates node. It does not run the backward
// pass.
func (s *Session[T]) Run(node Node[T]) *tensor.Tensor[T] {
	s.mustOpen("Run")
	s.step++
	return node.Forward(s)
}

// Tap registers every variable reachable from node without evaluating
// anything, typically before restoring a checkpoint into a fresh session.
func (s *Session[T]) Tap(node Node[T]) {
	s.mustOpen("Tap")
	for _, v := range CollectVariables(node) {
		s.Remember(v)
	}
}

// Variables returns the registered variables sorted by id.
func (s *Session[T]) Variables() []Variable[T] {
	s.mustOpen("Variables")
	vars := make([]Variable[T], 0, len(s.variables))
	for _, v := range s.variables {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].id < vars[j].id })
	return vars
}

// Variable looks up a registered variable by id.
func (s *Session[T]) Variable(id int) (Variable[T], bool) {
	s.mustOpen("Variable")
	v, found := s.variables[id]
	return v, found
}

// Placeholders returns the placeholders bound through this session.
func (s *Session[T]) Placeholders() []Placeholder[T] {
	s.mustOpen("Placeholders")
	return append([]Placeholder[T](nil), s.placeholders...)
}

// Training reports the learning phase.
func (s *Session[T]) Training() bool { return s.training }

// SetTraining switches between training and prediction. Dropout is only
// active, and variable gradients are only rotated, while training.
func (s *Session[T]) SetTraining(training bool) { s.training = training }

// Step returns the number of Run calls so far.
func (s *Session[T]) Step() int { return s.step }

// Closed reports whether Close was called.
func (s *Session[T]) Closed() bool { return s.closed }

// Close unbinds the placeholders whose current binding was made through
// this session and clears the variable registry. Placeholders re-bound by
// another session since keep that binding. Any further use of the session
// panics. Closing twice is a no-op.
func (s *Session[T]) Close() {
	if s.closed {
		return
	}
	released := 0
	for _, p := range s.placeholders {
		if p.release(s) {
			released++
		}
	}
	klog.V(1).Infof("graph: session closed after %d steps, %d placeholders reset, %d variables released",
		s.step, released, len(s.variables))
	s.placeholders = nil
	s.bound = nil
	s.variables = nil
	s.closed = true
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package blas provides a matrix-multiply backend on top of gonum's BLAS
// implementation. It is the default accelerated backend of the dispatcher.
package blas

import (
	"github.com/born-ml/ember/backend"
	internalblas "github.com/born-ml/ember/internal/backend/blas"
)

// Backend runs products through gonum.org/v1/gonum/blas.
type Backend = internalblas.Backend

var _ backend.Backend = (*Backend)(nil)

// New creates a BLAS backend.
func New() *Backend {
	return internalblas.New()
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores the variables of a graph session.
//
// A checkpoint holds the id, shape and values of every variable the
// session has registered, as text wrapped in an LZW stream. Variables are
// matched by id, and ids are assigned in construction order: rebuild the
// graph the same way, register it with Session.Tap, then restore.
//
// Example:
//
//	s := graph.NewSession[float32]()
//	defer s.Close()
//	s.Tap(loss)
//	if err := checkpoint.RestoreFile("model.ckpt", s); err != nil {
//	    log.Fatal(err)
//	}
package checkpoint

import (
	"io"

	"github.com/born-ml/ember/graph"
	"github.com/born-ml/ember/internal/checkpoint"
	"github.com/born-ml/ember/tensor"
)

// Errors returned while restoring.
var (
	ErrUnknownVariable = checkpoint.ErrUnknownVariable
	ErrShapeMismatch   = checkpoint.ErrShapeMismatch
	ErrNoVariables     = checkpoint.ErrNoVariables
)

// Save writes the variables of s to w.
func Save[T tensor.Float](w io.Writer, s *graph.Session[T]) error { return checkpoint.Save(w, s) }

// Restore reads a checkpoint written by Save into s. On error no variable
// is modified.
func Restore[T tensor.Float](r io.Reader, s *graph.Session[T]) error { return checkpoint.Restore(r, s) }

// WritePlain writes the uncompressed text form of a checkpoint.
func WritePlain[T tensor.Float](w io.Writer, s *graph.Session[T]) error {
	return checkpoint.WritePlain(w, s)
}

// ReadPlain reads the uncompressed text form of a checkpoint into s.
func ReadPlain[T tensor.Float](r io.Reader, s *graph.Session[T]) error {
	return checkpoint.ReadPlain(r, s)
}

// SaveFile writes the checkpoint of s to path.
func SaveFile[T tensor.Float](path string, s *graph.Session[T]) error {
	return checkpoint.SaveFile(path, s)
}

// RestoreFile restores s from the checkpoint at path.
func RestoreFile[T tensor.Float](path string, s *graph.Session[T]) error {
	return checkpoint.RestoreFile(path, s)
}

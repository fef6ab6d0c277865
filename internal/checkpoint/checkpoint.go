// Package checkpoint saves the variables registered with a graph.Session
// and restores them into another session holding the same graph.
//
// The plain format is text:
//
//	[line: whitespace-separated variable ids]
//	[one tensor block per id, in the same order]
//
// where a tensor block is the flat format of tensor.Write (a line of
// extents followed by a line of values). Save and Restore wrap the plain
// format in an LZW stream (least significant bit first, 8-bit literals).
//
// Variables are matched by id. Ids are handed out in construction order,
// so a graph rebuilt the same way in a fresh process gets the same ids.
// Use graph.Session.Tap to register the variables of a graph before
// restoring into a session that has not run it yet.
package checkpoint

import (
	"bufio"
	"compress/lzw"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Errors returned while restoring. They are wrapped with the offending id.
var (
	ErrUnknownVariable = errors.New("checkpoint: unknown variable id")
	ErrShapeMismatch   = errors.New("checkpoint: shape mismatch")
	ErrNoVariables     = errors.New("checkpoint: session has no variables")
)

// litWidth is the LZW literal code width.
const litWidth = 8

// WritePlain writes every variable of s in the plain format.
func WritePlain[T tensor.Float](w io.Writer, s *graph.Session[T]) error {
	vars := s.Variables()
	if len(vars) == 0 {
		return ErrNoVariables
	}
	bw := bufio.NewWriter(w)
	ids := make([]string, len(vars))
	for i, v := range vars {
		ids[i] = strconv.Itoa(v.ID())
	}
	if _, err := bw.WriteString(strings.Join(ids, " ") + "\n"); err != nil {
		return errors.Wrap(err, "checkpoint: writing ids")
	}
	for _, v := range vars {
		if err := tensor.Write(bw, v.Data()); err != nil {
			return errors.Wrapf(err, "checkpoint: writing %s", v.Name())
		}
	}
	return errors.Wrap(bw.Flush(), "checkpoint: flushing")
}

// ReadPlain reads a plain checkpoint and copies its values into the
// variables of s. Nothing is modified unless every id is known to s and
// every shape matches.
func ReadPlain[T tensor.Float](r io.Reader, s *graph.Session[T]) error {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return errors.Wrap(err, "checkpoint: reading ids")
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return errors.New("checkpoint: empty id line")
	}

	targets := make([]graph.Variable[T], len(fields))
	values := make([]*tensor.Tensor[T], len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return errors.Wrapf(err, "checkpoint: id %q", f)
		}
		v, found := s.Variable(id)
		if !found {
			return errors.Wrapf(ErrUnknownVariable, "id %d", id)
		}
		t, err := tensor.Read[T](br)
		if err != nil {
			return errors.Wrapf(err, "checkpoint: reading variable %d", id)
		}
		if !t.Shape().Equal(v.Data().Shape()) {
			return errors.Wrapf(ErrShapeMismatch, "variable %d: stored %v, session has %v", id, t.Shape(), v.Data().Shape())
		}
		targets[i], values[i] = v, t
	}
	for i, v := range targets {
		v.Data().CopyFrom(values[i])
	}
	return nil
}

// Save writes the variables of s as an LZW-compressed plain checkpoint.
func Save[T tensor.Float](w io.Writer, s *graph.Session[T]) error {
	zw := lzw.NewWriter(w, lzw.LSB, litWidth)
	if err := WritePlain(zw, s); err != nil {
		_ = zw.Close()
		return err
	}
	return errors.Wrap(zw.Close(), "checkpoint: compressing")
}

// Restore reads a checkpoint written by Save into s.
func Restore[T tensor.Float](r io.Reader, s *graph.Session[T]) error {
	zr := lzw.NewReader(r, lzw.LSB, litWidth)
	defer zr.Close()
	return ReadPlain(zr, s)
}

// SaveFile writes the checkpoint of s to path, replacing any existing file.
func SaveFile[T tensor.Float](path string, s *graph.Session[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "checkpoint: creating file")
	}
	if err := Save(f, s); err != nil {
		_ = f.Close()
		return err
	}
	if info, err := f.Stat(); err == nil {
		klog.V(1).Infof("checkpoint: saved %d variables to %s (%s)", len(s.Variables()), path, humanize.Bytes(uint64(info.Size())))
	}
	return errors.Wrapf(f.Close(), "checkpoint: closing %s", path)
}

// RestoreFile restores s from the checkpoint at path.
func RestoreFile[T tensor.Float](path string, s *graph.Session[T]) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "checkpoint: opening file")
	}
	defer f.Close()
	if err := Restore(f, s); err != nil {
		return errors.WithMessagef(err, "restoring %s", path)
	}
	klog.V(1).Infof("checkpoint: restored %s", path)
	return nil
}

package tensor

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

// Write serialises t in the flat text format: one line with the extents,
// one line with the values, both whitespace separated. Values are written
// with the shortest representation that reads back exactly.
func Write[T Float](w io.Writer, t *Tensor[T]) error {
	if t.IsEmpty() {
		return errors.New("tensor.Write: empty tensor")
	}
	bw := bufio.NewWriter(w)
	for i, d := range t.shape {
		if i > 0 {
			_ = bw.WriteByte(' ')
		}
		_, _ = bw.WriteString(strconv.Itoa(d))
	}
	_ = bw.WriteByte('\n')

	var zero T
	bits := int(unsafe.Sizeof(zero)) * 8
	buf := make([]byte, 0, 32)
	for i, x := range t.Data() {
		if i > 0 {
			_ = bw.WriteByte(' ')
		}
		buf = strconv.AppendFloat(buf[:0], float64(x), 'g', -1, bits)
		_, _ = bw.Write(buf)
	}
	_ = bw.WriteByte('\n')
	return errors.Wrap(bw.Flush(), "tensor.Write")
}

// Read parses one tensor in the flat text format from r. Several tensors
// can be read back to back from the same reader.
func Read[T Float](r *bufio.Reader) (*Tensor[T], error) {
	shapeLine, err := readLine(r)
	if err != nil {
		return nil, errors.Wrap(err, "tensor.Read: reading shape line")
	}
	fields := strings.Fields(shapeLine)
	shape := make(Shape, len(fields))
	for i, f := range fields {
		if shape[i], err = strconv.Atoi(f); err != nil {
			return nil, errors.Wrapf(err, "tensor.Read: extent %d of %q", i, shapeLine)
		}
	}
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "tensor.Read")
	}

	valueLine, err := readLine(r)
	if err != nil {
		return nil, errors.Wrap(err, "tensor.Read: reading value line")
	}
	fields = strings.Fields(valueLine)
	if len(fields) != shape.NumElements() {
		return nil, errors.Errorf("tensor.Read: shape %v needs %d values, got %d",
			shape, shape.NumElements(), len(fields))
	}
	var zero T
	bits := int(unsafe.Sizeof(zero)) * 8
	data := make([]T, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, bits)
		if err != nil {
			return nil, errors.Wrapf(err, "tensor.Read: value %d", i)
		}
		data[i] = T(v)
	}
	return wrap(shape, data), nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is accepted; io.EOF is only returned when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

package resp

import (
	"bufio"
	"io"
)

// Writer encodes replies onto a buffered connection. Callers must Flush
// after the replies for a command batch are written. Not safe for
// concurrent use.
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) Flush() error {
	return w.bw.Flush()
}

func (w *Writer) WriteSimple(s string) error {
	return w.write(AppendSimple(w.buf(), s))
}

func (w *Writer) WriteError(msg string) error {
	return w.write(AppendError(w.buf(), msg))
}

func (w *Writer) WriteInt(n int64) error {
	return w.write(AppendInt(w.buf(), n))
}

func (w *Writer) WriteBulk(b []byte) error {
	return w.write(AppendBulk(w.buf(), b))
}

func (w *Writer) WriteNil() error {
	return w.write(AppendNil(w.buf()))
}

func (w *Writer) WriteArrayHeader(n int) error {
	return w.write(AppendArrayHeader(w.buf(), n))
}

func (w *Writer) buf() []byte {
	return w.scratch[:0]
}

func (w *Writer) write(buf []byte) error {
	w.scratch = buf
	_, err := w.bw.Write(buf)
	return err
}

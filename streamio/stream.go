// Package streamio defines the opaque byte-stream abstraction the codec
// writes onto and reads from. Framing, transport and encryption all live
// outside this package; see spec.md §1 and §6.
package streamio

import "io"

// ByteStream is the underlying byte-granular stream a session binds to. It is
// deliberately narrower than io.Reader/io.Writer: the codec only ever needs
// one byte at a time, and callers supply whatever buffering they like.
type ByteStream interface {
	PutByte(b byte) error
	GetByte() (byte, error)
}

// FromReadWriter adapts an io.Reader and io.Writer pair into a ByteStream.
// Most callers passing a bytes.Buffer or a buffered network connection will
// use this rather than implementing ByteStream directly.
func FromReadWriter(r io.Reader, w io.Writer) ByteStream {
	return &readWriterStream{r: r, w: w}
}

type readWriterStream struct {
	r   io.Reader
	w   io.Writer
	buf [1]byte
}

func (s *readWriterStream) PutByte(b byte) error {
	s.buf[0] = b
	_, err := s.w.Write(s.buf[:])
	return err
}

func (s *readWriterStream) GetByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

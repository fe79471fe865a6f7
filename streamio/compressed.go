package streamio

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// CompressedStream wraps a ByteStream in a zstd frame. It is meant for bulk
// transfers — an initial shared-object snapshot, a persistent-mapping
// restore — where the one-time framing overhead is worth paying; per-message
// deltas should use the underlying stream directly, since the codec's own
// delta law (spec.md §8) already keeps those small.
//
// CompressedStream buffers the entire logical message in memory: zstd framing
// needs the encoder Close()'d (to flush the trailer) before any byte reaches
// the wire, and the decoder needs a complete frame before GetByte can return
// data. Reset between sessions with NewCompressedWriter/NewCompressedReader.
type CompressedStream struct {
	under ByteStream

	encBuf *bytes.Buffer
	enc    *zstd.Encoder

	decBuf *bytes.Reader
	dec    *zstd.Decoder
}

// NewCompressedWriter returns a ByteStream that buffers writes and flushes
// them as a single zstd frame onto under when Flush is called.
func NewCompressedWriter(under ByteStream) (*CompressedStream, error) {
	buf := &bytes.Buffer{}
	enc, err := zstd.NewWriter(buf)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd encoder")
	}
	return &CompressedStream{under: under, encBuf: buf, enc: enc}, nil
}

// NewCompressedReader returns a ByteStream that reads a complete zstd frame
// from under (using limit as the maximum frame length) before yielding any
// decompressed bytes.
func NewCompressedReader(under ByteStream, limit int) (*CompressedStream, error) {
	raw := make([]byte, 0, limit)
	for {
		b, err := under.GetByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading compressed frame")
		}
		raw = append(raw, b)
		if len(raw) >= limit {
			break
		}
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}
	decoded, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing frame")
	}
	return &CompressedStream{under: under, decBuf: bytes.NewReader(decoded), dec: dec}, nil
}

// PutByte buffers b for the eventual zstd frame.
func (c *CompressedStream) PutByte(b byte) error {
	if c.enc == nil {
		return errors.New("CompressedStream not opened for writing")
	}
	_, err := c.enc.Write([]byte{b})
	return err
}

// GetByte returns the next decompressed byte.
func (c *CompressedStream) GetByte() (byte, error) {
	if c.decBuf == nil {
		return 0, errors.New("CompressedStream not opened for reading")
	}
	return c.decBuf.ReadByte()
}

// Flush closes the zstd encoder, pushing the compressed frame to the
// underlying stream byte by byte.
func (c *CompressedStream) Flush() error {
	if c.enc == nil {
		return errors.New("CompressedStream not opened for writing")
	}
	if err := c.enc.Close(); err != nil {
		return errors.Wrap(err, "closing zstd encoder")
	}
	for _, b := range c.encBuf.Bytes() {
		if err := c.under.PutByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Close releases decoder resources.
func (c *CompressedStream) Close() {
	if c.dec != nil {
		c.dec.Close()
	}
}

package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/sfpack/internal/sfptype"
	"github.com/meigma/sfpack/internal/sizing"
)

// DefaultBufferSize is the size of the intermediate copy buffer.
const DefaultBufferSize = 2048

// sourceError marks a failure reading the archive, as opposed to a
// failure writing the destination.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string {
	return "read archive: " + e.err.Error()
}

func (e *sourceError) Unwrap() error {
	return e.err
}

// copyRange copies n bytes starting at off in src to dst through buf.
//
// Every read is at most len(buf) bytes and the final read is sized to the
// remaining count, so no byte past off+n is ever requested. A short read
// returns ErrTruncated wrapped in a sourceError.
func copyRange(dst io.Writer, src io.ReaderAt, off, n uint64, buf []byte) (uint64, error) {
	if _, err := sizing.End(off, n); err != nil {
		return 0, &sourceError{err: err}
	}
	if len(buf) == 0 && n > 0 {
		return 0, errors.New("copy: empty buffer")
	}

	var done uint64
	for done < n {
		chunk := buf
		if rem := n - done; rem < uint64(len(chunk)) {
			chunk = chunk[:rem]
		}
		pos := int64(off + done) //nolint:gosec // off+n checked above
		r, err := src.ReadAt(chunk, pos)
		if r < len(chunk) {
			if err == nil || errors.Is(err, io.EOF) {
				err = fmt.Errorf("content at %d: %w (%d of %d bytes)", pos, sfptype.ErrTruncated, r, len(chunk))
			}
			return done, &sourceError{err: err}
		}
		if err := writeAll(dst, chunk); err != nil {
			return done, err
		}
		done += uint64(len(chunk))
	}
	return done, nil
}

// writeAll writes all data to w, handling partial writes.
func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

package testutil

import (
	"io"
	"sync"
)

// MockByteSource implements an in-memory byte source for tests.
// It records the length of every ReadAt call.
type MockByteSource struct {
	data []byte

	mu    sync.Mutex
	reads []ReadCall
}

// ReadCall describes one ReadAt call observed by a MockByteSource.
type ReadCall struct {
	Off int64
	Len int
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	m.reads = append(m.reads, ReadCall{Off: off, Len: len(p)})
	m.mu.Unlock()

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Reads returns a copy of the recorded ReadAt calls.
func (m *MockByteSource) Reads() []ReadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReadCall, len(m.reads))
	copy(out, m.reads)
	return out
}

// ReadsAt returns the lengths of recorded reads that started inside
// [start, end), in call order.
func (m *MockByteSource) ReadsAt(start, end int64) []int {
	var lens []int
	for _, r := range m.Reads() {
		if r.Off >= start && r.Off < end {
			lens = append(lens, r.Len)
		}
	}
	return lens
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

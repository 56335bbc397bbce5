package util

import (
	"github.com/pkg/errors"
)

// ByteWriter writes sequentially into a fixed buffer, refusing writes that would overflow it.
//
type ByteWriter struct {
	buffer []byte
	pos    int
}

func NewByteWriter(buffer []byte) *ByteWriter {
	return &ByteWriter{buffer: buffer}
}

func (self *ByteWriter) Write(p []byte) (n int, err error) {
	if self.pos+len(p) > len(self.buffer) {
		return 0, errors.Errorf("short buffer [%d > %d]", self.pos+len(p), len(self.buffer))
	}
	n = copy(self.buffer[self.pos:], p)
	self.pos += n
	return n, nil
}

// Skip advances the write position by n bytes without touching them.
func (self *ByteWriter) Skip(n int) error {
	if n < 0 || self.pos+n > len(self.buffer) {
		return errors.Errorf("invalid skip [%d] at [%d/%d]", n, self.pos, len(self.buffer))
	}
	self.pos += n
	return nil
}

func (self *ByteWriter) Reset() {
	self.pos = 0
}

func (self *ByteWriter) Len() int {
	return self.pos
}

func (self *ByteWriter) Remaining() int {
	return len(self.buffer) - self.pos
}

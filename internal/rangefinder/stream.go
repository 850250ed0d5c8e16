// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rangefinder

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrNoData is returned by ReadByte when the receive buffer is empty.
var ErrNoData = errors.New("rangefinder: no data available")

// DefaultBufferSize bounds the receive FIFO of a StreamSource.
const DefaultBufferSize = 4096

// StreamSource turns a blocking reader (an open UART) into a ByteSource.
// A background goroutine plays the role of the UART receive FIFO: it
// copies incoming bytes into a bounded buffer that the control loop
// drains without blocking. Bytes arriving while the buffer is full are
// dropped and counted as overruns.
type StreamSource struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	overruns uint64
	err      error

	done chan struct{}
}

// NewStreamSource starts pumping r. limit <= 0 uses DefaultBufferSize.
func NewStreamSource(r io.Reader, limit int) *StreamSource {
	if limit <= 0 {
		limit = DefaultBufferSize
	}
	s := &StreamSource{limit: limit, done: make(chan struct{})}
	go s.pump(r)
	return s
}

func (s *StreamSource) pump(r io.Reader) {
	defer close(s.done)
	chunk := make([]byte, 256)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			space := s.limit - s.buf.Len()
			if n > space {
				s.overruns += uint64(n - space)
				n = space
			}
			s.buf.Write(chunk[:n])
			s.mu.Unlock()
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
	}
}

func (s *StreamSource) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// ReadByte returns the oldest buffered byte. With an empty buffer it
// returns the reader's terminal error if there was one, else ErrNoData.
func (s *StreamSource) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Len() == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, ErrNoData
	}
	return s.buf.ReadByte()
}

// Overruns returns how many bytes were dropped on a full buffer.
func (s *StreamSource) Overruns() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overruns
}

// Err returns the error that stopped the pump, if any.
func (s *StreamSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the underlying reader has failed or hit EOF.
func (s *StreamSource) Done() <-chan struct{} { return s.done }

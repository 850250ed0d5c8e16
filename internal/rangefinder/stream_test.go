// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rangefinder

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, s *StreamSource) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream pump did not finish")
	}
}

func TestStreamSource_DrainsReader(t *testing.T) {
	f := EncodeFrame(42, 900)
	s := NewStreamSource(bytes.NewReader(f[:]), 0)
	waitDone(t, s)

	require.Equal(t, FrameSize, s.Available())

	d := NewDecoder()
	pkt, ok := d.Poll(s)
	require.True(t, ok)
	assert.Equal(t, uint16(42), pkt.Distance)

	assert.Zero(t, s.Available())
	_, err := s.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, s.Err(), io.EOF)
}

func TestStreamSource_OverrunDropsNewBytes(t *testing.T) {
	s := NewStreamSource(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), 4)
	waitDone(t, s)

	assert.Equal(t, 4, s.Available())
	assert.Equal(t, uint64(6), s.Overruns())

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)
}

func TestStreamSource_EmptyIsNonBlocking(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := NewStreamSource(r, 0)

	assert.Zero(t, s.Available())
	_, err := s.ReadByte()
	assert.ErrorIs(t, err, ErrNoData)

	d := NewDecoder()
	_, ok := d.Poll(s)
	assert.False(t, ok)

	go w.Write(sampleFrame())
	require.Eventually(t, func() bool { return s.Available() == FrameSize }, 2*time.Second, 5*time.Millisecond)
	_, ok = d.Poll(s)
	assert.True(t, ok)
}

func TestMockSource_EmitsValidFrames(t *testing.T) {
	m := NewMockSource(time.Millisecond)
	require.Eventually(t, func() bool { return m.Available() >= 3*FrameSize }, 2*time.Second, time.Millisecond)

	d := NewDecoder()
	accepted := 0
	for i := 0; i < 10 && accepted == 0; i++ {
		if _, ok := d.Poll(m); ok {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Zero(t, d.Stats().ChecksumErrors)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rangefinder

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource is a ByteSource over an in-memory queue. It fails the test
// if ReadByte is called while nothing is available.
type sliceSource struct {
	t    *testing.T
	data []byte
}

func (s *sliceSource) Available() int { return len(s.data) }

func (s *sliceSource) ReadByte() (byte, error) {
	if len(s.data) == 0 {
		s.t.Fatalf("ReadByte called with no bytes available")
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, nil
}

func (s *sliceSource) push(b ...byte) { s.data = append(s.data, b...) }

func frameBytes(f Frame) []byte { return f[:] }

func sampleFrame() []byte {
	return []byte{0x59, 0x59, 70, 0, 0, 0, 0, 0, byte((0x59 + 0x59 + 70) & 0xff)}
}

func TestDecoder_AcceptsValidFrame(t *testing.T) {
	src := &sliceSource{t: t, data: sampleFrame()}
	d := NewDecoder()

	pkt, ok := d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, uint16(70), pkt.Distance)
	assert.Zero(t, src.Available())
	assert.Equal(t, uint64(1), d.Stats().Accepted)
}

func TestDecoder_ChecksumProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		var f Frame
		rng.Read(f[:])
		// bias towards frames that get past the header check
		if rng.Intn(4) != 0 {
			f[0] = Header
		}
		if rng.Intn(4) != 0 {
			f[1] = Header
		}
		if rng.Intn(2) == 0 {
			f[8] = Checksum(&f)
		}

		var sum int
		for _, b := range f[:8] {
			sum += int(b)
		}
		want := f[0] == Header && f[1] == Header && f[8] == byte(sum&0xff)

		d := NewDecoder()
		_, got := d.Poll(&sliceSource{t: t, data: append([]byte(nil), f[:]...)})
		require.Equalf(t, want, got, "frame % x", f[:])
		require.Equal(t, want, Valid(&f))
	}
}

func TestDecoder_ResyncAfterNoiseByte(t *testing.T) {
	src := &sliceSource{t: t}
	src.push(0x13)
	src.push(sampleFrame()...)
	d := NewDecoder()

	accepted := 0
	for i := 0; i < 5; i++ {
		if pkt, ok := d.Poll(src); ok {
			accepted++
			assert.Equal(t, uint16(70), pkt.Distance)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, uint64(1), d.Stats().NoiseBytes)
	assert.Zero(t, d.Stats().ChecksumErrors)
}

func TestDecoder_ResyncAfterSentinelNoise(t *testing.T) {
	src := &sliceSource{t: t}
	src.push(Header)
	src.push(sampleFrame()...)
	d := NewDecoder()

	accepted := 0
	for i := 0; i < 20; i++ {
		if pkt, ok := d.Poll(src); ok {
			accepted++
			assert.Equal(t, uint16(70), pkt.Distance)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, Stats{Accepted: 1, NoiseBytes: 1}, d.Stats())
	assert.Zero(t, d.Pending())
}

func TestDecoder_ResyncOnTrailingSentinel(t *testing.T) {
	// Garbage frame whose last byte starts the real frame.
	src := &sliceSource{t: t}
	src.push(Header, Header, 1, 2, 3, 4, 5, 6)
	src.push(sampleFrame()...)
	d := NewDecoder()

	pkt, ok := d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, uint16(70), pkt.Distance)
	assert.Equal(t, uint64(8), d.Stats().NoiseBytes)
	assert.Zero(t, d.Stats().ChecksumErrors)
}

func TestDecoder_NoiseStopsAttempt(t *testing.T) {
	src := &sliceSource{t: t}
	src.push(0x01)
	src.push(sampleFrame()...)
	d := NewDecoder()

	_, ok := d.Poll(src)
	assert.False(t, ok)
	assert.Equal(t, FrameSize, src.Available(), "only the noise byte is consumed")
}

func TestDecoder_SecondHeaderMismatch(t *testing.T) {
	src := &sliceSource{t: t}
	src.push(Header, 0x42)
	src.push(sampleFrame()...)
	d := NewDecoder()

	_, ok := d.Poll(src)
	assert.False(t, ok)
	assert.Equal(t, uint64(2), d.Stats().NoiseBytes)
	assert.Zero(t, d.Pending())

	pkt, ok := d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, uint16(70), pkt.Distance)
}

func TestDecoder_PartialFrameAcrossPolls(t *testing.T) {
	frame := sampleFrame()
	src := &sliceSource{t: t}
	d := NewDecoder()

	assert.False(t, nextPoll(d, src))

	src.push(frame[:1]...)
	assert.False(t, nextPoll(d, src))
	assert.Equal(t, 1, d.Pending())

	src.push(frame[1:5]...)
	assert.False(t, nextPoll(d, src))
	assert.Equal(t, 5, d.Pending())

	src.push(frame[5:8]...)
	assert.False(t, nextPoll(d, src))
	assert.Equal(t, 8, d.Pending())

	src.push(frame[8])
	pkt, ok := d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, uint16(70), pkt.Distance)
	assert.Zero(t, d.Pending())
}

func nextPoll(d *Decoder, src ByteSource) bool {
	_, ok := d.Poll(src)
	return ok
}

func TestDecoder_BadChecksumDropped(t *testing.T) {
	frame := sampleFrame()
	frame[8]++
	src := &sliceSource{t: t, data: frame}
	d := NewDecoder()

	_, ok := d.Poll(src)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), d.Stats().ChecksumErrors)
	assert.Zero(t, d.Pending())
}

func TestDecoder_BackToBackFramesOnePerPoll(t *testing.T) {
	a := EncodeFrame(12, 300)
	b := EncodeFrame(1500, 80)
	src := &sliceSource{t: t}
	src.push(frameBytes(a)...)
	src.push(frameBytes(b)...)
	d := NewDecoder()

	pkt, ok := d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, Packet{Distance: 12, Strength: 300}, pkt)
	assert.Equal(t, FrameSize, src.Available())

	pkt, ok = d.Poll(src)
	require.True(t, ok)
	assert.Equal(t, Packet{Distance: 1500, Strength: 80}, pkt)
}

type failingSource struct{}

func (failingSource) Available() int          { return 1 }
func (failingSource) ReadByte() (byte, error) { return 0, errors.New("uart gone") }

func TestDecoder_ReadErrorCounted(t *testing.T) {
	d := NewDecoder()
	_, ok := d.Poll(failingSource{})
	assert.False(t, ok)
	assert.Equal(t, uint64(1), d.Stats().ReadErrors)
}

func TestParseFrame_LittleEndian(t *testing.T) {
	f := Frame{0x59, 0x59, 0x34, 0x12, 0x78, 0x56, 0x01, 0x02}
	f[8] = Checksum(&f)

	pkt := ParseFrame(&f)
	assert.Equal(t, uint16(0x1234), pkt.Distance)
	assert.Equal(t, uint16(0x5678), pkt.Strength)
	assert.Equal(t, uint16(0x0201), pkt.Reserved)
	assert.True(t, Valid(&f))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, uint16(70), Clamp(1200, 70))
	assert.Equal(t, uint16(70), Clamp(70, 70))
	assert.Equal(t, uint16(69), Clamp(69, 70))
	assert.Equal(t, uint16(1200), Clamp(5000, 1200))
}

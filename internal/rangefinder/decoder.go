// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rangefinder

// ByteSource is the asynchronous serial channel. ReadByte is only called
// when Available reports at least one byte.
type ByteSource interface {
	Available() int
	ReadByte() (byte, error)
}

// Stats counts decoder outcomes since creation.
type Stats struct {
	Accepted       uint64 `json:"accepted"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	NoiseBytes     uint64 `json:"noise_bytes"` // discarded while searching for a header
	ReadErrors     uint64 `json:"read_errors"`
}

// Decoder assembles frames from a ByteSource without ever waiting for
// bytes. A partially received frame is kept until the next Poll.
type Decoder struct {
	frame Frame
	n     int // bytes of frame filled so far

	stats Stats
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Poll consumes available bytes until one frame completes, a header byte
// mismatches, or the source runs dry. It returns a packet only for a
// frame that passed validation.
//
// A byte that fails the header check is dropped and ends the attempt;
// the search restarts from the next byte on the following Poll. A frame
// that fails its checksum but holds a later header candidate is shifted
// to that candidate and assembly continues, so a stray sentinel byte in
// front of a frame costs only that byte.
func (d *Decoder) Poll(src ByteSource) (Packet, bool) {
	for src.Available() > 0 {
		b, err := src.ReadByte()
		if err != nil {
			d.stats.ReadErrors++
			return Packet{}, false
		}

		if d.n < 2 {
			if b != Header {
				d.stats.NoiseBytes += uint64(d.n) + 1
				d.n = 0
				return Packet{}, false
			}
			d.frame[d.n] = b
			d.n++
			continue
		}

		d.frame[d.n] = b
		d.n++
		if d.n < FrameSize {
			continue
		}

		d.n = 0
		if d.frame[8] != Checksum(&d.frame) {
			if skip := resyncOffset(&d.frame); skip > 0 {
				d.n = copy(d.frame[:], d.frame[skip:])
				d.stats.NoiseBytes += uint64(skip)
				continue
			}
			d.stats.ChecksumErrors++
			return Packet{}, false
		}
		d.stats.Accepted++
		return ParseFrame(&d.frame), true
	}
	return Packet{}, false
}

// resyncOffset returns the index of the first header candidate after
// byte 0: a sentinel pair, or a sentinel in the last position. Zero means
// there is none.
func resyncOffset(f *Frame) int {
	for i := 1; i < FrameSize; i++ {
		if f[i] != Header {
			continue
		}
		if i == FrameSize-1 || f[i+1] == Header {
			return i
		}
	}
	return 0
}

// Pending returns how many bytes of a partial frame are buffered.
func (d *Decoder) Pending() int { return d.n }

// Stats returns a copy of the counters.
func (d *Decoder) Stats() Stats { return d.stats }

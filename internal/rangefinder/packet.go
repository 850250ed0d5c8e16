// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rangefinder decodes the 9-byte frames a TF-Mini style
// time-of-flight rangefinder streams over its UART.
package rangefinder

import "encoding/binary"

const (
	// Header is the sentinel value of both leading frame bytes.
	Header = 0x59
	// FrameSize is the length of one frame in bytes.
	FrameSize = 9
)

// Frame is one raw frame as received.
//
//	[0..1] 0x59 0x59
//	[2..3] distance, little endian
//	[4..5] signal strength, little endian
//	[6..7] reserved
//	[8]    low byte of the sum of bytes 0..7
type Frame [FrameSize]byte

// Packet is the decoded content of a valid frame.
type Packet struct {
	Distance uint16 `json:"distance"`
	Strength uint16 `json:"strength"`
	Reserved uint16 `json:"reserved"`
}

// Checksum returns the low byte of the sum of the first 8 bytes.
func Checksum(f *Frame) byte {
	var sum int
	for _, b := range f[:FrameSize-1] {
		sum += int(b)
	}
	return byte(sum & 0xff)
}

// Valid reports whether f starts with two sentinel bytes and carries a
// matching checksum.
func Valid(f *Frame) bool {
	return f[0] == Header && f[1] == Header && f[8] == Checksum(f)
}

// ParseFrame decodes f without validating it.
func ParseFrame(f *Frame) Packet {
	return Packet{
		Distance: binary.LittleEndian.Uint16(f[2:4]),
		Strength: binary.LittleEndian.Uint16(f[4:6]),
		Reserved: binary.LittleEndian.Uint16(f[6:8]),
	}
}

// EncodeFrame builds a valid frame for the given readings.
func EncodeFrame(distance, strength uint16) Frame {
	var f Frame
	f[0], f[1] = Header, Header
	binary.LittleEndian.PutUint16(f[2:4], distance)
	binary.LittleEndian.PutUint16(f[4:6], strength)
	f[8] = Checksum(&f)
	return f
}

// Clamp limits distance to ceiling. A reading at the ceiling means nothing
// was seen within range.
func Clamp(distance, ceiling uint16) uint16 {
	if distance > ceiling {
		return ceiling
	}
	return distance
}
